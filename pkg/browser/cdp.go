package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/portfolio-qa/portfolio-e2e/internal/config"
)

// CDPConfig configures Chrome launch options for the Rod driver.
type CDPConfig struct {
	Headless bool          // Run in headless mode (default: true)
	Timeout  time.Duration // Default operation timeout (default: 30s)
}

// DefaultCDPConfig returns sensible defaults for E2E testing.
func DefaultCDPConfig() CDPConfig {
	return CDPConfig{
		Headless: true,
		Timeout:  30 * time.Second,
	}
}

// CDPConfigFrom derives a CDPConfig from the suite config.
func CDPConfigFrom(cfg config.Config) CDPConfig {
	c := DefaultCDPConfig()
	c.Headless = cfg.Headless
	if cfg.NavTimeout > 0 {
		c.Timeout = cfg.NavTimeout
	}
	return c
}

// CDPClient drives Chromium over the DevTools protocol with Rod.
// It only supports Chromium; use Launcher for Firefox and WebKit.
type CDPClient struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration
}

// NewCDPClient launches a headless Chromium.
// The browser is configured with:
//   - No sandbox (for container compatibility)
//   - GPU disabled
func NewCDPClient(cfg CDPConfig) (*CDPClient, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	return &CDPClient{
		browser: browser,
		timeout: cfg.Timeout,
	}, nil
}

// Navigate opens a URL with timeout.
// Returns the page for further interaction.
func (c *CDPClient) Navigate(url string) (*rod.Page, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	c.page = page

	if err := page.Timeout(c.timeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return page, nil
}

// Page returns the current page, or nil if none open.
func (c *CDPClient) Page() *rod.Page {
	return c.page
}

// Eval executes JavaScript and returns the result.
// Requires Navigate() to have been called first.
func (c *CDPClient) Eval(js string) (interface{}, error) {
	if c.page == nil {
		return nil, ErrNoPage
	}
	result, err := c.page.Eval(js)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return result.Value.Val(), nil
}

// WaitStable waits for the page to be stable (no DOM changes).
func (c *CDPClient) WaitStable() error {
	if c.page == nil {
		return ErrNoPage
	}
	return c.page.WaitStable(c.timeout)
}

// OpenSession opens a blank page wrapped as a Page. Sessions opened from one
// client share its browser; Close only closes the page.
func (c *CDPClient) OpenSession(name string) (Session, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page for %s: %w", name, err)
	}
	c.page = page
	return &cdpSession{page: newRodPage(page, c.timeout)}, nil
}

// Close cleans up browser resources.
// Always call this (via defer) to prevent orphaned Chrome processes.
func (c *CDPClient) Close() error {
	if c.browser != nil {
		return c.browser.Close()
	}
	return nil
}

type cdpSession struct {
	page *rodPage
}

func (s *cdpSession) Page() Page   { return s.page }
func (s *cdpSession) Close() error { return s.page.Close() }

// rodPage adapts a Rod page to Page.
type rodPage struct {
	page    *rod.Page
	timeout time.Duration

	// events carries the dialog listeners and hijack routers; cancel
	// releases them when the page closes.
	events *rod.Page
	cancel context.CancelFunc

	mu      sync.Mutex
	routers []*rod.HijackRouter
}

func newRodPage(page *rod.Page, timeout time.Duration) *rodPage {
	ctx, cancel := context.WithCancel(page.GetContext())
	return &rodPage{
		page:    page,
		timeout: timeout,
		events:  page.Context(ctx),
		cancel:  cancel,
	}
}
