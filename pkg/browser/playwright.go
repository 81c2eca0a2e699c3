package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/internal/config"
)

// LauncherConfig configures Playwright launches.
type LauncherConfig struct {
	Engine   config.Engine
	Headless bool
	Trace    bool   // Record screenshots, snapshots and sources
	TraceDir string // Traces land in <TraceDir>/<session>.zip
	Timeout  time.Duration
}

// DefaultLauncherConfig returns sensible defaults for E2E testing.
func DefaultLauncherConfig() LauncherConfig {
	return LauncherConfig{
		Engine:   config.Chromium,
		Headless: true,
		Trace:    true,
		TraceDir: "traces",
		Timeout:  30 * time.Second,
	}
}

// LauncherConfigFrom derives a LauncherConfig from the suite config.
// An empty TraceDir or zero NavTimeout keeps the default.
func LauncherConfigFrom(cfg config.Config) LauncherConfig {
	lc := DefaultLauncherConfig()
	lc.Engine = cfg.Browser
	lc.Headless = cfg.Headless
	lc.Trace = cfg.Trace
	if cfg.TraceDir != "" {
		lc.TraceDir = cfg.TraceDir
	}
	if cfg.NavTimeout > 0 {
		lc.Timeout = cfg.NavTimeout
	}
	return lc
}

// TracePath returns where the trace of the named session is written.
func (c LauncherConfig) TracePath(name string) string {
	return filepath.Join(c.TraceDir, name+".zip")
}

// Launcher starts the Playwright driver once and launches a fresh browser
// per session.
type Launcher struct {
	pw  *playwright.Playwright
	cfg LauncherConfig
	log logrus.FieldLogger
}

// NewLauncher starts the Playwright driver.
func NewLauncher(cfg LauncherConfig, log logrus.FieldLogger) (*Launcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return &Launcher{pw: pw, cfg: cfg, log: log}, nil
}

func (l *Launcher) browserType() playwright.BrowserType {
	switch l.cfg.Engine {
	case config.Firefox:
		return l.pw.Firefox
	case config.WebKit:
		return l.pw.WebKit
	default:
		return l.pw.Chromium
	}
}

// Open launches a browser, creates a context with tracing and opens a page.
func (l *Launcher) Open(name string) (*PlaywrightSession, error) {
	browser, err := l.browserType().Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.cfg.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", l.cfg.Engine, err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if l.cfg.Trace {
		err = bctx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
			Sources:     playwright.Bool(true),
		})
		if err != nil {
			bctx.Close()
			browser.Close()
			return nil, fmt.Errorf("failed to start tracing: %w", err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	l.log.WithFields(logrus.Fields{"session": name, "engine": l.cfg.Engine.String()}).Debug("browser session opened")

	return &PlaywrightSession{
		name:    name,
		cfg:     l.cfg,
		log:     l.log,
		browser: browser,
		context: bctx,
		page:    &pwPage{page: page, timeout: l.cfg.Timeout},
	}, nil
}

// OpenSession is Open typed for callers that work with Session.
func (l *Launcher) OpenSession(name string) (Session, error) {
	s, err := l.Open(name)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Stop shuts the Playwright driver down.
func (l *Launcher) Stop() error {
	return l.pw.Stop()
}

// PlaywrightSession is one browser, context and page.
type PlaywrightSession struct {
	name    string
	cfg     LauncherConfig
	log     logrus.FieldLogger
	browser playwright.Browser
	context playwright.BrowserContext
	page    *pwPage
	once    sync.Once
	err     error
}

// Page returns the session's page.
func (s *PlaywrightSession) Page() Page { return s.page }

// Close stops tracing into the trace file, then closes context and browser.
// Safe to call more than once.
func (s *PlaywrightSession) Close() error {
	s.once.Do(func() {
		if s.cfg.Trace {
			if err := os.MkdirAll(s.cfg.TraceDir, 0o755); err != nil {
				s.err = fmt.Errorf("failed to create trace directory: %w", err)
			} else {
				path := s.cfg.TracePath(s.name)
				if err := s.context.Tracing().Stop(path); err != nil {
					s.err = fmt.Errorf("failed to write trace %s: %w", path, err)
				} else {
					s.log.WithField("trace", path).Debug("trace written")
				}
			}
		}
		if err := s.context.Close(); err != nil && s.err == nil {
			s.err = fmt.Errorf("failed to close context: %w", err)
		}
		if err := s.browser.Close(); err != nil && s.err == nil {
			s.err = fmt.Errorf("failed to close browser: %w", err)
		}
	})
	return s.err
}

type pwPage struct {
	page    playwright.Page
	timeout time.Duration
}

func (p *pwPage) Goto(ctx context.Context, url string) error {
	timeout := timeoutFrom(ctx, p.timeout)
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) TextVisible(text string) (bool, error) {
	return p.page.GetByText(text).First().IsVisible()
}

func (p *pwPage) ClickRole(role, name string) error {
	return p.page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
		Name: name,
	}).Click()
}

func (p *pwPage) ClickFirst(selector string) error {
	return p.page.Locator(selector).First().Click()
}

func (p *pwPage) WaitVisible(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *pwPage) Fill(selector, value string) error {
	return p.page.Locator(selector).Fill(value)
}

func (p *pwPage) OnDialog(fn func(message string)) {
	p.page.OnDialog(func(d playwright.Dialog) {
		fn(d.Message())
		_ = d.Accept()
	})
}

func (p *pwPage) Route(pattern string, h RouteHandler) error {
	return p.page.Route(pattern, func(route playwright.Route) {
		req := route.Request()
		captured := CapturedRequest{Method: req.Method(), URL: req.URL()}
		if data, err := req.PostData(); err == nil && data != "" {
			var body map[string]any
			if json.Unmarshal([]byte(data), &body) == nil {
				captured.Body = body
			}
		}

		resp := h(captured)
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(resp.Status),
			ContentType: playwright.String(resp.ContentType),
			Body:        resp.Body,
		})
	})
}

func (p *pwPage) Close() error {
	return p.page.Close()
}
