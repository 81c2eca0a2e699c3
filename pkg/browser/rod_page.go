package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const textVisibleJS = `(text) => {
	const candidates = document.querySelectorAll('body *:not(script):not(style)');
	for (const el of candidates) {
		if (!el.textContent || !el.textContent.includes(text)) continue;
		let deeper = false;
		for (const child of el.children) {
			if (child.textContent && child.textContent.includes(text)) { deeper = true; break; }
		}
		if (deeper) continue;
		const style = window.getComputedStyle(el);
		if (style.visibility === 'hidden' || style.display === 'none') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}
	return false;
}`

// roleSelectors approximates implicit ARIA roles with CSS.
var roleSelectors = map[string]string{
	"button":  `button, [role="button"], input[type="submit"], input[type="button"]`,
	"link":    `a[href], [role="link"]`,
	"heading": `h1, h2, h3, h4, h5, h6, [role="heading"]`,
	"dialog":  `dialog, [role="dialog"]`,
}

func roleSelector(role string) string {
	if sel, ok := roleSelectors[role]; ok {
		return sel
	}
	return fmt.Sprintf(`[role=%q]`, role)
}

// rodPattern converts a Playwright-style glob to a Rod hijack pattern.
// Rod treats a single '*' as matching any run of characters.
func rodPattern(pattern string) string {
	for strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**", "*")
	}
	return pattern
}

func (p *rodPage) Goto(ctx context.Context, url string) error {
	page := p.page.Timeout(timeoutFrom(ctx, p.timeout))
	defer page.CancelTimeout()

	wait := page.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for load of %s: %w", url, err)
	}
	wait()
	return nil
}

func (p *rodPage) Title() (string, error) {
	res, err := p.page.Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return res.Value.Str(), nil
}

func (p *rodPage) TextVisible(text string) (bool, error) {
	res, err := p.page.Eval(textVisibleJS, text)
	if err != nil {
		return false, fmt.Errorf("failed to check text %q: %w", text, err)
	}
	return res.Value.Bool(), nil
}

func (p *rodPage) ClickRole(role, name string) error {
	pattern := `^\s*` + regexp.QuoteMeta(name) + `\s*$`
	el, err := p.page.Timeout(p.timeout).ElementR(roleSelector(role), pattern)
	if err != nil {
		return fmt.Errorf("no %s named %q: %w", role, name, err)
	}
	return el.CancelTimeout().Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) ClickFirst(selector string) error {
	el, err := p.page.Timeout(p.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("no element matches %q: %w", selector, err)
	}
	return el.CancelTimeout().Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) WaitVisible(selector string, timeout time.Duration) error {
	page := p.page.Timeout(timeout)
	defer page.CancelTimeout()

	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("no element matches %q: %w", selector, err)
	}
	return el.WaitVisible()
}

func (p *rodPage) Fill(selector, value string) error {
	el, err := p.page.Timeout(p.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("no element matches %q: %w", selector, err)
	}
	el = el.CancelTimeout()
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}

func (p *rodPage) OnDialog(fn func(message string)) {
	page := p.events
	wait := page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		fn(e.Message)
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
	})
	go wait()
}

func (p *rodPage) Route(pattern string, h RouteHandler) error {
	router := p.events.HijackRequests()
	err := router.Add(rodPattern(pattern), "", func(ctx *rod.Hijack) {
		captured := CapturedRequest{
			Method: ctx.Request.Method(),
			URL:    ctx.Request.URL().String(),
		}
		if body := ctx.Request.Body(); body != "" {
			var decoded map[string]any
			if json.Unmarshal([]byte(body), &decoded) == nil {
				captured.Body = decoded
			}
		}

		resp := h(captured)
		ctx.Response.Payload().ResponseCode = resp.Status
		ctx.Response.SetHeader("Content-Type", resp.ContentType)
		ctx.Response.SetBody(resp.Body)
	})
	if err != nil {
		return fmt.Errorf("failed to route %q: %w", pattern, err)
	}
	go router.Run()

	p.mu.Lock()
	p.routers = append(p.routers, router)
	p.mu.Unlock()
	return nil
}

// stopEvents ends the router and dialog goroutines started for this page.
func (p *rodPage) stopEvents() {
	p.mu.Lock()
	routers := p.routers
	p.routers = nil
	p.mu.Unlock()

	for _, r := range routers {
		_ = r.Stop()
	}
	p.cancel()
}

func (p *rodPage) Close() error {
	p.stopEvents()
	if err := p.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}
