// Package browser launches browsers and exposes the small page surface the
// portfolio journeys are written against.
//
// Two drivers implement Page:
//   - Playwright (Launcher), for Chromium, Firefox and WebKit with tracing
//   - Rod (CDPClient), for Chromium over the DevTools protocol directly
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNoPage is returned when an operation needs an open page.
var ErrNoPage = errors.New("no page open")

// CapturedRequest is an intercepted request as seen by a RouteHandler.
type CapturedRequest struct {
	Method string
	URL    string
	// Body is the decoded JSON body, nil when the body is empty or not JSON.
	Body map[string]any
}

// MockResponse is the canned reply fulfilling an intercepted request.
type MockResponse struct {
	Status      int
	ContentType string
	Body        string
}

// JSONResponse returns a 200 application/json reply.
func JSONResponse(body string) MockResponse {
	return MockResponse{Status: 200, ContentType: "application/json", Body: body}
}

// RouteHandler answers an intercepted request without touching the network.
type RouteHandler func(req CapturedRequest) MockResponse

// Page is the interaction surface used by journeys.
type Page interface {
	// Goto navigates and waits until the network is idle.
	Goto(ctx context.Context, url string) error
	Title() (string, error)
	// TextVisible reports whether the first element containing text is visible.
	TextVisible(text string) (bool, error)
	// ClickRole clicks the element with the given ARIA role and accessible name.
	ClickRole(role, name string) error
	// ClickFirst clicks the first element matching a CSS selector.
	ClickFirst(selector string) error
	WaitVisible(selector string, timeout time.Duration) error
	Fill(selector, value string) error
	// OnDialog registers fn for every JavaScript dialog. Dialogs are accepted
	// after fn returns.
	OnDialog(fn func(message string))
	// Route intercepts requests whose URL matches a glob pattern.
	Route(pattern string, h RouteHandler) error
	Close() error
}

// Session owns one browser, one context and one page for a single journey.
type Session interface {
	Page() Page
	Close() error
}

func timeoutFrom(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return fallback
}
