// Package journey holds the portfolio user journeys. Each journey is linear:
// navigate, interact, assert. Journeys never share a page.
package journey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
)

// Selectors and copy the journeys rely on.
const (
	DemoModalSelector        = "#demo-modal:not(.hidden)"
	ProjectDemoSelector      = ".project-demo"
	ProjectDemoModalSelector = "#project-demo-modal:not(.hidden)"
	NameInputSelector        = `input[placeholder="John Doe"]`
	EmailInputSelector       = `input[type="email"]`
	MessageInputSelector     = `textarea[placeholder="Tell me about your project..."]`
	ContactRoutePattern      = "**/api/contact"

	AutomationButton = "Crossbrowser E2E"
	SendButton       = "Send Message"
	ThanksText       = "Thanks for reaching out"
)

// ContactSubmission is what the contact journeys type into the form.
var ContactSubmission = struct {
	Name, Email, Message string
}{
	Name:    "QA Test",
	Email:   "qa@test.dev",
	Message: "Hello from QA",
}

// Options are the per-run inputs shared by every journey.
type Options struct {
	BaseURL     string
	WaitTimeout time.Duration
}

// DefaultOptions targets the local preview server.
func DefaultOptions() Options {
	return Options{
		BaseURL:     "http://localhost:4173",
		WaitTimeout: 5 * time.Second,
	}
}

// AssertionError reports the first failed step of a journey.
type AssertionError struct {
	Journey string
	Step    string
	Detail  string
	Err     error
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Journey, e.Step, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssertionError) Unwrap() error { return e.Err }

// IsAssertion reports whether err came from a failed journey step.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// Journey is one named user journey.
type Journey struct {
	Name        string
	Description string
	run         func(s *step) error
}

// Run executes the journey on page.
func (j Journey) Run(ctx context.Context, page browser.Page, opts Options) error {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultOptions().WaitTimeout
	}
	return j.run(&step{ctx: ctx, page: page, opts: opts, journey: j.Name})
}

var journeys = []Journey{
	{
		Name:        "homepage-title",
		Description: "page title names the owner",
		run: func(s *step) error {
			if err := s.open(); err != nil {
				return err
			}
			title, err := s.page.Title()
			if err != nil {
				return s.fail("read title", "", err)
			}
			if !strings.Contains(title, "Josh") {
				return s.fail("title", fmt.Sprintf("got %q, want contains %q", title, "Josh"), nil)
			}
			return nil
		},
	},
	{
		Name:        "hero-headline",
		Description: "both hero lines are visible",
		run: func(s *step) error {
			if err := s.open(); err != nil {
				return err
			}
			if err := s.visible("Break the Code."); err != nil {
				return err
			}
			return s.visible("Not the User.")
		},
	},
	{
		Name:        "automation-modal",
		Description: "automation demo button opens the QA dashboard modal",
		run: func(s *step) error {
			if err := s.open(); err != nil {
				return err
			}
			if err := s.page.ClickRole("button", AutomationButton); err != nil {
				return s.fail("click "+AutomationButton, "", err)
			}
			if err := s.page.WaitVisible(DemoModalSelector, s.opts.WaitTimeout); err != nil {
				return s.fail("wait for demo modal", DemoModalSelector, err)
			}
			return s.visible("Playwright + Pytest E2E")
		},
	},
	{
		Name:        "project-demo-modal",
		Description: "first project card opens the project demo modal",
		run: func(s *step) error {
			if err := s.open(); err != nil {
				return err
			}
			if err := s.page.ClickFirst(ProjectDemoSelector); err != nil {
				return s.fail("click project demo", ProjectDemoSelector, err)
			}
			if err := s.page.WaitVisible(ProjectDemoModalSelector, s.opts.WaitTimeout); err != nil {
				return s.fail("wait for project demo modal", ProjectDemoModalSelector, err)
			}
			return s.visible("Project Demo")
		},
	},
	{
		Name:        "contact-form",
		Description: "contact form submission shows the thank-you alert",
		run: func(s *step) error {
			if err := s.open(); err != nil {
				return err
			}
			return s.submitContact()
		},
	},
	{
		Name:        "contact-form-mocked",
		Description: "contact form posts the typed fields to the contact API",
		run: func(s *step) error {
			var (
				mu       sync.Mutex
				captured []browser.CapturedRequest
			)
			err := s.page.Route(ContactRoutePattern, func(req browser.CapturedRequest) browser.MockResponse {
				mu.Lock()
				captured = append(captured, req)
				mu.Unlock()
				return browser.JSONResponse(`{"ok":true}`)
			})
			if err != nil {
				return s.fail("route "+ContactRoutePattern, "", err)
			}
			if err := s.open(); err != nil {
				return err
			}
			if err := s.submitContact(); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			return checkContactRequests(s, captured)
		},
	},
}

// All returns every journey in run order.
func All() []Journey {
	out := make([]Journey, len(journeys))
	copy(out, journeys)
	return out
}

// Names returns the journey names in run order.
func Names() []string {
	names := make([]string, len(journeys))
	for i, j := range journeys {
		names[i] = j.Name
	}
	return names
}

// ByName looks a journey up.
func ByName(name string) (Journey, bool) {
	for _, j := range journeys {
		if j.Name == name {
			return j, true
		}
	}
	return Journey{}, false
}

func checkContactRequests(s *step, captured []browser.CapturedRequest) error {
	var posts []browser.CapturedRequest
	for _, req := range captured {
		if req.Method == "POST" {
			posts = append(posts, req)
		}
	}
	if len(posts) != 1 {
		return s.fail("contact request", fmt.Sprintf("got %d POST requests, want 1", len(posts)), nil)
	}

	body := posts[0].Body
	if body == nil {
		return s.fail("contact request", "body is not a JSON object", nil)
	}
	want := map[string]string{
		"name":    ContactSubmission.Name,
		"email":   ContactSubmission.Email,
		"message": ContactSubmission.Message,
	}
	for field, value := range want {
		got, _ := body[field].(string)
		if got != value {
			return s.fail("contact request", fmt.Sprintf("%s = %q, want %q", field, got, value), nil)
		}
	}
	return nil
}
