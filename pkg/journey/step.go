package journey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
)

type step struct {
	ctx     context.Context
	page    browser.Page
	opts    Options
	journey string
}

func (s *step) fail(name, detail string, err error) error {
	return &AssertionError{Journey: s.journey, Step: name, Detail: detail, Err: err}
}

func (s *step) open() error {
	if err := s.page.Goto(s.ctx, s.opts.BaseURL); err != nil {
		return s.fail("open "+s.opts.BaseURL, "", err)
	}
	return nil
}

func (s *step) visible(text string) error {
	ok, err := s.page.TextVisible(text)
	if err != nil {
		return s.fail(fmt.Sprintf("find %q", text), "", err)
	}
	if !ok {
		return s.fail(fmt.Sprintf("find %q", text), "not visible", nil)
	}
	return nil
}

// submitContact fills the contact form, sends it and waits for the alert.
func (s *step) submitContact() error {
	fields := []struct{ selector, value string }{
		{NameInputSelector, ContactSubmission.Name},
		{EmailInputSelector, ContactSubmission.Email},
		{MessageInputSelector, ContactSubmission.Message},
	}
	for _, f := range fields {
		if err := s.page.Fill(f.selector, f.value); err != nil {
			return s.fail("fill "+f.selector, "", err)
		}
	}

	dialogs := make(chan string, 4)
	s.page.OnDialog(func(message string) {
		select {
		case dialogs <- message:
		default:
		}
	})

	if err := s.page.ClickRole("button", SendButton); err != nil {
		return s.fail("click "+SendButton, "", err)
	}

	select {
	case msg := <-dialogs:
		if !strings.Contains(msg, ThanksText) {
			return s.fail("alert", fmt.Sprintf("got %q, want contains %q", msg, ThanksText), nil)
		}
		return nil
	case <-time.After(s.opts.WaitTimeout):
		return s.fail("alert", fmt.Sprintf("no dialog within %s", s.opts.WaitTimeout), nil)
	case <-s.ctx.Done():
		return s.fail("alert", "cancelled", s.ctx.Err())
	}
}
