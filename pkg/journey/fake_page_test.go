package journey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
)

// fakePage models the portfolio page closely enough to drive every journey.
type fakePage struct {
	mu       sync.Mutex
	title    string
	texts    map[string]bool
	visible  map[string]bool
	buttons  map[string]func()
	clicks   map[string]func()
	fields   map[string]string
	dialogs  []func(string)
	routes   map[string]browser.RouteHandler
	visited  []string
	gotoErr  error
	closed   bool
	sendHook func() // replaces the default Send Message behaviour when set
}

func newPortfolioPage() *fakePage {
	p := &fakePage{
		title: "Josh | QA Automation Engineer",
		texts: map[string]bool{
			"Break the Code.":         true,
			"Not the User.":           true,
			"Playwright + Pytest E2E": false,
			"Project Demo":            false,
		},
		visible: map[string]bool{},
		fields:  map[string]string{},
		routes:  map[string]browser.RouteHandler{},
	}
	p.buttons = map[string]func(){
		AutomationButton: func() {
			p.visible[DemoModalSelector] = true
			p.texts["Playwright + Pytest E2E"] = true
		},
		SendButton: p.send,
	}
	p.clicks = map[string]func(){
		ProjectDemoSelector: func() {
			p.visible[ProjectDemoModalSelector] = true
			p.texts["Project Demo"] = true
		},
	}
	return p
}

// send mimics the page script: POST the form, alert on the reply.
func (p *fakePage) send() {
	if p.sendHook != nil {
		p.sendHook()
		return
	}
	ok := true
	if h, routed := p.routes[ContactRoutePattern]; routed {
		resp := h(browser.CapturedRequest{
			Method: "POST",
			URL:    "http://fixture/api/contact",
			Body: map[string]any{
				"name":    p.fields[NameInputSelector],
				"email":   p.fields[EmailInputSelector],
				"message": p.fields[MessageInputSelector],
			},
		})
		var reply struct {
			OK bool `json:"ok"`
		}
		ok = json.Unmarshal([]byte(resp.Body), &reply) == nil && reply.OK
	}
	if ok {
		p.alert("Thanks for reaching out! I'll reply within two business days.")
	} else {
		p.alert("Sorry, something went wrong.")
	}
}

func (p *fakePage) alert(msg string) {
	for _, fn := range p.dialogs {
		fn(msg)
	}
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	return p.gotoErr
}

func (p *fakePage) Title() (string, error) { return p.title, nil }

func (p *fakePage) TextVisible(text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.texts[text], nil
}

func (p *fakePage) ClickRole(role, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn, ok := p.buttons[name]
	if role != "button" || !ok {
		return fmt.Errorf("no %s named %q", role, name)
	}
	fn()
	return nil
}

func (p *fakePage) ClickFirst(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn, ok := p.clicks[selector]
	if !ok {
		return fmt.Errorf("no element matches %q", selector)
	}
	fn()
	return nil
}

func (p *fakePage) WaitVisible(selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible[selector] {
		return errors.New("timeout")
	}
	return nil
}

func (p *fakePage) Fill(selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fields[selector] = value
	return nil
}

func (p *fakePage) OnDialog(fn func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, fn)
}

func (p *fakePage) Route(pattern string, h browser.RouteHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[pattern] = h
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeSession struct {
	page     *fakePage
	closeErr error
	closed   bool
}

func (s *fakeSession) Page() browser.Page { return s.page }

func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}
