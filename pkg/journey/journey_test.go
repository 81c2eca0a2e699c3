package journey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
)

func testOptions() Options {
	return Options{BaseURL: "http://fixture", WaitTimeout: 50 * time.Millisecond}
}

func TestNamesOrder(t *testing.T) {
	assert.Equal(t, []string{
		"homepage-title",
		"hero-headline",
		"automation-modal",
		"project-demo-modal",
		"contact-form",
		"contact-form-mocked",
	}, Names())
	assert.Len(t, All(), len(Names()))
}

func TestByName(t *testing.T) {
	j, ok := ByName("hero-headline")
	require.True(t, ok)
	assert.Equal(t, "hero-headline", j.Name)

	_, ok = ByName("checkout")
	assert.False(t, ok)
}

func TestJourneysPassOnPortfolio(t *testing.T) {
	for _, j := range All() {
		t.Run(j.Name, func(t *testing.T) {
			page := newPortfolioPage()
			err := j.Run(context.Background(), page, testOptions())
			require.NoError(t, err)
			assert.Equal(t, []string{"http://fixture"}, page.visited)
		})
	}
}

func TestHomepageTitleMismatch(t *testing.T) {
	page := newPortfolioPage()
	page.title = "Portfolio"

	j, _ := ByName("homepage-title")
	err := j.Run(context.Background(), page, testOptions())

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "homepage-title", ae.Journey)
	assert.Equal(t, "title", ae.Step)
	assert.Contains(t, err.Error(), `"Portfolio"`)
}

func TestHeroHeadlineHidden(t *testing.T) {
	page := newPortfolioPage()
	page.texts["Not the User."] = false

	j, _ := ByName("hero-headline")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.True(t, IsAssertion(err))
	assert.Contains(t, err.Error(), "Not the User.")
}

func TestAutomationModalNeverOpens(t *testing.T) {
	page := newPortfolioPage()
	page.buttons[AutomationButton] = func() {}

	j, _ := ByName("automation-modal")
	err := j.Run(context.Background(), page, testOptions())

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "wait for demo modal", ae.Step)
}

func TestProjectDemoMissingCard(t *testing.T) {
	page := newPortfolioPage()
	delete(page.clicks, ProjectDemoSelector)

	j, _ := ByName("project-demo-modal")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "click project demo")
}

func TestGotoErrorIsWrapped(t *testing.T) {
	page := newPortfolioPage()
	boom := errors.New("connection refused")
	page.gotoErr = boom

	j, _ := ByName("homepage-title")
	err := j.Run(context.Background(), page, testOptions())
	assert.ErrorIs(t, err, boom)
}

func TestContactFormNoDialog(t *testing.T) {
	page := newPortfolioPage()
	page.sendHook = func() {}

	j, _ := ByName("contact-form")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dialog within")
}

func TestContactFormWrongAlert(t *testing.T) {
	page := newPortfolioPage()
	page.sendHook = func() { page.alert("Sorry, something went wrong.") }

	j, _ := ByName("contact-form")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ThanksText)
}

func TestContactFormCancelled(t *testing.T) {
	page := newPortfolioPage()
	page.sendHook = func() {}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j, _ := ByName("contact-form")
	err := j.Run(ctx, page, Options{BaseURL: "http://fixture", WaitTimeout: time.Minute})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContactFormMockedRoutesBeforeNavigation(t *testing.T) {
	page := newPortfolioPage()

	j, _ := ByName("contact-form-mocked")
	require.NoError(t, j.Run(context.Background(), page, testOptions()))

	_, routed := page.routes[ContactRoutePattern]
	assert.True(t, routed)
}

func TestContactFormMockedFieldMismatch(t *testing.T) {
	page := newPortfolioPage()
	page.sendHook = func() {
		h := page.routes[ContactRoutePattern]
		h(browser.CapturedRequest{
			Method: "POST",
			Body: map[string]any{
				"name":    ContactSubmission.Name,
				"email":   "someone@else.dev",
				"message": ContactSubmission.Message,
			},
		})
		page.alert("Thanks for reaching out!")
	}

	j, _ := ByName("contact-form-mocked")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `email = "someone@else.dev"`)
}

func TestContactFormMockedCountsPosts(t *testing.T) {
	page := newPortfolioPage()
	page.sendHook = func() {
		h := page.routes[ContactRoutePattern]
		h(browser.CapturedRequest{Method: "OPTIONS"})
		h(browser.CapturedRequest{Method: "POST", Body: map[string]any{}})
		h(browser.CapturedRequest{Method: "POST", Body: map[string]any{}})
		page.alert("Thanks for reaching out!")
	}

	j, _ := ByName("contact-form-mocked")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2 POST requests, want 1")
}

func TestContactFormMockedNonJSONBody(t *testing.T) {
	page := newPortfolioPage()
	page.sendHook = func() {
		page.routes[ContactRoutePattern](browser.CapturedRequest{Method: "POST"})
		page.alert("Thanks for reaching out!")
	}

	j, _ := ByName("contact-form-mocked")
	err := j.Run(context.Background(), page, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JSON object")
}

func TestRunDefaultsWaitTimeout(t *testing.T) {
	page := newPortfolioPage()
	j, _ := ByName("automation-modal")
	require.NoError(t, j.Run(context.Background(), page, Options{BaseURL: "http://fixture"}))
}
