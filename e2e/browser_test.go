//go:build e2e

package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/portfolio-qa/portfolio-e2e/internal/config"
	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
	"github.com/portfolio-qa/portfolio-e2e/pkg/journey"
)

// TestCDP_Smoke verifies the Rod driver end to end:
// 1. Chromium launches headless over CDP
// 2. The page loads and the title names the owner
// 3. The title and hero journeys pass through the Rod Page adapter
//
// This is a smoke test of the second driver, not of the page.
func TestCDP_Smoke(t *testing.T) {
	if suiteCfg.Browser != config.Chromium {
		t.Skipf("CDP driver is Chromium only, BROWSER=%s", suiteCfg.Browser)
	}

	client, err := browser.NewCDPClient(browser.CDPConfigFrom(suiteCfg))
	if err != nil {
		t.Fatalf("failed to create browser: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			t.Errorf("browser close error: %v", err)
		}
	}()

	t.Logf("Navigating to %s", suiteCfg.BaseURL)
	page, err := client.Navigate(suiteCfg.BaseURL)
	if err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}

	if err := client.WaitStable(); err != nil {
		t.Fatalf("page not stable: %v", err)
	}

	title := page.MustElement("title").MustText()
	if !strings.Contains(title, "Josh") {
		t.Errorf("unexpected page title: got %q, want contains 'Josh'", title)
	}

	hasFetch, err := client.Eval(`() => typeof fetch === 'function'`)
	if err != nil {
		t.Fatalf("failed to check fetch: %v", err)
	}
	if hasFetch != true {
		t.Error("fetch not available in browser")
	}

	opts := journey.Options{BaseURL: suiteCfg.BaseURL, WaitTimeout: suiteCfg.WaitTimeout}
	for _, name := range []string{"homepage-title", "hero-headline"} {
		t.Run(name, func(t *testing.T) {
			session, err := client.OpenSession(name)
			if err != nil {
				t.Fatalf("failed to open page: %v", err)
			}
			defer session.Close()

			j, _ := journey.ByName(name)
			if err := j.Run(context.Background(), session.Page(), opts); err != nil {
				t.Fatal(err)
			}
		})
	}
}
