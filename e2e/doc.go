//go:build e2e

// Package e2e provides end-to-end browser tests for the portfolio site.
//
// These tests are isolated from the standard test suite via build tags.
// They need Playwright's browsers (`go run github.com/playwright-community/playwright-go/cmd/playwright install --with-deps`)
// and, for the CDP smoke test, a Chrome that Rod can download or find.
//
// Running E2E tests against a running site:
//
//	BASE_URL=http://localhost:4173 BROWSER=firefox go test -tags=e2e ./e2e/...
//
// Running them against the in-process fixture site:
//
//	FIXTURE=true go test -tags=e2e ./e2e/...
//
// Running all tests except E2E:
//
//	go test ./...
//
// Test isolation:
// Each test launches its own browser and context, and writes its trace to
// TRACE_DIR/<journey>.zip when it finishes.
package e2e
