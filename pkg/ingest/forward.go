package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SourceHeader identifies forwarded events to the downstream collector.
const SourceHeader = "ci-observability-ingest-worker"

// Forwarder relays events to a downstream collector.
type Forwarder struct {
	url    string
	token  string
	client *http.Client
}

// NewForwarder returns a forwarder posting to url. token is optional.
func NewForwarder(url, token string) *Forwarder {
	return &Forwarder{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Forward posts e as JSON. A non-2xx reply is an error.
func (f *Forwarder) Forward(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build downstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CI-Source", SourceHeader)
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downstream ingest failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("downstream ingest failed (%d): %s", resp.StatusCode, msg)
	}
	return nil
}
