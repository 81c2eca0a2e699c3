package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NDJSONContentType is the content type of stored event lines.
const NDJSONContentType = "application/x-ndjson; charset=utf-8"

// Event is a CI event payload. Only event_name, repository and event_id are
// required; every other field is kept as sent.
type Event map[string]any

// Valid reports whether the required fields are non-empty strings.
func (e Event) Valid() bool {
	for _, k := range []string{"event_name", "repository", "event_id"} {
		s, ok := e[k].(string)
		if !ok || s == "" {
			return false
		}
	}
	return true
}

func (e Event) str(k string) string {
	s, _ := e[k].(string)
	return s
}

// WithIngestedAt returns a copy of e stamped with the receive time.
func (e Event) WithIngestedAt(ts string) Event {
	out := make(Event, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out["ingested_at"] = ts
	return out
}

// NDJSON encodes e as a single newline-terminated line.
func (e Event) NDJSON() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return append(b, '\n'), nil
}

var (
	unsafeRun = regexp.MustCompile(`[^a-z0-9._-]+`)
	dashRun   = regexp.MustCompile(`-+`)
)

// SanitizeSegment makes value safe for use as a storage key segment.
func SanitizeSegment(value, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = unsafeRun.ReplaceAllString(s, "-")
	s = dashRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}

// StorageKey builds the hour-partitioned key an event is stored under.
func StorageKey(e Event, receivedAt time.Time) string {
	t := receivedAt.UTC()
	return fmt.Sprintf("events/year=%04d/month=%02d/day=%02d/hour=%02d/repo=%s/event=%s/%s.ndjson",
		t.Year(), int(t.Month()), t.Day(), t.Hour(),
		SanitizeSegment(e.str("repository"), "repo"),
		SanitizeSegment(e.str("event_name"), "event"),
		SanitizeSegment(e.str("event_id"), uuid.NewString()),
	)
}

// Timestamp formats t like JavaScript's Date.toISOString.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
