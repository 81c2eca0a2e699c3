// Package ingest accepts CI observability events, stores them as
// hour-partitioned NDJSON and optionally relays them downstream.
package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/internal/httpx"
)

const (
	EventsPath  = "/api/ci-events"
	HealthPath  = "/healthz"
	ServiceName = "ci-observability-ingest"

	maxBodyBytes = 1 << 20
)

var events = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "portfolio",
	Name:      "ci_events_total",
	Help:      "CI events received by outcome.",
}, []string{"outcome"})

// Config configures the ingest endpoint.
type Config struct {
	Token           string `envconfig:"INGEST_TOKEN"`
	DownstreamURL   string `envconfig:"DOWNSTREAM_INGEST_URL"`
	DownstreamToken string `envconfig:"DOWNSTREAM_INGEST_TOKEN"`
	// DBPath enables SQLite storage when set.
	DBPath string `envconfig:"CI_EVENTS_DB"`
}

// LoadConfig reads the ingest settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read ingest config: %w", err)
	}
	return cfg, nil
}

// Response is the body of an accepted event.
type Response struct {
	OK         bool    `json:"ok"`
	Stored     bool    `json:"stored"`
	StorageKey *string `json:"storage_key"`
	Forwarded  bool    `json:"forwarded"`
}

// Handler serves the health and events endpoints.
type Handler struct {
	token     string
	store     Store      // nil disables storage
	forwarder *Forwarder // nil disables forwarding
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewHandler builds a handler. store and forwarder may be nil.
func NewHandler(token string, store Store, forwarder *Forwarder, log logrus.FieldLogger) *Handler {
	return &Handler{
		token:     token,
		store:     store,
		forwarder: forwarder,
		log:       log,
		now:       time.Now,
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func authorized(r *http.Request, token string) bool {
	provided := bearerToken(r)
	return provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == HealthPath {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": ServiceName}, nil)
		return
	}

	if r.URL.Path != EventsPath {
		httpx.WriteError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", map[string]string{"Allow": "POST"})
		return
	}

	if h.token == "" {
		httpx.WriteError(w, http.StatusInternalServerError, "Server not configured", nil)
		return
	}

	if !authorized(r, h.token) {
		h.count("unauthorized")
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var payload any
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(data, &payload)
	}
	if err != nil {
		h.count("invalid")
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	obj, _ := payload.(map[string]any)
	event := Event(obj)
	if obj == nil || !event.Valid() {
		h.count("invalid")
		httpx.WriteError(w, http.StatusBadRequest, "Invalid event payload shape", nil)
		return
	}

	received := h.now()
	resp, err := h.process(r.Context(), event, received)
	if err != nil {
		h.log.WithError(err).WithField("event_id", event.str("event_id")).Error("failed to process CI event")
		h.count("failed")
		httpx.WriteError(w, http.StatusBadGateway, "Failed to process event", nil)
		return
	}

	h.count("accepted")
	httpx.WriteJSON(w, http.StatusAccepted, resp, nil)
}

func (h *Handler) process(ctx context.Context, event Event, received time.Time) (Response, error) {
	stamped := event.WithIngestedAt(Timestamp(received))
	resp := Response{OK: true}

	if h.store != nil {
		key := StorageKey(event, received)
		line, err := stamped.NDJSON()
		if err != nil {
			return Response{}, err
		}
		if err := h.store.Put(ctx, key, line, NDJSONContentType); err != nil {
			return Response{}, err
		}
		resp.Stored = true
		resp.StorageKey = &key
	}

	if h.forwarder != nil {
		if err := h.forwarder.Forward(ctx, stamped); err != nil {
			return Response{}, err
		}
		resp.Forwarded = true
	}
	return resp, nil
}

func (h *Handler) count(outcome string) {
	events.WithLabelValues(outcome).Inc()
}
