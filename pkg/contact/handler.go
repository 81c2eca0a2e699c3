// Package contact implements the portfolio contact endpoint: CORS, input
// sanitizing, a honeypot field, validation, and delivery through a Mailer.
package contact

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/internal/httpx"
)

// Path is where the endpoint is served.
const Path = "/api/contact"

const maxBodyBytes = 64 << 10

var submissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "portfolio",
	Name:      "contact_submissions_total",
	Help:      "Contact form submissions by outcome.",
}, []string{"outcome"})

// Handler serves the contact endpoint.
type Handler struct {
	cfg    Config
	mailer Mailer
	log    logrus.FieldLogger

	mu      sync.RWMutex
	origins []string
}

// NewHandler returns a handler delivering accepted submissions via mailer.
func NewHandler(cfg Config, mailer Mailer, log logrus.FieldLogger) *Handler {
	return &Handler{
		cfg:     cfg,
		mailer:  mailer,
		log:     log,
		origins: slices.Clone(cfg.AllowedOrigins),
	}
}

// AllowOrigin adds origin to the allow-list.
func (h *Handler) AllowOrigin(origin string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if origin != "" && !slices.Contains(h.origins, origin) {
		h.origins = append(h.origins, origin)
	}
}

func (h *Handler) allowed() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.origins)
}

// CORSHeaders echoes an allowed origin, or falls back to the first allowed
// origin, or "*" when none are configured.
func CORSHeaders(origin string, allowed []string) map[string]string {
	allow := "*"
	switch {
	case slices.Contains(allowed, origin):
		allow = origin
	case len(allowed) > 0:
		allow = allowed[0]
	}
	return map[string]string{
		"Access-Control-Allow-Origin":  allow,
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Max-Age":       "86400",
		"Vary":                         "Origin",
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := h.allowed()
	cors := CORSHeaders(origin, allowed)

	if r.URL.Path != Path {
		httpx.WriteError(w, http.StatusNotFound, "Not found", cors)
		return
	}

	if r.Method == http.MethodOptions {
		for k, v := range cors {
			w.Header().Set(k, v)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", cors)
		return
	}

	if !slices.Contains(allowed, origin) {
		h.count("forbidden")
		httpx.WriteError(w, http.StatusForbidden, "Origin not allowed", cors)
		return
	}

	raw, err := decodeBody(r.Body)
	if err != nil {
		h.count("invalid")
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body", cors)
		return
	}

	sub := NewSubmission(raw)
	if sub.IsSpam() {
		h.count("honeypot")
		httpx.WriteJSON(w, http.StatusOK, okResponse, cors)
		return
	}

	if msg := sub.Validate(); msg != "" {
		h.count("invalid")
		httpx.WriteError(w, http.StatusBadRequest, msg, cors)
		return
	}

	email := BuildEmail(sub, h.cfg.From, h.cfg.To)
	if err := h.mailer.Send(r.Context(), email); err != nil {
		if errors.Is(err, ErrProviderRejected) {
			h.count("rejected")
			httpx.WriteError(w, http.StatusBadGateway, "Email provider rejected request", cors)
			return
		}
		h.log.WithError(err).Error("worker contact error")
		h.count("error")
		httpx.WriteError(w, http.StatusInternalServerError, "Server error", cors)
		return
	}

	h.count("sent")
	httpx.WriteJSON(w, http.StatusOK, okResponse, cors)
}

var okResponse = struct {
	OK bool `json:"ok"`
}{OK: true}

func (h *Handler) count(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
	h.log.WithField("outcome", outcome).Debug("contact submission")
}

// decodeBody reads a JSON document. Anything that is not an object decodes
// to an empty map so that validation, not parsing, rejects it.
func decodeBody(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.New("empty body")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
