package ingest

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/internal/httpx"
)

// StoredPath reads back what the events endpoint stored.
const StoredPath = "/api/ci-events/stored"

// Reader reads stored events back by key.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// KeyList is the body of a stored key listing.
type KeyList struct {
	OK   bool     `json:"ok"`
	Keys []string `json:"keys"`
}

// ReadHandler serves GET StoredPath behind the ingest token.
//
//	?key=<k>     returns the stored NDJSON body
//	?prefix=<p>  lists keys starting with p (all keys when empty)
type ReadHandler struct {
	token  string
	reader Reader
	log    logrus.FieldLogger
}

// NewReadHandler builds a read handler over reader.
func NewReadHandler(token string, reader Reader, log logrus.FieldLogger) *ReadHandler {
	return &ReadHandler{token: token, reader: reader, log: log}
}

func (h *ReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", map[string]string{"Allow": "GET"})
		return
	}
	if h.token == "" {
		httpx.WriteError(w, http.StatusInternalServerError, "Server not configured", nil)
		return
	}
	if !authorized(r, h.token) {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	q := r.URL.Query()
	if key := q.Get("key"); key != "" {
		h.get(w, r, key)
		return
	}

	keys, err := h.reader.Keys(r.Context(), q.Get("prefix"))
	if err != nil {
		h.log.WithError(err).Error("failed to list stored CI events")
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to read events", nil)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, KeyList{OK: true, Keys: keys}, nil)
}

func (h *ReadHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	body, contentType, err := h.reader.Get(r.Context(), key)
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "Not found", nil)
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("key", key).Error("failed to read stored CI event")
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to read events", nil)
		return
	}

	hdr := w.Header()
	for k, v := range httpx.SecurityHeaders {
		hdr.Set(k, v)
	}
	hdr.Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
