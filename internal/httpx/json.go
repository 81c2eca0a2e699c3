// Package httpx holds the JSON response helpers shared by the API handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// SecurityHeaders are set on every API response.
var SecurityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
}

// Error is the body of every failed API response.
type Error struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// WriteJSON writes payload with the security headers and any extra headers.
func WriteJSON(w http.ResponseWriter, status int, payload any, extra map[string]string) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	for k, v := range SecurityHeaders {
		h.Set(k, v)
	}
	for k, v := range extra {
		h.Set(k, v)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes {"ok":false,"error":msg}.
func WriteError(w http.ResponseWriter, status int, msg string, extra map[string]string) {
	WriteJSON(w, status, Error{OK: false, Error: msg}, extra)
}
