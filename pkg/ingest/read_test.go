package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-qa/portfolio-e2e/internal/logging"
)

type failingReader struct{}

func (failingReader) Get(context.Context, string) ([]byte, string, error) {
	return nil, "", errors.New("disk gone")
}

func (failingReader) Keys(context.Context, string) ([]string, error) {
	return nil, errors.New("disk gone")
}

func TestReadHandlerRoundTrip(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	rec := send(newHandler(store, nil), http.MethodPost, EventsPath, "Bearer "+token, goodEvent)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotNil(t, accepted.StorageKey)
	key := *accepted.StorageKey

	read := NewReadHandler(token, store, logging.Null())

	rec = send(read, http.MethodGet, StoredPath, "Bearer "+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list KeyList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.True(t, list.OK)
	assert.Equal(t, []string{key}, list.Keys)

	rec = send(read, http.MethodGet, StoredPath+"?prefix=nope/", "Bearer "+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"keys":[]}`, rec.Body.String())

	rec = send(read, http.MethodGet, StoredPath+"?key="+url.QueryEscape(key), "Bearer "+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, NDJSONContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var stored map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "42", stored["event_id"])
	assert.Equal(t, Timestamp(fixedNow), stored["ingested_at"])
}

func TestReadHandlerRejections(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	tests := []struct {
		name   string
		h      *ReadHandler
		method string
		target string
		auth   string
		status int
		errMsg string
	}{
		{"wrong method", NewReadHandler(token, store, logging.Null()), http.MethodPost, StoredPath, "Bearer " + token, http.StatusMethodNotAllowed, "Method not allowed"},
		{"no token configured", NewReadHandler("", store, logging.Null()), http.MethodGet, StoredPath, "Bearer " + token, http.StatusInternalServerError, "Server not configured"},
		{"missing auth", NewReadHandler(token, store, logging.Null()), http.MethodGet, StoredPath, "", http.StatusUnauthorized, "Unauthorized"},
		{"bad auth", NewReadHandler(token, store, logging.Null()), http.MethodGet, StoredPath, "Bearer nope", http.StatusUnauthorized, "Unauthorized"},
		{"unknown key", NewReadHandler(token, store, logging.Null()), http.MethodGet, StoredPath + "?key=missing", "Bearer " + token, http.StatusNotFound, "Not found"},
		{"list fails", NewReadHandler(token, failingReader{}, logging.Null()), http.MethodGet, StoredPath, "Bearer " + token, http.StatusInternalServerError, "Failed to read events"},
		{"get fails", NewReadHandler(token, failingReader{}, logging.Null()), http.MethodGet, StoredPath + "?key=k", "Bearer " + token, http.StatusInternalServerError, "Failed to read events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(tt.h, tt.method, tt.target, tt.auth, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"ok":false,"error":"`+tt.errMsg+`"}`, rec.Body.String())
		})
	}
}
