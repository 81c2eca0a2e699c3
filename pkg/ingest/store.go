package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("ingest: event not found")

// Store persists encoded events under a key.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

const schema = `
CREATE TABLE IF NOT EXISTS ci_events (
	key          TEXT PRIMARY KEY,
	body         TEXT NOT NULL,
	content_type TEXT NOT NULL,
	stored_at    TEXT NOT NULL
);
`

// SQLiteStore keeps events in a SQLite table keyed by storage key.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put stores body under key, replacing any previous value.
func (s *SQLiteStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ci_events (key, body, content_type, stored_at) VALUES (?, ?, ?, ?)`,
		key, string(body), contentType, Timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Get returns the body and content type stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var body, contentType string
	err := s.db.QueryRowContext(ctx,
		`SELECT body, content_type FROM ci_events WHERE key = ?`, key,
	).Scan(&body, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(body), contentType, nil
}

// Keys lists stored keys with the given prefix in key order.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM ci_events WHERE substr(key, 1, length(?)) = ? ORDER BY key`, prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
