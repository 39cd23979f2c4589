// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history records every completion attempt (model, context size,
// outcome, latency) in a local SQLite database so `chatterm history` can
// show what happened and when.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatterm/internal/backend"
)

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome labels stored in the log.
const (
	OutcomeOK       = "ok"
	OutcomeHTTP     = "http_error"
	OutcomeUpstream = "remote_error"
	OutcomeEmpty    = "empty_response"
	OutcomeOther    = "error"
)

// Classify maps a completion error to its outcome label.
func Classify(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var be *backend.Error
	if errors.As(err, &be) {
		if be.Kind == backend.KindUpstream {
			return OutcomeUpstream
		}
		return OutcomeHTTP
	}
	if errors.Is(err, backend.ErrEmptyResponse) {
		return OutcomeEmpty
	}
	return OutcomeOther
}

// =============================================================================
// TYPES
// =============================================================================

// Entry is one recorded completion attempt.
type Entry struct {
	ID         int64
	CreatedAt  time.Time
	Model      string
	TurnCount  int
	Prompt     string // First line of the submitted user turn
	Outcome    string
	StatusCode int
	LatencyMS  int64
}

// Stats aggregates the log.
type Stats struct {
	Total     int64
	Succeeded int64
	Failed    int64
}

// =============================================================================
// STORE
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  INTEGER NOT NULL,
	model       TEXT NOT NULL,
	turn_count  INTEGER NOT NULL,
	prompt      TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	latency_ms  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// Store is the history database. Safe for concurrent use; SQLite access is
// serialized through a single connection.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".chatterm", "history.db")
	}
	return filepath.Join(home, ".chatterm", "history.db")
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite supports one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one entry. CreatedAt defaults to now when zero.
func (s *Store) Record(ctx context.Context, e Entry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (created_at, model, turn_count, prompt, outcome, status_code, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.UnixMilli(), e.Model, e.TurnCount, e.Prompt, e.Outcome, e.StatusCode, e.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, model, turn_count, prompt, outcome, status_code, latency_ms
		 FROM requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdMilli int64
		if err := rows.Scan(&e.ID, &createdMilli, &e.Model, &e.TurnCount, &e.Prompt, &e.Outcome, &e.StatusCode, &e.LatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMilli)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates success/failure counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		 FROM requests`, OutcomeOK).Scan(&st.Total, &st.Succeeded)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate history: %w", err)
	}
	st.Failed = st.Total - st.Succeeded
	return st, nil
}

// Clear empties the log.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM requests`)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
