// Package audit keeps an append-only log of understand requests: who asked,
// what they asked for, what the gatekeeper decided, and how the request
// ended. Recording is best-effort; a failed insert never fails the request.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one understand request as recorded.
type Entry struct {
	ID              int64
	At              time.Time
	Caller          string
	Intent          string
	EffectiveIntent string
	Admitted        bool
	Outcome         string // ok | invalid_request | rate_limited | not_a_label | misconfigured | upstream_error | internal_error
	HTTPStatus      int
	Model           string
	ElapsedMS       int64
}

// Store is the SQLite-backed audit log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS understand_requests (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	at               TEXT    NOT NULL,
	caller           TEXT    NOT NULL,
	intent           TEXT    NOT NULL,
	effective_intent TEXT    NOT NULL,
	admitted         INTEGER NOT NULL,
	outcome          TEXT    NOT NULL,
	http_status      INTEGER NOT NULL,
	model            TEXT    NOT NULL,
	elapsed_ms       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_understand_requests_at ON understand_requests (at)`

// Open opens (or creates) the audit database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	logger.Info("audit.store_ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO understand_requests
		 (at, caller, intent, effective_intent, admitted, outcome, http_status, model, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UTC().Format(time.RFC3339Nano),
		e.Caller, e.Intent, e.EffectiveIntent,
		boolToInt(e.Admitted), e.Outcome, e.HTTPStatus, e.Model, e.ElapsedMS,
	)
	return err
}

// List returns entries in the inclusive [from, to] window, oldest first.
// Nil bounds are open-ended.
func (s *Store) List(ctx context.Context, from, to *time.Time) ([]Entry, error) {
	q := `SELECT id, at, caller, intent, effective_intent, admitted, outcome, http_status, model, elapsed_ms
	      FROM understand_requests`
	var args []any
	switch {
	case from != nil && to != nil:
		q += ` WHERE at >= ? AND at <= ?`
		args = append(args, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
	case from != nil:
		q += ` WHERE at >= ?`
		args = append(args, from.UTC().Format(time.RFC3339Nano))
	case to != nil:
		q += ` WHERE at <= ?`
		args = append(args, to.UTC().Format(time.RFC3339Nano))
	}
	q += ` ORDER BY at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("audit.rows_close_error", "error", cerr)
		}
	}()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		var admitted int
		if err := rows.Scan(&e.ID, &at, &e.Caller, &e.Intent, &e.EffectiveIntent,
			&admitted, &e.Outcome, &e.HTTPStatus, &e.Model, &e.ElapsedMS); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			e.At = t
		}
		e.Admitted = admitted != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
