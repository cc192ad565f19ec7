// Package sqlitestore provides a SQLite-backed audit sink.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fxsml/mediator/behavior"
)

// Store persists audit events in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Emit implements behavior.AuditSink.
func (s *Store) Emit(ctx context.Context, e behavior.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("storage is not configured")
	}
	if strings.TrimSpace(e.Request) == "" {
		return errors.New("request is required")
	}
	if strings.TrimSpace(e.Outcome) == "" {
		return errors.New("outcome is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO audit_events (
	request, kind, correlation_id, trace_id, span_id, outcome, error, duration_micros, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		e.Request,
		e.Kind,
		e.CorrelationID,
		e.TraceID,
		e.SpanID,
		e.Outcome,
		e.Error,
		e.Duration.Microseconds(),
		e.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put audit event: %w", err)
	}
	return nil
}

// List returns the most recent audit events, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]behavior.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, errors.New("storage is not configured")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT request, kind, correlation_id, trace_id, span_id, outcome, error, duration_micros, created_at
FROM audit_events
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []behavior.AuditEvent
	for rows.Next() {
		var (
			e         behavior.AuditEvent
			micros    int64
			createdAt int64
		)
		if err := rows.Scan(&e.Request, &e.Kind, &e.CorrelationID, &e.TraceID, &e.SpanID, &e.Outcome, &e.Error, &micros, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Duration = time.Duration(micros) * time.Microsecond
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

var _ behavior.AuditSink = (*Store)(nil)
