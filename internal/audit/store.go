package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		ts          TEXT    NOT NULL,
		type        TEXT    NOT NULL,
		request_id  TEXT    NOT NULL DEFAULT '',
		tool        TEXT    NOT NULL DEFAULT '',
		profile     TEXT    NOT NULL DEFAULT '',
		region      TEXT    NOT NULL DEFAULT '',
		cmd         TEXT    NOT NULL DEFAULT '',
		entry       TEXT    NOT NULL DEFAULT '',
		code        TEXT    NOT NULL DEFAULT '',
		reason      TEXT    NOT NULL DEFAULT '',
		exit_code   INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_request ON audit_events(request_id)`,
}

// Store is a SQLite-backed Recorder that can be queried.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the event database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating audit db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit migration %d: %w", i, err)
		}
	}
	return &Store{db: db}, nil
}

// Record implements Recorder.
func (s *Store) Record(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events
			(ts, type, request_id, tool, profile, region, cmd, entry, code, reason, exit_code, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC().Format(time.RFC3339Nano), string(e.Type), e.RequestID, e.Tool,
		e.Profile, e.Region, e.Cmd, e.Entry, e.Code, e.Reason, e.ExitCode, e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(ctx, `SELECT ts, type, request_id, tool, profile, region, cmd, entry, code, reason, exit_code, duration_ms
		FROM audit_events ORDER BY id DESC LIMIT ?`, limit)
}

// ForRequest returns every event for one request id in the order recorded.
func (s *Store) ForRequest(ctx context.Context, requestID string) ([]Event, error) {
	return s.query(ctx, `SELECT ts, type, request_id, tool, profile, region, cmd, entry, code, reason, exit_code, duration_ms
		FROM audit_events WHERE request_id = ? ORDER BY id`, requestID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e          Event
			ts, typ    string
			durationMs int64
		)
		if err := rows.Scan(&ts, &typ, &e.RequestID, &e.Tool, &e.Profile, &e.Region, &e.Cmd,
			&e.Entry, &e.Code, &e.Reason, &e.ExitCode, &durationMs); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		e.Type = EventType(typ)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
