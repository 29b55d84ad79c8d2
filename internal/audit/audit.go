// Package audit is a diagnostic-only append log of broker activity,
// persisted to SQLite purely for operators inspecting a running node after
// the fact. It holds no broker state: spec §1's "no durable storage"
// non-goal is about the broker's own client/route/mailbox bookkeeping,
// which stays in-memory in internal/broker; this package never feeds
// decisions back into it.
//
// Grounded on the teacher's internal/store/store.go: the same
// database/sql + modernc.org/sqlite wiring (single-connection DSN,
// MkdirAll on the parent directory, CREATE TABLE IF NOT EXISTS schema
// bootstrap), repurposed from beacon-reading rows to broker-event rows.
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

// Log wraps the SQLite connection backing the audit trail.
type Log struct {
	db *sql.DB
}

// Open creates the database directory if needed and connects.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// InitSchema ensures the event table exists.
func (l *Log) InitSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS broker_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		client_id TEXT,
		server_id TEXT,
		detail TEXT,
		recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	);`
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("init audit schema: %w", err)
	}
	return nil
}

// Record appends one event row. kind is a short label such as
// "client_registered", "sequence_rejected", or "server_message_handled";
// clientID/serverID may be empty when not applicable.
func (l *Log) Record(ctx context.Context, kind, clientID, serverID, detail string) error {
	const stmt = `INSERT INTO broker_events (kind, client_id, server_id, detail) VALUES (?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, stmt, kind, clientID, serverID, detail); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}
