// Package history records completed exchanges in a local SQLite
// database, one row per dispatched request.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const openTimeout = 5 * time.Second

const schemaSQL = `
CREATE TABLE IF NOT EXISTS exchanges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL DEFAULT 0,
	success INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Entry is one recorded exchange.
type Entry struct {
	Method   string
	URL      string
	Status   int
	Success  bool
	Duration time.Duration
	Message  string
}

// Log is an append-only exchange log backed by SQLite.
type Log struct {
	db *sql.DB
}

// Open creates or opens the log at path and ensures its table exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Record appends one exchange.
func (l *Log) Record(e Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO exchanges (method, url, status, success, duration_ms, message) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Method, e.URL, e.Status, e.Success, e.Duration.Milliseconds(), e.Message,
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// Recent returns up to n exchanges, newest first.
func (l *Log) Recent(n int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx,
		`SELECT method, url, status, success, duration_ms, message FROM exchanges ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.Method, &e.URL, &e.Status, &e.Success, &durationMs, &e.Message); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history rows: %w", err)
	}
	return entries, nil
}
