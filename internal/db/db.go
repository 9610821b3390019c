// Package db is the SQLite failure log read by the diagnostics command.
//
// Rows are written by the login screen and read by a separate process, so
// the file runs in WAL mode with a busy timeout. Old rows are pruned on
// open according to Retention.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Retention bounds the failure log. Zero fields keep everything.
type Retention struct {
	// MaxAge drops rows recorded longer ago than this.
	MaxAge time.Duration
	// MaxRows keeps only the newest rows.
	MaxRows int
}

// Options configures Open.
type Options struct {
	Retention Retention

	// Now is the clock retention is measured against. Defaults to time.Now.
	Now func() time.Time
}

// DB is an open failure log.
type DB struct {
	conn      *sql.DB
	retention Retention
	now       func() time.Time
}

var connPragmas = []string{
	`PRAGMA journal_mode=WAL`,
	`PRAGMA busy_timeout=5000`,
}

// Open opens the failure log at path, creating the file and its directory
// as needed, migrates the schema, and prunes rows outside retention.
func Open(ctx context.Context, path string, opts Options) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("diagnostics path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create diagnostics dir: %w", err)
	}

	conn, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open diagnostics %s: %w", path, err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	d := &DB{conn: conn, retention: opts.Retention, now: now}

	if err := d.init(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open diagnostics %s: %w", path, err)
	}
	return d, nil
}

func (d *DB) init(ctx context.Context) error {
	for _, p := range connPragmas {
		if _, err := d.conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := d.migrate(ctx); err != nil {
		return err
	}
	if _, err := d.Prune(ctx); err != nil {
		return err
	}
	return nil
}

func (d *DB) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// Prune deletes rows outside retention and reports how many went.
func (d *DB) Prune(ctx context.Context) (int64, error) {
	var removed int64

	if d.retention.MaxAge > 0 {
		cutoff := formatTime(d.now().Add(-d.retention.MaxAge))
		res, err := d.conn.ExecContext(ctx, `DELETE FROM failure_log WHERE recorded_at < ?`, cutoff)
		if err != nil {
			return removed, fmt.Errorf("prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	if d.retention.MaxRows > 0 {
		res, err := d.conn.ExecContext(ctx, `
DELETE FROM failure_log
 WHERE id NOT IN (
       SELECT id FROM failure_log
        ORDER BY recorded_at DESC, id DESC
        LIMIT ?)`, d.retention.MaxRows)
		if err != nil {
			return removed, fmt.Errorf("prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	return removed, nil
}

// timeLayout is fixed width so recorded_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
