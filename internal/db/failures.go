package db

import (
	"context"
	"fmt"
	"time"
)

// FailureRecord is one row of failure_log.
type FailureRecord struct {
	ID         int64
	AttemptID  string
	RecordedAt time.Time
	Kind       string
	Detail     string
	Discarded  bool
}

// InsertFailure appends a failure record. RecordedAt defaults to now.
func (d *DB) InsertFailure(ctx context.Context, r FailureRecord) error {
	if d == nil || d.conn == nil {
		return fmt.Errorf("db is nil")
	}
	if r.AttemptID == "" {
		return fmt.Errorf("attempt id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	at := r.RecordedAt
	if at.IsZero() {
		at = d.now()
	}

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO failure_log (attempt_id, recorded_at, kind, detail, discarded) VALUES (?, ?, ?, ?, ?)`,
		r.AttemptID, formatTime(at), r.Kind, r.Detail, r.Discarded,
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

// RecentFailures returns up to limit records, newest first.
func (d *DB) RecentFailures(ctx context.Context, limit int) ([]FailureRecord, error) {
	if d == nil || d.conn == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, attempt_id, recorded_at, kind, detail, discarded
		   FROM failure_log
		  ORDER BY recorded_at DESC, id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []FailureRecord
	for rows.Next() {
		var (
			r  FailureRecord
			at string
		)
		if err := rows.Scan(&r.ID, &r.AttemptID, &at, &r.Kind, &r.Detail, &r.Discarded); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		r.RecordedAt = parseTime(at)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return out, nil
}

// CountFailuresByKind aggregates failure_log by kind.
func (d *DB) CountFailuresByKind(ctx context.Context) (map[string]int, error) {
	if d == nil || d.conn == nil {
		return nil, fmt.Errorf("db is nil")
	}

	rows, err := d.conn.QueryContext(ctx, `SELECT kind, COUNT(*) FROM failure_log GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}
