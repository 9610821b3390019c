package db

import (
	"context"
	"fmt"
)

// schema lists the failure log's schema steps in order. Each entry is
// applied once; the highest applied index is kept in schema_version.
var schema = []struct {
	name string
	up   string
}{
	{
		name: "failure_log",
		up: `
CREATE TABLE failure_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id  TEXT    NOT NULL,
    recorded_at TEXT    NOT NULL,
    kind        TEXT    NOT NULL,
    detail      TEXT    NOT NULL DEFAULT '',
    discarded   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_failure_recorded_at ON failure_log(recorded_at);
CREATE INDEX idx_failure_kind ON failure_log(kind);
`,
	},
}

func (d *DB) migrate(ctx context.Context) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}
	if current > len(schema) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", current, len(schema))
	}

	for i := current; i < len(schema); i++ {
		step := schema[i]
		if _, err := tx.ExecContext(ctx, step.up); err != nil {
			return fmt.Errorf("apply schema %d (%s): %w", i+1, step.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version(version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("record schema %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}
