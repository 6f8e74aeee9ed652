package history

import (
	"context"
	"database/sql"
)

// schema holds the DDL for the history tables.
// Each statement uses IF NOT EXISTS so Migrate can run on every open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		created_at     TEXT NOT NULL,
		source         TEXT NOT NULL DEFAULT '',
		config         TEXT NOT NULL,
		ticks          INTEGER NOT NULL,
		total_jobs     INTEGER NOT NULL,
		completed_jobs INTEGER NOT NULL,
		avg_turnaround REAL NOT NULL,
		avg_waiting    REAL NOT NULL,
		avg_response   REAL NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS job_results (
		run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		job_id           INTEGER NOT NULL,
		arrival_time     INTEGER NOT NULL,
		service_time     INTEGER NOT NULL,
		initial_priority INTEGER NOT NULL,
		start_time       INTEGER NOT NULL,
		completion_time  INTEGER NOT NULL,
		turnaround       INTEGER NOT NULL,
		waiting          INTEGER NOT NULL,
		response         INTEGER NOT NULL,
		PRIMARY KEY (run_id, job_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
