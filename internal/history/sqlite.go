package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps run history in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "history"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the history tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// RecordRun stores a run and its per-job results in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID, "jobs", len(run.Jobs))

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, config, ticks, total_jobs, completed_jobs,
		 avg_turnaround, avg_waiting, avg_response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Source, string(configJSON), run.Ticks,
		run.TotalJobs, run.CompletedJobs, run.AvgTurnaround, run.AvgWaiting, run.AvgResponse,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, r := range run.Jobs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO job_results (run_id, job_id, arrival_time, service_time, initial_priority,
			 start_time, completion_time, turnaround, waiting, response)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, int(r.ID), r.ArrivalTime, r.ServiceTime, r.InitialPriority,
			r.StartTime, r.CompletionTime, r.Turnaround, r.Waiting, r.Response,
		)
		if err != nil {
			return fmt.Errorf("insert job %d of run %s: %w", r.ID, run.ID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, created_at, source, config, ticks, total_jobs, completed_jobs,
	avg_turnaround, avg_waiting, avg_response`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt, configJSON string
	if err := row.Scan(&run.ID, &createdAt, &run.Source, &configJSON, &run.Ticks,
		&run.TotalJobs, &run.CompletedJobs, &run.AvgTurnaround, &run.AvgWaiting, &run.AvgResponse); err != nil {
		return nil, err
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("run %s: decode config: %w", run.ID, err)
	}
	return &run, nil
}

// ListRuns returns up to limit runs, most recent first. Job rows are not loaded.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", limit)
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads one run with its job results ordered by job id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.logger.Debug("sql", "op", "get", "table", "runs", "id", id)

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, arrival_time, service_time, initial_priority, start_time,
		 completion_time, turnaround, waiting, response
		 FROM job_results WHERE run_id = ? ORDER BY job_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r simulator.JobResult
		var jobID int
		if err := rows.Scan(&jobID, &r.ArrivalTime, &r.ServiceTime, &r.InitialPriority,
			&r.StartTime, &r.CompletionTime, &r.Turnaround, &r.Waiting, &r.Response); err != nil {
			return nil, err
		}
		r.ID = simulator.JobID(jobID)
		run.Jobs = append(run.Jobs, r)
	}
	return run, rows.Err()
}
