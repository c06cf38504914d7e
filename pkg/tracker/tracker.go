// Package tracker keeps a SQLite log of task invocations for the stats
// command and the /ai/stats endpoint.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// Tracker records and queries task runs.
type Tracker interface {
	// Record stores one task run.
	Record(ctx context.Context, rec models.TaskRecord) error
	// Summary aggregates runs per task since a given time.
	Summary(ctx context.Context, since time.Time) ([]models.TaskSummary, error)
	// Recent returns the n most recent runs, newest first.
	Recent(ctx context.Context, n int) ([]models.TaskRecord, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS task_runs (
	id TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	cache_hit INTEGER NOT NULL,
	fallback INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	latency_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_task_runs_time ON task_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_task_runs_task_time ON task_runs(task, created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record stores a task run. A missing ID or timestamp is filled in.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.TaskRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO task_runs (id, task, cache_hit, fallback, failed, error, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Task), rec.CacheHit, rec.Fallback, rec.Failed, rec.Error, rec.LatencyMs, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record task run: %w", err)
	}
	return nil
}

// Summary returns per-task aggregates for runs at or after since, ordered
// by task name.
func (t *SQLiteTracker) Summary(ctx context.Context, since time.Time) ([]models.TaskSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT task, COUNT(*), SUM(cache_hit), SUM(fallback), SUM(failed), AVG(latency_ms)
		 FROM task_runs WHERE created_at >= ?
		 GROUP BY task ORDER BY task`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.TaskSummary
	for rows.Next() {
		var s models.TaskSummary
		var task string
		if err := rows.Scan(&task, &s.Runs, &s.CacheHits, &s.Fallbacks, &s.Failures, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Task = models.Task(task)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Recent returns the n most recent runs, newest first.
func (t *SQLiteTracker) Recent(ctx context.Context, n int) ([]models.TaskRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, task, cache_hit, fallback, failed, error, latency_ms, created_at
		 FROM task_runs ORDER BY created_at DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var records []models.TaskRecord
	for rows.Next() {
		var r models.TaskRecord
		var task string
		if err := rows.Scan(&r.ID, &task, &r.CacheHit, &r.Fallback, &r.Failed, &r.Error, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task run: %w", err)
		}
		r.Task = models.Task(task)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
