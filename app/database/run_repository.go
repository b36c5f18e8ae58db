package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// RunRepositoryImpl handles database operations for scheduler runs
type RunRepositoryImpl struct {
	db *DB
}

var _ RunRepository = (*RunRepositoryImpl)(nil)

func NewRunRepository(db *DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

func (r *RunRepositoryImpl) CreateRun(ctx context.Context, runType string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO scheduler_runs (run_type, status)
		VALUES ($1, 'running')
		RETURNING id
	`, runType).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create scheduler run: %w", err)
	}

	return id, nil
}

// FinishRun writes the terminal state of a run. status must be one of
// completed, completed_with_errors, failed.
func (r *RunRepositoryImpl) FinishRun(ctx context.Context, id, status string, tasksCompleted, tasksFailed int, executionSeconds float64, summary map[string]interface{}, errorDetails string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE scheduler_runs
		SET status = $2, completed_at = NOW(), execution_time_seconds = $3,
		    tasks_completed = $4, tasks_failed = $5, summary = $6, error_details = $7
		WHERE id = $1
	`, id, status, executionSeconds, tasksCompleted, tasksFailed, summaryJSON, errorDetails)
	if err != nil {
		return fmt.Errorf("failed to finish scheduler run: %w", err)
	}

	return nil
}

// GetActiveRunID returns the id of a run still in the running state, or an
// empty string when none is active.
func (r *RunRepositoryImpl) GetActiveRunID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM scheduler_runs WHERE status = 'running'
		ORDER BY started_at DESC LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query active run: %w", err)
	}

	return id, nil
}

func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]SchedulerRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_type, status, started_at, completed_at, execution_time_seconds,
		       tasks_completed, tasks_failed, summary, error_details
		FROM scheduler_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduler runs: %w", err)
	}
	defer rows.Close()

	var runs []SchedulerRun
	for rows.Next() {
		var run SchedulerRun
		var summaryJSON []byte
		if err := rows.Scan(&run.ID, &run.RunType, &run.Status, &run.StartedAt, &run.CompletedAt,
			&run.ExecutionTimeSeconds, &run.TasksCompleted, &run.TasksFailed, &summaryJSON, &run.ErrorDetails); err != nil {
			return nil, fmt.Errorf("failed to scan scheduler run: %w", err)
		}
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
