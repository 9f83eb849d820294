package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/kader/internal/store"
)

// RunRepository handles persistence for scrape runs
type RunRepository struct {
	db *store.Database
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *store.Database) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run in the running state
func (r *RunRepository) Create(ctx context.Context, run *store.ScrapeRun) error {
	query := `
		INSERT INTO scrape_runs (id, roster_url, layout, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.DB().ExecContext(ctx, query,
		run.ID, run.RosterURL, string(run.Layout), string(store.RunRunning), run.StartedAt,
	); err != nil {
		return fmt.Errorf("inserting scrape run: %w", err)
	}

	run.Status = store.RunRunning
	return nil
}

// MarkFailed records a run that did not produce a table
func (r *RunRepository) MarkFailed(ctx context.Context, runID string, runErr error) error {
	query := `
		UPDATE scrape_runs
		SET status = $2, error_message = $3, finished_at = NOW()
		WHERE id = $1
	`

	var message sql.NullString
	if runErr != nil {
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, runID, string(store.RunFailed), message); err != nil {
		return fmt.Errorf("updating scrape run %s: %w", runID, err)
	}
	return nil
}

// Get loads a run by id
func (r *RunRepository) Get(ctx context.Context, runID string) (*store.ScrapeRun, error) {
	query := `
		SELECT id, roster_url, layout, status, rows_found, rows_emitted, rows_skipped,
			error_message, started_at, finished_at
		FROM scrape_runs
		WHERE id = $1
	`

	run := &store.ScrapeRun{}
	var layout, status string
	err := r.db.DB().QueryRowContext(ctx, query, runID).Scan(
		&run.ID, &run.RosterURL, &layout, &status, &run.RowsFound, &run.RowsEmitted, &run.RowsSkipped,
		&run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scrape run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying scrape run: %w", err)
	}

	run.Layout = store.Layout(layout)
	run.Status = store.RunStatus(status)
	return run, nil
}
