package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/kader/internal/store"
)

var rosterColumns = []string{
	"run_id", "ordinal", "name", "age", "position", "height", "foot",
	"debut", "market_value", "goals", "assists", "time_played",
}

// RosterRepository stores roster snapshots. Only the latest completed run keeps its rows.
type RosterRepository struct {
	db *store.Database
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *store.Database) *RosterRepository {
	return &RosterRepository{db: db}
}

// Replace stores the table under runID, marks the run completed and drops the rows
// of every other run, all in one transaction
func (r *RosterRepository) Replace(ctx context.Context, run *store.ScrapeRun, table *store.Table) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("roster_players", rosterColumns...))
	if err != nil {
		return fmt.Errorf("preparing copy: %w", err)
	}

	for _, p := range table.Players {
		raw := p.Raw()
		if _, err := stmt.ExecContext(ctx,
			run.ID, p.Ordinal, raw.Name, raw.Age, raw.Position, raw.Height, raw.Foot,
			raw.Debut, raw.MarketValue, raw.Goals, raw.Assists, raw.TimePlayed,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("copying player %q: %w", raw.Name, err)
		}
	}

	// flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flushing copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("closing copy: %w", err)
	}

	complete := `
		UPDATE scrape_runs
		SET status = $2, layout = $3, rows_found = $4, rows_emitted = $5, rows_skipped = $6, finished_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, complete,
		run.ID, string(store.RunCompleted), string(table.Layout), run.RowsFound, table.Len(), run.RowsSkipped,
	); err != nil {
		return fmt.Errorf("completing scrape run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_players WHERE run_id <> $1`, run.ID); err != nil {
		return fmt.Errorf("dropping previous rosters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing roster: %w", err)
	}

	run.Status = store.RunCompleted
	run.Layout = table.Layout
	run.RowsEmitted = table.Len()
	return nil
}

// LatestRunID returns the id of the most recent completed run, store.ErrNoRun if none
func (r *RosterRepository) LatestRunID(ctx context.Context) (string, error) {
	id, _, err := r.latestRun(ctx)
	return id, err
}

// LoadLatest reads the rows of the most recent completed run in roster order
func (r *RosterRepository) LoadLatest(ctx context.Context) (*store.Snapshot, string, error) {
	runID, layout, err := r.latestRun(ctx)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT name, age, position, height, foot, debut, market_value, goals, assists, time_played
		FROM roster_players
		WHERE run_id = $1
		ORDER BY ordinal
	`

	rows, err := r.db.DB().QueryContext(ctx, query, runID)
	if err != nil {
		return nil, "", fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	snap := &store.Snapshot{Layout: layout, Columns: layout.Columns()}
	for rows.Next() {
		var raw store.RawPlayer
		if err := rows.Scan(
			&raw.Name, &raw.Age, &raw.Position, &raw.Height, &raw.Foot,
			&raw.Debut, &raw.MarketValue, &raw.Goals, &raw.Assists, &raw.TimePlayed,
		); err != nil {
			return nil, "", fmt.Errorf("scanning roster row: %w", err)
		}
		snap.Rows = append(snap.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterating roster: %w", err)
	}

	return snap, runID, nil
}

func (r *RosterRepository) latestRun(ctx context.Context) (string, store.Layout, error) {
	query := `
		SELECT id, layout
		FROM scrape_runs
		WHERE status = 'completed'
		ORDER BY finished_at DESC
		LIMIT 1
	`

	var id, layout string
	err := r.db.DB().QueryRowContext(ctx, query).Scan(&id, &layout)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", store.ErrNoRun
	}
	if err != nil {
		return "", "", fmt.Errorf("querying latest run: %w", err)
	}
	return id, store.Layout(layout), nil
}
