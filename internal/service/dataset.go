package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/store"
	"github.com/fortuna/kader/internal/store/repository"
)

var (
	// ErrNoTable is returned while no roster has been persisted
	ErrNoTable = errors.New("no roster data found, run the scraper first")

	// ErrMissingColumn is returned when the persisted roster lacks a column the schema needs
	ErrMissingColumn = errors.New("roster is missing a required column")
)

// Source is a persisted roster the dashboard reads from
type Source interface {
	// Identity changes whenever the persisted roster changes
	Identity(ctx context.Context) (string, error)
	Load(ctx context.Context) (*store.Snapshot, error)
	Describe() string
}

// CSVSource reads the roster file written by the scraper
type CSVSource struct {
	Path string
}

// Identity is the file path, size and modification time
func (s CSVSource) Identity(_ context.Context) (string, error) {
	id, err := store.StatFile(s.Path)
	if errors.Is(err, store.ErrNoFile) {
		return "", fmt.Errorf("%w (%s)", ErrNoTable, s.Path)
	}
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Load reads the file
func (s CSVSource) Load(_ context.Context) (*store.Snapshot, error) {
	snap, err := store.ReadCSV(s.Path)
	if errors.Is(err, store.ErrNoFile) {
		return nil, fmt.Errorf("%w (%s)", ErrNoTable, s.Path)
	}
	return snap, err
}

// Describe names the source for logs
func (s CSVSource) Describe() string {
	return "csv:" + s.Path
}

// PostgresSource reads the latest completed scrape run
type PostgresSource struct {
	Roster *repository.RosterRepository
}

// Identity is the latest completed run id
func (s PostgresSource) Identity(ctx context.Context) (string, error) {
	id, err := s.Roster.LatestRunID(ctx)
	if errors.Is(err, store.ErrNoRun) {
		return "", ErrNoTable
	}
	return id, err
}

// Load reads the rows of the latest run
func (s PostgresSource) Load(ctx context.Context) (*store.Snapshot, error) {
	snap, _, err := s.Roster.LoadLatest(ctx)
	if errors.Is(err, store.ErrNoRun) {
		return nil, ErrNoTable
	}
	return snap, err
}

// Describe names the source for logs
func (s PostgresSource) Describe() string {
	return "postgres"
}

// Dataset memoizes the normalized roster, reloading only when the source identity changes.
// Safe for concurrent use.
type Dataset struct {
	source     Source
	normalizer *normalize.Normalizer
	onReload   func(*store.Table)

	mu       sync.Mutex
	key      string
	table    *store.Table
	loadedAt time.Time
}

// NewDataset creates a dataset over source, normalized for variant
func NewDataset(source Source, variant normalize.SchemaVariant) *Dataset {
	return &Dataset{
		source:     source,
		normalizer: normalize.New(variant),
	}
}

// OnReload registers a callback run after each successful reload, while the lock is held
func (d *Dataset) OnReload(fn func(*store.Table)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onReload = fn
}

// Table returns the current normalized roster
func (d *Dataset) Table(ctx context.Context) (*store.Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	table, _, err := d.refreshLocked(ctx)
	return table, err
}

// Refresh reloads the roster if the source changed and reports whether it did
func (d *Dataset) Refresh(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, changed, err := d.refreshLocked(ctx)
	return changed, err
}

// LoadedAt returns when the current table was loaded, zero before the first load
func (d *Dataset) LoadedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadedAt
}

func (d *Dataset) refreshLocked(ctx context.Context) (*store.Table, bool, error) {
	key, err := d.source.Identity(ctx)
	if err != nil {
		return nil, false, err
	}
	if d.table != nil && key == d.key {
		return d.table, false, nil
	}

	snap, err := d.source.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("loading roster from %s: %w", d.source.Describe(), err)
	}

	for _, column := range d.normalizer.Variant.RequiredColumns() {
		if !snap.HasColumn(column) {
			return nil, false, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	d.table = d.normalizer.Table(snap.Layout, snap.Rows)
	d.key = key
	d.loadedAt = time.Now()
	log.Printf("✓ Loaded %d players from %s", d.table.Len(), d.source.Describe())

	if d.onReload != nil {
		d.onReload(d.table)
	}
	return d.table, true, nil
}

// ExportCSV writes the given players with the selected columns, in order.
// An empty selection exports every enriched column.
func ExportCSV(w io.Writer, players []store.Player, columns []string) error {
	if len(columns) == 0 {
		columns = store.LayoutEnriched.Columns()
	}
	for _, c := range columns {
		if !store.IsColumn(c) {
			return fmt.Errorf("unknown column %q", c)
		}
	}

	rows := make([]store.RawPlayer, 0, len(players))
	for _, p := range players {
		rows = append(rows, p.Raw())
	}
	return store.EncodeCSV(w, rows, columns, false)
}
