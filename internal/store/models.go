package store

import (
	"database/sql"
	"errors"
	"time"
)

// NotAvailable is the display placeholder the scraper writes for fields it could not find
const NotAvailable = "N/A"

// RawPlayer holds the display text scraped for one roster row, before normalization.
// It is also the shape persisted to CSV and Postgres: numeric columns are always
// recomputed from these strings on load.
type RawPlayer struct {
	Name        string `json:"name"`
	Age         string `json:"age"`
	Position    string `json:"position"`
	MarketValue string `json:"market_value"`
	Height      string `json:"height"`
	Foot        string `json:"foot"`
	Debut       string `json:"debut"`
	Goals       string `json:"goals"`
	Assists     string `json:"assists"`
	TimePlayed  string `json:"time_played"`

	// Not persisted - profile link found in the roster row
	ProfileURL string `json:"-"`
}

// Player is a normalized roster entry. Values are never mutated after normalization.
type Player struct {
	Ordinal int

	Name     string
	Position string

	AgeDisplay string
	Age        sql.NullInt32

	MarketValueDisplay string
	MarketValue        float64
	MarketValueKnown   bool

	HeightDisplay string
	Height        sql.NullFloat64

	Foot         string
	DebutDisplay string

	GoalsDisplay   string
	Goals          int
	GoalsKnown     bool
	AssistsDisplay string
	Assists        int
	AssistsKnown   bool
	TimePlayed     string
}

// Raw converts a normalized player back to its display columns
func (p Player) Raw() RawPlayer {
	return RawPlayer{
		Name:        p.Name,
		Age:         p.AgeDisplay,
		Position:    p.Position,
		MarketValue: p.MarketValueDisplay,
		Height:      p.HeightDisplay,
		Foot:        p.Foot,
		Debut:       p.DebutDisplay,
		Goals:       p.GoalsDisplay,
		Assists:     p.AssistsDisplay,
		TimePlayed:  p.TimePlayed,
	}
}

// Layout selects which columns a persisted table carries
type Layout string

const (
	// LayoutBasic is the roster-page-only table
	LayoutBasic Layout = "basic"
	// LayoutEnriched adds profile and performance columns
	LayoutEnriched Layout = "enriched"
)

// Columns returns the CSV header for the layout, in file order
func (l Layout) Columns() []string {
	if l == LayoutBasic {
		return []string{"name", "age", "position", "market_value"}
	}
	return []string{"name", "age", "position", "height", "foot", "debut", "market_value", "goals", "assists", "time_played"}
}

// Table is an ordered roster produced by one scrape run
type Table struct {
	Layout  Layout
	Players []Player
}

// Len returns the number of players
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Players)
}

// RawRows returns the display columns of every player in roster order
func (t *Table) RawRows() []RawPlayer {
	rows := make([]RawPlayer, 0, t.Len())
	for _, p := range t.Players {
		rows = append(rows, p.Raw())
	}
	return rows
}

// Field returns the display value for a persisted column name
func (r RawPlayer) Field(column string) string {
	switch column {
	case "name":
		return r.Name
	case "age":
		return r.Age
	case "position":
		return r.Position
	case "market_value":
		return r.MarketValue
	case "height":
		return r.Height
	case "foot":
		return r.Foot
	case "debut":
		return r.Debut
	case "goals":
		return r.Goals
	case "assists":
		return r.Assists
	case "time_played":
		return r.TimePlayed
	}
	return ""
}

// SetField assigns a display value by persisted column name. Unknown columns are ignored.
func (r *RawPlayer) SetField(column, value string) {
	switch column {
	case "name":
		r.Name = value
	case "age":
		r.Age = value
	case "position":
		r.Position = value
	case "market_value":
		r.MarketValue = value
	case "height":
		r.Height = value
	case "foot":
		r.Foot = value
	case "debut":
		r.Debut = value
	case "goals":
		r.Goals = value
	case "assists":
		r.Assists = value
	case "time_played":
		r.TimePlayed = value
	}
}

// ErrNoRun is returned when no completed scrape run has been stored yet
var ErrNoRun = errors.New("no completed scrape run")

// RunStatus tracks a scrape run through its lifecycle
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ScrapeRun records one execution of the scraper
type ScrapeRun struct {
	ID           string
	RosterURL    string
	Layout       Layout
	Status       RunStatus
	RowsFound    int
	RowsEmitted  int
	RowsSkipped  int
	ErrorMessage sql.NullString
	StartedAt    time.Time
	FinishedAt   sql.NullTime
}
