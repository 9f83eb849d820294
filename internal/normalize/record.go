package normalize

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/fortuna/kader/internal/store"
)

// SchemaVariant selects which derived columns a persisted table is expected to carry.
// Both variants share the same parsers; they differ in required columns and in which
// optional fields are derived.
type SchemaVariant string

const (
	// VariantProfile expects roster + profile columns (age may be "Jan 1, 2000 (24)")
	VariantProfile SchemaVariant = "profile"
	// VariantStats expects roster + performance columns (numeric age, goals, assists)
	VariantStats SchemaVariant = "stats"
)

// ParseVariant maps a configuration string to a variant, defaulting to profile
func ParseVariant(s string) (SchemaVariant, error) {
	switch SchemaVariant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantProfile:
		return VariantProfile, nil
	case VariantStats:
		return VariantStats, nil
	}
	return "", fmt.Errorf("unknown schema variant %q (want %q or %q)", s, VariantProfile, VariantStats)
}

// RequiredColumns lists the persisted columns a table must have for this variant
func (v SchemaVariant) RequiredColumns() []string {
	if v == VariantStats {
		return []string{"name", "age", "position", "market_value", "goals", "assists"}
	}
	return []string{"name", "age", "position", "market_value"}
}

// Step derives typed fields on a copy of the player from its display columns
type Step func(p store.Player) store.Player

// Normalizer turns raw rows into typed players by applying its steps in order
type Normalizer struct {
	Variant SchemaVariant
	steps   []Step
}

// New builds the normalization pipeline for a schema variant
func New(variant SchemaVariant) *Normalizer {
	steps := []Step{withAge, withMarketValue}
	switch variant {
	case VariantStats:
		steps = append(steps, withGoals, withAssists)
	default:
		variant = VariantProfile
		steps = append(steps, withHeight)
	}
	return &Normalizer{Variant: variant, steps: steps}
}

// Record normalizes one raw row. Display text is kept verbatim.
func (n *Normalizer) Record(raw store.RawPlayer, ordinal int) store.Player {
	p := store.Player{
		Ordinal:            ordinal,
		Name:               strings.TrimSpace(raw.Name),
		Position:           raw.Position,
		AgeDisplay:         raw.Age,
		MarketValueDisplay: raw.MarketValue,
		HeightDisplay:      raw.Height,
		Foot:               raw.Foot,
		DebutDisplay:       raw.Debut,
		GoalsDisplay:       raw.Goals,
		AssistsDisplay:     raw.Assists,
		TimePlayed:         raw.TimePlayed,
	}
	for _, step := range n.steps {
		p = step(p)
	}
	return p
}

// Table normalizes rows in order, dropping rows without a name
func (n *Normalizer) Table(layout store.Layout, rows []store.RawPlayer) *store.Table {
	table := &store.Table{Layout: layout, Players: make([]store.Player, 0, len(rows))}
	for _, raw := range rows {
		if strings.TrimSpace(raw.Name) == "" {
			continue
		}
		table.Players = append(table.Players, n.Record(raw, len(table.Players)))
	}
	return table
}

func withAge(p store.Player) store.Player {
	if age, ok := Age(p.AgeDisplay); ok {
		p.Age = sql.NullInt32{Int32: int32(age), Valid: true}
	}
	return p
}

func withMarketValue(p store.Player) store.Player {
	p.MarketValue, p.MarketValueKnown = ParseMarketValue(p.MarketValueDisplay)
	return p
}

func withHeight(p store.Player) store.Player {
	if h, ok := Height(p.HeightDisplay); ok {
		p.Height = sql.NullFloat64{Float64: h, Valid: true}
	}
	return p
}

func withGoals(p store.Player) store.Player {
	p.Goals, p.GoalsKnown = ParseCount(p.GoalsDisplay)
	return p
}

func withAssists(p store.Player) store.Player {
	p.Assists, p.AssistsKnown = ParseCount(p.AssistsDisplay)
	return p
}
