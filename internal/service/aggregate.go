package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/fortuna/kader/internal/store"
)

// Metric is an aggregate that may be unavailable, e.g. the mean of an all-unknown column.
// Unavailable metrics encode as JSON null.
type Metric struct {
	Value     float64
	Available bool
}

func available(v float64) Metric {
	return Metric{Value: v, Available: true}
}

// MarshalJSON encodes the value, or null when unavailable
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Available || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Column names a numeric column of the roster
type Column string

const (
	ColumnAge         Column = "age"
	ColumnMarketValue Column = "market_value"
	ColumnHeight      Column = "height"
	ColumnGoals       Column = "goals"
	ColumnAssists     Column = "assists"
)

// ParseColumn validates a numeric column name
func ParseColumn(s string) (Column, error) {
	switch c := Column(s); c {
	case ColumnAge, ColumnMarketValue, ColumnHeight, ColumnGoals, ColumnAssists:
		return c, nil
	}
	return "", fmt.Errorf("unknown numeric column %q", s)
}

// Value returns the numeric value of column for p and whether it is known
func (c Column) Value(p store.Player) (float64, bool) {
	switch c {
	case ColumnAge:
		return float64(p.Age.Int32), p.Age.Valid
	case ColumnMarketValue:
		return p.MarketValue, p.MarketValueKnown
	case ColumnHeight:
		return p.Height.Float64, p.Height.Valid
	case ColumnGoals:
		return float64(p.Goals), p.GoalsKnown
	case ColumnAssists:
		return float64(p.Assists), p.AssistsKnown
	}
	return 0, false
}

// Sum adds the known values of column. Unknown values contribute 0; an empty set sums to 0.
func Sum(players []store.Player, column Column) float64 {
	total := 0.0
	for _, p := range players {
		if v, ok := column.Value(p); ok {
			total += v
		}
	}
	return total
}

// Mean averages the known values of column, unavailable when there are none
func Mean(players []store.Player, column Column) Metric {
	total, n := 0.0, 0
	for _, p := range players {
		if v, ok := column.Value(p); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return Metric{}
	}
	return available(total / float64(n))
}

// TopN returns up to n players with the highest known values of column.
// Ties keep roster order.
func TopN(players []store.Player, column Column, n int) []store.Player {
	if n <= 0 {
		return []store.Player{}
	}

	ranked := make([]store.Player, 0, len(players))
	for _, p := range players {
		if _, ok := column.Value(p); ok {
			ranked = append(ranked, p)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, _ := column.Value(ranked[i])
		vj, _ := column.Value(ranked[j])
		return vi > vj
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// PositionAggregate is one group of a group-by-position aggregation
type PositionAggregate struct {
	Position string  `json:"position"`
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     Metric  `json:"mean"`
}

// GroupByPosition aggregates column per position, ordered by sum descending then
// position name. Players without a position are left out.
func GroupByPosition(players []store.Player, column Column) []PositionAggregate {
	groups := map[string][]store.Player{}
	for _, p := range players {
		if known(p.Position) {
			groups[p.Position] = append(groups[p.Position], p)
		}
	}

	out := make([]PositionAggregate, 0, len(groups))
	for position, members := range groups {
		out = append(out, PositionAggregate{
			Position: position,
			Count:    len(members),
			Sum:      Sum(members, column),
			Mean:     Mean(members, column),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Sum != out[j].Sum {
			return out[i].Sum > out[j].Sum
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// SortByMean reorders groups by mean descending; unavailable means sort last
func SortByMean(groups []PositionAggregate) []PositionAggregate {
	out := make([]PositionAggregate, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Mean, out[j].Mean
		if a.Available != b.Available {
			return a.Available
		}
		return a.Value > b.Value
	})
	return out
}

// Summary holds the scalar metrics shown above the charts
type Summary struct {
	Players            int     `json:"players"`
	AverageAge         Metric  `json:"average_age"`
	TotalMarketValue   float64 `json:"total_market_value"`
	AverageMarketValue Metric  `json:"average_market_value"`
	AverageHeight      Metric  `json:"average_height"`
	TotalGoals         int     `json:"total_goals"`
	TotalAssists       int     `json:"total_assists"`
	GoalsPerPlayer     Metric  `json:"goals_per_player"`
}

// Summarize computes the scalar metrics of a filtered view
func Summarize(players []store.Player) Summary {
	s := Summary{
		Players:            len(players),
		AverageAge:         Mean(players, ColumnAge),
		TotalMarketValue:   Sum(players, ColumnMarketValue),
		AverageMarketValue: Mean(players, ColumnMarketValue),
		AverageHeight:      Mean(players, ColumnHeight),
		TotalGoals:         int(Sum(players, ColumnGoals)),
		TotalAssists:       int(Sum(players, ColumnAssists)),
	}

	if len(players) > 0 && anyKnown(players, ColumnGoals) {
		s.GoalsPerPlayer = available(float64(s.TotalGoals) / float64(len(players)))
	}
	return s
}

func anyKnown(players []store.Player, column Column) bool {
	for _, p := range players {
		if _, ok := column.Value(p); ok {
			return true
		}
	}
	return false
}
