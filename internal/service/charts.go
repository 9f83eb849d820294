package service

import (
	"math"
	"sort"

	"github.com/fortuna/kader/internal/store"
)

const (
	ageHistogramBins = 15
	topValueCount    = 10
)

// Bucket is a labelled count
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// HistogramBin counts values in [Lower, Upper); the last bin includes Upper
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// BoxStats summarizes a distribution with its five-number summary
type BoxStats struct {
	Position string  `json:"position"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
}

// Point is one player in a scatter series
type Point struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// TopEntry is one bar of a top-N chart
type TopEntry struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Value    float64 `json:"value"`
	Display  string  `json:"display"`
}

// Charts holds every chart series for a filtered view
type Charts struct {
	Positions           []Bucket            `json:"positions"`
	Feet                []Bucket            `json:"feet"`
	AgeHistogram        []HistogramBin      `json:"age_histogram"`
	TopByMarketValue    []TopEntry          `json:"top_by_market_value"`
	ValueByPosition     []PositionAggregate `json:"value_by_position"`
	MeanValueByPosition []PositionAggregate `json:"mean_value_by_position"`
	HeightByPosition    []BoxStats          `json:"height_by_position"`
	AgeVsMarketValue    []Point             `json:"age_vs_market_value"`
	HeightVsAge         []Point             `json:"height_vs_age"`
}

// BuildCharts computes every chart series of a filtered view
func BuildCharts(players []store.Player) Charts {
	byValue := GroupByPosition(players, ColumnMarketValue)

	var ages []float64
	for _, p := range players {
		if p.Age.Valid {
			ages = append(ages, float64(p.Age.Int32))
		}
	}

	top := TopN(players, ColumnMarketValue, topValueCount)
	topEntries := make([]TopEntry, 0, len(top))
	for _, p := range top {
		topEntries = append(topEntries, TopEntry{Name: p.Name, Position: p.Position, Value: p.MarketValue, Display: p.MarketValueDisplay})
	}

	return Charts{
		Positions:           CountBy(players, func(p store.Player) string { return p.Position }),
		Feet:                CountBy(players, func(p store.Player) string { return p.Foot }),
		AgeHistogram:        Histogram(ages, ageHistogramBins),
		TopByMarketValue:    topEntries,
		ValueByPosition:     byValue,
		MeanValueByPosition: SortByMean(byValue),
		HeightByPosition:    BoxByPosition(players, ColumnHeight),
		AgeVsMarketValue:    Scatter(players, ColumnAge, ColumnMarketValue),
		HeightVsAge:         Scatter(players, ColumnHeight, ColumnAge),
	}
}

// CountBy counts players per key, most frequent first. Empty and "N/A" keys are skipped.
func CountBy(players []store.Player, key func(store.Player) string) []Bucket {
	counts := map[string]int{}
	for _, p := range players {
		if k := key(p); known(k) {
			counts[k]++
		}
	}

	out := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		out = append(out, Bucket{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Histogram splits [min, max] of values into equal-width bins
func Histogram(values []float64, bins int) []HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []HistogramBin{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// BoxByPosition computes box statistics of column per position, ordered by position
func BoxByPosition(players []store.Player, column Column) []BoxStats {
	groups := map[string][]float64{}
	for _, p := range players {
		if !known(p.Position) {
			continue
		}
		if v, ok := column.Value(p); ok {
			groups[p.Position] = append(groups[p.Position], v)
		}
	}

	out := make([]BoxStats, 0, len(groups))
	for position, values := range groups {
		sort.Float64s(values)
		out = append(out, BoxStats{
			Position: position,
			Count:    len(values),
			Min:      values[0],
			Q1:       quantile(values, 0.25),
			Median:   quantile(values, 0.5),
			Q3:       quantile(values, 0.75),
			Max:      values[len(values)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// quantile interpolates linearly between closest ranks of sorted values
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// Scatter pairs two columns for every player where both are known
func Scatter(players []store.Player, x, y Column) []Point {
	out := []Point{}
	for _, p := range players {
		xv, okX := x.Value(p)
		yv, okY := y.Value(p)
		if okX && okY {
			out = append(out, Point{Name: p.Name, Position: p.Position, X: xv, Y: yv})
		}
	}
	return out
}
