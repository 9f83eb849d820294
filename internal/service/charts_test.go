package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/store"
)

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{20, 21, 25, 30, 30}, 5)
	want := []HistogramBin{
		{Lower: 20, Upper: 22, Count: 2},
		{Lower: 22, Upper: 24, Count: 0},
		{Lower: 24, Upper: 26, Count: 1},
		{Lower: 26, Upper: 28, Count: 0},
		{Lower: 28, Upper: 30, Count: 2},
	}
	if diff := cmp.Diff(want, bins); diff != "" {
		t.Errorf("histogram mismatch (-want +got):\n%s", diff)
	}

	single := Histogram([]float64{24, 24}, 15)
	assert.Equal(t, []HistogramBin{{Lower: 24, Upper: 24, Count: 2}}, single)

	assert.Empty(t, Histogram(nil, 15))
}

func TestHistogramCountsEveryValue(t *testing.T) {
	values := []float64{18, 19, 23, 24, 24, 27, 29, 31, 33, 35, 38}
	total := 0
	for _, b := range Histogram(values, ageHistogramBins) {
		total += b.Count
	}
	assert.Equal(t, len(values), total)
}

func TestCountBy(t *testing.T) {
	feet := CountBy(squad(), func(p store.Player) string { return p.Foot })
	assert.Equal(t, []Bucket{{Label: "left", Count: 3}, {Label: "right", Count: 2}}, feet)
}

func TestBoxByPosition(t *testing.T) {
	players := normalize.New(normalize.VariantProfile).Table(store.LayoutEnriched, []store.RawPlayer{
		{Name: "A", Position: "Centre-Back", Height: "1,80 m"},
		{Name: "B", Position: "Centre-Back", Height: "1,90 m"},
		{Name: "C", Position: "Centre-Back", Height: "1,86 m"},
		{Name: "D", Position: "Centre-Back", Height: "N/A"},
		{Name: "E", Position: "Goalkeeper", Height: "1,95 m"},
	}).Players

	boxes := BoxByPosition(players, ColumnHeight)
	require.Len(t, boxes, 2)

	cb := boxes[0]
	assert.Equal(t, "Centre-Back", cb.Position)
	assert.Equal(t, 3, cb.Count)
	assert.InDelta(t, 1.80, cb.Min, 1e-9)
	assert.InDelta(t, 1.83, cb.Q1, 1e-9)
	assert.InDelta(t, 1.86, cb.Median, 1e-9)
	assert.InDelta(t, 1.88, cb.Q3, 1e-9)
	assert.InDelta(t, 1.90, cb.Max, 1e-9)

	gk := boxes[1]
	assert.Equal(t, BoxStats{Position: "Goalkeeper", Count: 1, Min: 1.95, Q1: 1.95, Median: 1.95, Q3: 1.95, Max: 1.95}, gk)
}

func TestScatterKnownPairsOnly(t *testing.T) {
	points := Scatter(squad(), ColumnAge, ColumnMarketValue)
	require.Len(t, points, 5)
	assert.Equal(t, Point{Name: "Yassine Bounou", Position: "Goalkeeper", X: 33, Y: 3_000_000}, points[0])
}

func TestBuildCharts(t *testing.T) {
	charts := BuildCharts(squad())

	assert.Equal(t, Bucket{Label: "Attacking Midfield", Count: 2}, charts.Positions[0])
	require.Len(t, charts.TopByMarketValue, 5)
	assert.Equal(t, "Achraf Hakimi", charts.TopByMarketValue[0].Name)
	assert.Equal(t, "€60.00m", charts.TopByMarketValue[0].Display)
	assert.Len(t, charts.AgeHistogram, ageHistogramBins)
	assert.Len(t, charts.ValueByPosition, 4)
	assert.Empty(t, charts.HeightVsAge, "stats variant has no heights")
}
