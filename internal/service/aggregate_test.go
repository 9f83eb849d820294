package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/store"
)

func fixture() []store.Player {
	return normalize.New(normalize.VariantProfile).Table(store.LayoutBasic, []store.RawPlayer{
		{Name: "Alpha", Age: "(20)", Position: "Goalkeeper", MarketValue: "€1.00m"},
		{Name: "Bravo", Age: "(25)", Position: "Centre-Back", MarketValue: "-"},
		{Name: "Charlie", Age: "N/A", Position: "Goalkeeper", MarketValue: "500k"},
	}).Players
}

func squad() []store.Player {
	return normalize.New(normalize.VariantStats).Table(store.LayoutEnriched, []store.RawPlayer{
		{Name: "Yassine Bounou", Age: "33", Position: "Goalkeeper", Foot: "left", MarketValue: "€3.00m", Height: "1,95 m", Goals: "0", Assists: "0"},
		{Name: "Achraf Hakimi", Age: "26", Position: "Right-Back", Foot: "right", MarketValue: "€60.00m", Height: "1,81 m", Goals: "9", Assists: "12"},
		{Name: "Brahim Díaz", Age: "25", Position: "Attacking Midfield", Foot: "left", MarketValue: "€50.00m", Height: "1,70 m", Goals: "6", Assists: "1"},
		{Name: "Nayef Aguerd", Age: "28", Position: "Centre-Back", Foot: "left", MarketValue: "€30.00m", Height: "1,90 m", Goals: "1", Assists: "N/A"},
		{Name: "Munir El Kajoui", Age: "N/A", Position: "Goalkeeper", Foot: "N/A", MarketValue: "-", Height: "N/A", Goals: "N/A", Assists: "N/A"},
		{Name: "Amine Harit", Age: "27", Position: "Attacking Midfield", Foot: "right", MarketValue: "€8.00m", Height: "1,80 m", Goals: "2", Assists: "4"},
	}).Players
}

func TestFixtureEndToEnd(t *testing.T) {
	players := fixture()

	assert.Equal(t, 1_500_000.0, Sum(players, ColumnMarketValue))
	assert.Equal(t, available(22.5), Mean(players, ColumnAge))

	top := TopN(players, ColumnMarketValue, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "Alpha", top[0].Name)
}

func TestEmptySubset(t *testing.T) {
	var none []store.Player

	assert.Empty(t, TopN(none, ColumnMarketValue, 10))
	assert.NotNil(t, TopN(none, ColumnMarketValue, 10))
	assert.Equal(t, 0.0, Sum(none, ColumnMarketValue))
	assert.False(t, Mean(none, ColumnAge).Available)
	assert.Empty(t, GroupByPosition(none, ColumnMarketValue))

	s := Summarize(none)
	assert.Zero(t, s.Players)
	assert.False(t, s.AverageAge.Available)
	assert.False(t, s.GoalsPerPlayer.Available)

	charts := BuildCharts(none)
	assert.Empty(t, charts.AgeHistogram)
	assert.Empty(t, charts.TopByMarketValue)
	assert.Empty(t, charts.AgeVsMarketValue)
}

func TestMeanOfAllUnknownIsUnavailable(t *testing.T) {
	players := fixture() // basic layout: no heights
	m := Mean(players, ColumnHeight)
	assert.False(t, m.Available)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTopNStableAndKnownOnly(t *testing.T) {
	players := normalize.New(normalize.VariantProfile).Table(store.LayoutBasic, []store.RawPlayer{
		{Name: "First", MarketValue: "€5.00m"},
		{Name: "Unknown", MarketValue: "-"},
		{Name: "Second", MarketValue: "€5.00m"},
		{Name: "Top", MarketValue: "€9.00m"},
	}).Players

	top := TopN(players, ColumnMarketValue, 10)
	names := make([]string, len(top))
	for i, p := range top {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Top", "First", "Second"}, names)
	assert.Empty(t, TopN(players, ColumnMarketValue, 0))
}

func TestGroupByPosition(t *testing.T) {
	groups := GroupByPosition(squad(), ColumnMarketValue)
	require.Len(t, groups, 4)

	assert.Equal(t, "Right-Back", groups[0].Position)
	assert.Equal(t, 60_000_000.0, groups[0].Sum)
	assert.Equal(t, "Attacking Midfield", groups[1].Position)
	assert.Equal(t, 2, groups[1].Count)
	assert.Equal(t, available(29_000_000), groups[1].Mean)

	gk := groups[3]
	assert.Equal(t, "Goalkeeper", gk.Position)
	assert.Equal(t, 2, gk.Count)
	assert.Equal(t, available(3_000_000), gk.Mean, "unknown values are left out of the mean")

	byMean := SortByMean(groups)
	assert.Equal(t, "Right-Back", byMean[0].Position)
	assert.Equal(t, "Goalkeeper", byMean[3].Position)
}

func TestSummarize(t *testing.T) {
	s := Summarize(squad())

	assert.Equal(t, 6, s.Players)
	assert.InDelta(t, (33+26+25+28+27)/5.0, s.AverageAge.Value, 1e-9)
	assert.Equal(t, 151_000_000.0, s.TotalMarketValue)
	assert.InDelta(t, 151_000_000/5.0, s.AverageMarketValue.Value, 1e-6)
	assert.False(t, s.AverageHeight.Available, "stats variant does not derive heights")
	assert.Equal(t, 18, s.TotalGoals)
	assert.Equal(t, 17, s.TotalAssists)
	assert.InDelta(t, 3.0, s.GoalsPerPlayer.Value, 1e-9)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"average_height":null`)
	assert.Contains(t, string(out), `"goals_per_player":3`)
}

func TestParseColumn(t *testing.T) {
	c, err := ParseColumn("height")
	require.NoError(t, err)
	assert.Equal(t, ColumnHeight, c)

	_, err = ParseColumn("name")
	assert.Error(t, err)
}
