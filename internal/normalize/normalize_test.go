package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/kader/internal/store"
)

func TestMarketValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		known bool
	}{
		{"dash", "-", 0, false},
		{"millions with euro", "€4.50m", 4_500_000, true},
		{"thousands", "750k", 750_000, true},
		{"not available", "N/A", 0, false},
		{"empty", "", 0, false},
		{"comma decimal", "12,3m", 12_300_000, true},
		{"mio suffix", "1,5 Mio. €", 1_500_000, true},
		{"no suffix", "€900", 900, true},
		{"padded", "  €1.00m ", 1_000_000, true},
		{"garbage", "unknown", 0, false},
		{"suffix only", "m", 0, false},
		{"too many separators", "1.2.3m", 0, false},
		{"leading decimal point", ".5m", 500_000, true},
		{"trailing dot", "3.m", 3_000_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := ParseMarketValue(tt.input)
			assert.InDelta(t, tt.want, got, 0.001)
			assert.Equal(t, tt.known, known)
			assert.InDelta(t, tt.want, MarketValue(tt.input), 0.001)
		})
	}
}

func TestMarketValueIsTotal(t *testing.T) {
	inputs := []string{"", " ", "€", "k", "€.m", ",,,", "-1m", "NaN", "Infinity", "1e9m", "€€€4,50mk", "\x00\xff", "９m"}
	for _, in := range inputs {
		got := MarketValue(in)
		assert.False(t, math.IsNaN(got), "input %q", in)
		assert.GreaterOrEqual(t, got, 0.0, "input %q", in)
	}
}

func TestAge(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"Jan 1, 2000 (24)", 24, true},
		{"24", 24, true},
		{" 31 ", 31, true},
		{"(20)", 20, true},
		{"unknown", 0, false},
		{"N/A", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Age(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeight(t *testing.T) {
	h, ok := Height("1,85 m")
	require.True(t, ok)
	assert.InDelta(t, 1.85, h, 1e-9)

	h, ok = Height("1.92m")
	require.True(t, ok)
	assert.InDelta(t, 1.92, h, 1e-9)

	_, ok = Height("185 cm")
	assert.False(t, ok)

	_, ok = Height("N/A")
	assert.False(t, ok)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 7, Count("7"))
	assert.Equal(t, 3, Count("3.0"))
	assert.Equal(t, 0, Count("N/A"))
	assert.Equal(t, 0, Count(""))
	assert.Equal(t, 0, Count("-2"))
	assert.Equal(t, 0, Count("2.5"))

	_, known := ParseCount("")
	assert.False(t, known)
	n, known := ParseCount("0")
	assert.True(t, known)
	assert.Zero(t, n)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantProfile, v)

	v, err = ParseVariant(" Stats ")
	require.NoError(t, err)
	assert.Equal(t, VariantStats, v)

	_, err = ParseVariant("xml")
	assert.Error(t, err)
}

func TestNormalizerProfileVariant(t *testing.T) {
	n := New(VariantProfile)
	p := n.Record(store.RawPlayer{
		Name:        " Achraf Hakimi ",
		Age:         "Nov 4, 1998 (26)",
		Position:    "Right-Back",
		MarketValue: "€60.00m",
		Height:      "1,81 m",
		Foot:        "right",
		Debut:       "Oct 11, 2016",
		Goals:       "9",
	}, 3)

	assert.Equal(t, 3, p.Ordinal)
	assert.Equal(t, "Achraf Hakimi", p.Name)
	assert.True(t, p.Age.Valid)
	assert.EqualValues(t, 26, p.Age.Int32)
	assert.True(t, p.MarketValueKnown)
	assert.InDelta(t, 60_000_000, p.MarketValue, 0.01)
	assert.True(t, p.Height.Valid)
	assert.InDelta(t, 1.81, p.Height.Float64, 1e-9)

	// goals belong to the stats variant
	assert.False(t, p.GoalsKnown)
	assert.Equal(t, "9", p.GoalsDisplay)
}

func TestNormalizerStatsVariant(t *testing.T) {
	n := New(VariantStats)
	p := n.Record(store.RawPlayer{Name: "Youssef En-Nesyri", Age: "27", MarketValue: "-", Height: "1,89 m", Goals: "20", Assists: "N/A"}, 0)

	assert.EqualValues(t, 27, p.Age.Int32)
	assert.False(t, p.MarketValueKnown)
	assert.Zero(t, p.MarketValue)
	assert.False(t, p.Height.Valid)
	assert.True(t, p.GoalsKnown)
	assert.Equal(t, 20, p.Goals)
	assert.False(t, p.AssistsKnown)
	assert.Zero(t, p.Assists)
}

func TestNormalizerTableDropsNamelessRows(t *testing.T) {
	table := New(VariantProfile).Table(store.LayoutBasic, []store.RawPlayer{
		{Name: "A"},
		{Name: "  "},
		{Name: "B"},
	})
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "A", table.Players[0].Name)
	assert.Equal(t, "B", table.Players[1].Name)
	assert.Equal(t, 1, table.Players[1].Ordinal)
}
