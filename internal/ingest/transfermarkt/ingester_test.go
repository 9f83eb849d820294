package transfermarkt

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/kader/internal/store"
)

const (
	bounouURL = "https://www.transfermarkt.com/yassine-bounou/profil/spieler/1"
	diazURL   = "https://www.transfermarkt.com/brahim-diaz/profil/spieler/3"
	perfURL   = "https://www.transfermarkt.com/morocco/leistungsdaten/verein/3575"
)

func TestExtractRosterBasic(t *testing.T) {
	pages := &fakeFetcher{}
	config := DefaultConfig()
	config.Enrich = false

	ingester := NewIngester(config, pages, nil, quietLogger())
	table, result, err := ingester.ExtractRoster(context.Background(), mustParse(t, rosterPage))
	require.NoError(t, err)

	assert.Equal(t, store.LayoutBasic, table.Layout)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 3, result.Emitted)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, pages.calls, "basic mode fetches no profiles")

	first := table.Players[0]
	assert.Equal(t, 0, first.Ordinal)
	assert.Equal(t, "Yassine Bounou", first.Name)
	assert.EqualValues(t, 33, first.Age.Int32)
	assert.InDelta(t, 3_000_000, first.MarketValue, 0.01)

	aguerd := table.Players[1]
	assert.Equal(t, store.NotAvailable, aguerd.MarketValueDisplay)
	assert.False(t, aguerd.MarketValueKnown)
	assert.Zero(t, aguerd.MarketValue)
}

func TestExtractRosterEnriched(t *testing.T) {
	profiles := &fakeFetcher{
		pages: map[string]string{bounouURL: bounouProfile},
		errs:  map[string]error{diazURL: errors.New("connection reset")},
	}
	var logs bytes.Buffer

	ingester := NewIngester(DefaultConfig(), &fakeFetcher{}, profiles, log.New(&logs, "", 0))
	table, result, err := ingester.ExtractRoster(context.Background(), mustParse(t, rosterPage))
	require.NoError(t, err)

	assert.Equal(t, store.LayoutEnriched, table.Layout)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{bounouURL, diazURL}, profiles.calls)

	bounou := table.Players[0]
	assert.Equal(t, "1,95 m", bounou.HeightDisplay)
	assert.InDelta(t, 1.95, bounou.Height.Float64, 1e-9)
	assert.Equal(t, "left", bounou.Foot)
	assert.Equal(t, "Jun 13, 2013", bounou.DebutDisplay)

	// no profile link
	aguerd := table.Players[1]
	assert.Equal(t, store.NotAvailable, aguerd.HeightDisplay)
	assert.Equal(t, store.NotAvailable, aguerd.Foot)

	// failed profile fetch keeps the row
	diaz := table.Players[2]
	assert.Equal(t, "Brahim Díaz", diaz.Name)
	assert.Equal(t, store.NotAvailable, diaz.HeightDisplay)
	assert.Equal(t, store.NotAvailable, diaz.Foot)
	assert.Equal(t, store.NotAvailable, diaz.DebutDisplay)
	assert.False(t, diaz.Height.Valid)

	assert.Equal(t, 1, result.ProfilesFetched)
	assert.Equal(t, 1, result.ProfileFailures)
	assert.Equal(t, 1, result.ProfilesMissing)
	assert.Equal(t, 1, result.HeightFound)
	assert.Equal(t, 1, result.FootFound)
	assert.Equal(t, 1, result.DebutFound)

	out := logs.String()
	assert.Contains(t, out, "[1/4] Scraping Yassine Bounou... [H:1,95 m, F:left, D:✓]")
	assert.Contains(t, out, "[2/4] Nayef Aguerd - No profile URL")
	assert.Contains(t, out, "row 3")
}

func TestRunRosterUnreachable(t *testing.T) {
	pages := &fakeFetcher{errs: map[string]error{RosterURL: errors.New("unexpected status 403")}}
	ingester := NewIngester(DefaultConfig(), pages, nil, quietLogger())

	table, _, err := ingester.Run(context.Background())
	assert.ErrorIs(t, err, ErrRosterUnreachable)
	assert.Nil(t, table)
}

func TestRunRosterTableMissing(t *testing.T) {
	pages := &fakeFetcher{pages: map[string]string{RosterURL: `<html><body>captcha</body></html>`}}
	ingester := NewIngester(DefaultConfig(), pages, nil, quietLogger())

	_, _, err := ingester.Run(context.Background())
	assert.ErrorIs(t, err, ErrRosterTableMissing)
}

func TestRunWithPerformance(t *testing.T) {
	config := DefaultConfig()
	config.Enrich = false
	config.PerformanceURL = perfURL

	pages := &fakeFetcher{pages: map[string]string{RosterURL: rosterPage, perfURL: performancePage}}
	ingester := NewIngester(config, pages, nil, quietLogger())

	table, result, err := ingester.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.LayoutEnriched, table.Layout)
	assert.Equal(t, 1, result.PerformanceMatched)

	bounou := table.Players[0]
	assert.Equal(t, "0", bounou.GoalsDisplay)
	assert.Equal(t, "540'", bounou.TimePlayed)
	assert.Equal(t, store.NotAvailable, table.Players[1].GoalsDisplay)
}

func TestRunPerformanceFailureIsRecovered(t *testing.T) {
	config := DefaultConfig()
	config.Enrich = false
	config.PerformanceURL = perfURL

	pages := &fakeFetcher{pages: map[string]string{RosterURL: rosterPage}}
	table, result, err := NewIngester(config, pages, nil, quietLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Zero(t, result.PerformanceMatched)
	assert.Equal(t, store.NotAvailable, table.Players[0].GoalsDisplay)
}

func TestExtractRosterInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, _, err := NewIngester(DefaultConfig(), &fakeFetcher{}, nil, quietLogger()).
		ExtractRoster(ctx, mustParse(t, rosterPage))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, table)
	assert.Zero(t, table.Len())
}

func TestPoliteFetcher(t *testing.T) {
	next := &fakeFetcher{pages: map[string]string{"u": "<html></html>"}}
	polite := NewPoliteFetcher(next, time.Second, 2*time.Second)

	var slept []time.Duration
	polite.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for range 20 {
		_, err := polite.Fetch(context.Background(), "u")
		require.NoError(t, err)
	}
	require.Len(t, slept, 20)
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestPoliteFetcherCancelled(t *testing.T) {
	next := &fakeFetcher{}
	polite := NewPoliteFetcher(next, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := polite.Fetch(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, next.calls)
}
