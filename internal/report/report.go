// Package report renders the operator summary printed after a scrape.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/fortuna/kader/internal/ingest/transfermarkt"
	"github.com/fortuna/kader/internal/store"
)

// Roster writes the scraped players, one row per player, with the table's own columns
func Roster(w io.Writer, t *store.Table) {
	columns := t.Layout.Columns()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	header := table.Row{"#"}
	for _, c := range columns {
		header = append(header, c)
	}
	tw.AppendHeader(header)

	for i, p := range t.Players {
		raw := p.Raw()
		row := table.Row{i + 1}
		for _, c := range columns {
			row = append(row, raw.Field(c))
		}
		tw.AppendRow(row)
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d players", t.Len())})
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.Render()
}

// Coverage writes how many players got each enrichment field
func Coverage(w io.Writer, result *transfermarkt.Result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Scrape summary")
	tw.AppendHeader(table.Row{"Field", "Found", "Of"})

	n := result.Emitted
	tw.AppendRows([]table.Row{
		{"Rows", result.Emitted, result.Rows},
		{"Skipped", result.Skipped, result.Rows},
		{"Profiles fetched", result.ProfilesFetched, n},
		{"Profile failures", result.ProfileFailures, n},
		{"Height", result.HeightFound, n},
		{"Foot", result.FootFound, n},
		{"Debut", result.DebutFound, n},
	})
	if result.PerformanceMatched > 0 {
		tw.AppendRow(table.Row{"Performance", result.PerformanceMatched, n})
	}
	tw.AppendFooter(table.Row{"Duration", result.Duration.Round(100*time.Millisecond).String(), ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.Render()
}
