package transfermarkt

import (
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/store"
)

// ErrPerformanceTableMissing is returned when a performance page has no stats table
var ErrPerformanceTableMissing = errors.New("performance table not found")

// Performance is one player's line on the squad performance page
type Performance struct {
	Goals   string
	Assists string
	Minutes string
}

type statColumn int

const (
	statNone statColumn = iota
	statGoals
	statAssists
	statMinutes
)

// ParsePerformance reads goals, assists and minutes from a squad performance table.
// Columns are located by header label so column order changes are tolerated.
// The result is keyed by normalize.NameKey of the player name.
func ParsePerformance(doc *goquery.Document) (map[string]Performance, error) {
	table := doc.Find("table.items").First()
	if table.Length() == 0 {
		return nil, ErrPerformanceTableMissing
	}

	columns := map[int]statColumn{}
	bound := map[statColumn]bool{}
	col := 0
	table.Find("thead tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		// each stat reads from its first matching column only
		if stat := classifyHeader(headerLabel(th)); stat != statNone && !bound[stat] {
			columns[col] = stat
			bound[stat] = true
		}
		col += span(th)
	})
	if len(columns) == 0 {
		return nil, ErrPerformanceTableMissing
	}

	lines := make(map[string]Performance)
	playerRows(table).Each(func(_ int, row *goquery.Selection) {
		name := cellText(row.Find("td.hauptlink a").First())
		if name == "" {
			name = cellText(row.Find("td.hauptlink").First())
		}
		if name == "" {
			return
		}

		line := Performance{Goals: store.NotAvailable, Assists: store.NotAvailable, Minutes: store.NotAvailable}
		col := 0
		row.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
			switch columns[col] {
			case statGoals:
				line.Goals = statText(td)
			case statAssists:
				line.Assists = statText(td)
			case statMinutes:
				line.Minutes = statText(td)
			}
			col += span(td)
		})
		lines[normalize.NameKey(name)] = line
	})

	return lines, nil
}

// MergePerformance copies performance columns into rows matched by name and returns
// how many rows matched. Unmatched rows get "N/A".
func MergePerformance(rows []store.RawPlayer, lines map[string]Performance) int {
	matched := 0
	for i := range rows {
		line, ok := lines[normalize.NameKey(rows[i].Name)]
		if !ok {
			rows[i].Goals, rows[i].Assists, rows[i].TimePlayed = store.NotAvailable, store.NotAvailable, store.NotAvailable
			continue
		}
		rows[i].Goals, rows[i].Assists, rows[i].TimePlayed = line.Goals, line.Assists, line.Minutes
		matched++
	}
	return matched
}

// headerLabel prefers a title attribute since stat headers are often icons
func headerLabel(th *goquery.Selection) string {
	if title, ok := th.Attr("title"); ok && title != "" {
		return title
	}
	if title, ok := th.Find("[title]").First().Attr("title"); ok && title != "" {
		return title
	}
	return cellText(th)
}

func classifyHeader(label string) statColumn {
	label = strings.ToLower(label)
	switch {
	case strings.Contains(label, "own goal"), strings.Contains(label, "conceded"),
		strings.Contains(label, " per "), strings.HasPrefix(label, "per "):
		return statNone
	case strings.Contains(label, "goal"):
		return statGoals
	case strings.Contains(label, "assist"):
		return statAssists
	case strings.Contains(label, "minute"):
		return statMinutes
	}
	return statNone
}

// statText maps the site's "-" placeholder to zero
func statText(td *goquery.Selection) string {
	text := cellText(td)
	if text == "-" {
		return "0"
	}
	return text
}

func span(cell *goquery.Selection) int {
	if v, ok := cell.Attr("colspan"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
