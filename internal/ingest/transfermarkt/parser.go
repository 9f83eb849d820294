package transfermarkt

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/kader/internal/store"
)

var (
	// ErrRosterUnreachable is returned when the roster page cannot be fetched
	ErrRosterUnreachable = errors.New("roster page unreachable")

	// ErrRosterTableMissing is returned when the roster page has no player table
	ErrRosterTableMissing = errors.New("could not find player table, page structure may have changed")
)

// RosterRow is one extracted roster row. Index is 1-based, counting every player row
// in the table including skipped ones.
type RosterRow struct {
	Index int
	Raw   store.RawPlayer
}

// RosterCursor walks the player rows of a roster table once, in page order.
// Rows that fail extraction are logged and skipped.
type RosterCursor struct {
	rows    *goquery.Selection
	baseURL string
	logger  *log.Logger

	next    int
	skipped int
}

// NewRosterCursor positions a cursor before the first player row of the first
// table.items in doc
func NewRosterCursor(doc *goquery.Document, baseURL string, logger *log.Logger) (*RosterCursor, error) {
	table := doc.Find("table.items").First()
	if table.Length() == 0 {
		return nil, ErrRosterTableMissing
	}
	if logger == nil {
		logger = log.Default()
	}

	return &RosterCursor{
		rows:    playerRows(table),
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// playerRows selects the odd/even rows that belong to table itself, not to tables nested in its cells
func playerRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr.odd, tr.even").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.ParentsFiltered("table").First().IsSelection(table)
	})
}

// Total returns the number of player rows in the table
func (c *RosterCursor) Total() int {
	return c.rows.Length()
}

// Skipped returns how many rows failed extraction so far
func (c *RosterCursor) Skipped() int {
	return c.skipped
}

// Next returns the next successfully extracted row, or false once the table is exhausted
func (c *RosterCursor) Next() (RosterRow, bool) {
	for c.next < c.rows.Length() {
		index := c.next + 1
		row := c.rows.Eq(c.next)
		c.next++

		raw, err := c.extract(row)
		if err != nil {
			c.skipped++
			c.logger.Printf("  ✗ Error processing player in row %d: %v", index, err)
			continue
		}
		return RosterRow{Index: index, Raw: raw}, true
	}
	return RosterRow{}, false
}

// extract runs ExtractRow, converting a panic into an error
func (c *RosterCursor) extract(row *goquery.Selection) (raw store.RawPlayer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ExtractRow(row, c.baseURL)
}

// ExtractRow reads the display fields of one roster row
func ExtractRow(row *goquery.Selection, baseURL string) (store.RawPlayer, error) {
	nameCell := row.Find("td.hauptlink").Not(".rechts").First()
	if nameCell.Length() == 0 {
		return store.RawPlayer{}, fmt.Errorf("name cell not found")
	}

	link := nameCell.Find("a").First()
	name := cellText(link)
	if name == "" {
		name = cellText(nameCell)
	}
	if name == "" {
		return store.RawPlayer{}, fmt.Errorf("empty player name")
	}

	raw := store.RawPlayer{
		Name:        name,
		Position:    positionText(row),
		Age:         store.NotAvailable,
		MarketValue: store.NotAvailable,
	}

	if centered := row.Find("td.zentriert"); centered.Length() >= 2 {
		raw.Age = cellText(centered.Eq(1))
	}

	if value := row.Find("td.rechts.hauptlink").First(); value.Length() > 0 {
		raw.MarketValue = cellText(value)
	}

	if href, ok := nameCell.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		raw.ProfileURL = absoluteURL(baseURL, strings.TrimSpace(href))
	}

	return raw, nil
}

// positionText reads the nested table under the name cell; the position is its last row
func positionText(row *goquery.Selection) string {
	nested := row.Find("table.inline-table").First()
	if nested.Length() == 0 {
		nested = row.Find("table").First()
	}
	if nested.Length() == 0 {
		return ""
	}

	rows := nested.Find("tr")
	if rows.Length() == 0 {
		return cellText(nested)
	}
	return cellText(rows.Last())
}

// cellText returns the element text with whitespace runs collapsed
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
