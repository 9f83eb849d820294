package transfermarkt

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/fortuna/kader/internal/store"
)

var (
	heightPattern       = regexp.MustCompile(`\d[,.]\d{2}\s*m|\d{3}\s*cm`)
	heightMetersPattern = regexp.MustCompile(`\d[,.]\d{2}\s*m`)
	footLabelPattern    = regexp.MustCompile(`(?i)foot`)
	debutDatePattern    = regexp.MustCompile(`\d{2}[./]\d{2}[./]\d{4}|\w{3}\s+\d{1,2},\s+\d{4}`)

	infoTableFeet = map[string]bool{
		"right": true, "left": true, "both": true,
		"right foot": true, "left foot": true, "both feet": true,
	}
	labeledFeet = map[string]bool{"right": true, "left": true, "both": true}
)

// DefaultTeamNames are the strings that identify the national team in a player's
// international career table
var DefaultTeamNames = []string{"Morocco", "Maroc"}

// Profile holds the fields read from a player's profile page
type Profile struct {
	Height string
	Foot   string
	Debut  string
}

// EmptyProfile is the result when a profile could not be read
func EmptyProfile() Profile {
	return Profile{Height: store.NotAvailable, Foot: store.NotAvailable, Debut: store.NotAvailable}
}

// Strategy tries to read one field from a profile page
type Strategy func(doc *goquery.Document) (string, bool)

// ProfileParser runs an ordered list of strategies per field; the first hit wins
type ProfileParser struct {
	Height []Strategy
	Foot   []Strategy
	Debut  []Strategy
}

// NewProfileParser builds the default strategy lists. teamNames identify
// national team rows when looking for the debut date.
func NewProfileParser(teamNames []string) *ProfileParser {
	if len(teamNames) == 0 {
		teamNames = DefaultTeamNames
	}
	return &ProfileParser{
		Height: []Strategy{heightFromInfoTable, heightFromSpans},
		Foot:   []Strategy{footFromInfoTable, footFromLabel},
		Debut:  []Strategy{debutFromCareerTables(teamNames)},
	}
}

// Parse applies every strategy list to doc. Fields nothing matched are "N/A".
func (p *ProfileParser) Parse(doc *goquery.Document) Profile {
	return Profile{
		Height: firstMatch(doc, p.Height),
		Foot:   firstMatch(doc, p.Foot),
		Debut:  firstMatch(doc, p.Debut),
	}
}

func firstMatch(doc *goquery.Document, strategies []Strategy) string {
	for _, strategy := range strategies {
		if value, ok := strategy(doc); ok {
			return value
		}
	}
	return store.NotAvailable
}

func infoTableContent(doc *goquery.Document) *goquery.Selection {
	return doc.Find(`[class*="info-table__content"]`)
}

func heightFromInfoTable(doc *goquery.Document) (string, bool) {
	return firstText(infoTableContent(doc), func(text string) bool {
		return heightPattern.MatchString(text)
	})
}

func heightFromSpans(doc *goquery.Document) (string, bool) {
	return firstText(doc.Find("span"), func(text string) bool {
		return heightMetersPattern.MatchString(text)
	})
}

func footFromInfoTable(doc *goquery.Document) (string, bool) {
	return firstText(infoTableContent(doc), func(text string) bool {
		return infoTableFeet[strings.ToLower(text)]
	})
}

// footFromLabel finds an element whose own text mentions "Foot" and reads its next sibling
func footFromLabel(doc *goquery.Document) (string, bool) {
	var foot string
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !footLabelPattern.MatchString(ownText(s)) {
			return true
		}
		text := cellText(s.Next())
		if labeledFeet[strings.ToLower(text)] {
			foot = text
			return false
		}
		return true
	})
	return foot, foot != ""
}

func debutFromCareerTables(teamNames []string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		var debut string
		doc.Find("table.items").Find("tr.odd, tr.even").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if !mentionsAny(row.Text(), teamNames) {
				return true
			}
			debut, _ = firstText(row.Find("td.zentriert"), debutDatePattern.MatchString)
			return debut == ""
		})
		return debut, debut != ""
	}
}

func firstText(sel *goquery.Selection, match func(string) bool) (string, bool) {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cellText(s)
		if text != "" && match(text) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

// ownText concatenates the text nodes directly under the selection's first element
func ownText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := s.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func mentionsAny(text string, names []string) bool {
	for _, name := range names {
		if name != "" && strings.Contains(text, name) {
			return true
		}
	}
	return false
}
