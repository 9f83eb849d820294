package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	".", "", ",", "", "'", "", "`", "", "’", "",
	"-", " ", "–", " ", "—", " ",
	"(", "", ")", "",
)

// Fold lowercases text and strips diacritics so "Díaz" and "diaz" compare equal
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// NameKey builds a join key for matching the same player across pages.
// Punctuation is dropped, hyphens become spaces and whitespace is collapsed.
func NameKey(name string) string {
	s := punctuation.Replace(Fold(strings.TrimSpace(name)))
	return strings.Join(strings.Fields(s), " ")
}
