// Package normalize converts scraped display text into typed values.
//
// Every function here is total: malformed input maps to a documented default
// (zero or unknown) and is never reported as an error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	parenthesizedInt = regexp.MustCompile(`\((\d+)\)`)
	decimalNumber    = regexp.MustCompile(`\d+[,.]\d+`)
	leadingNumber    = regexp.MustCompile(`[\d.,]+`)
	currencySymbols  = strings.NewReplacer("€", "", "$", "", "£", "", "EUR", "", "eur", "")
)

// ParseMarketValue parses Transfermarkt market values like "€4.50m", "750k" or "12,3m".
// The second return value is false when the text carries no value ("-", "N/A", "")
// or could not be parsed; the amount is 0 in that case.
func ParseMarketValue(text string) (float64, bool) {
	value := strings.TrimSpace(text)
	if value == "" || value == "-" || strings.EqualFold(value, "N/A") {
		return 0, false
	}

	value = strings.ToLower(currencySymbols.Replace(value))

	multiplier := 1.0
	switch {
	case strings.Contains(value, "mio") || strings.Contains(value, "m"):
		multiplier = 1_000_000
	case strings.Contains(value, "k"):
		multiplier = 1_000
	}

	number := leadingNumber.FindString(value)
	number = strings.TrimRight(strings.ReplaceAll(number, ",", "."), ".")
	if number == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(number, 64)
	if err != nil || amount < 0 {
		return 0, false
	}
	return amount * multiplier, true
}

// MarketValue returns the market value in euros, 0 when unknown or unparsable
func MarketValue(text string) float64 {
	amount, _ := ParseMarketValue(text)
	return amount
}

// Age extracts an age from "Jan 1, 2000 (24)" or "24"
func Age(text string) (int, bool) {
	if m := parenthesizedInt.FindStringSubmatch(text); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			return age, true
		}
	}
	age, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || age < 0 {
		return 0, false
	}
	return age, true
}

// Height parses a meters value written with either decimal separator ("1,85 m").
// Centimeter values such as "185 cm" are not recognized.
func Height(text string) (float64, bool) {
	number := decimalNumber.FindString(text)
	if number == "" {
		return 0, false
	}
	meters, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return meters, true
}

// ParseCount parses a non-negative integer count such as goals or assists
func ParseCount(text string) (int, bool) {
	text = strings.TrimSpace(text)
	n, err := strconv.Atoi(text)
	if err != nil {
		// pandas-written files render integer columns with NaN as floats ("3.0")
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		n = int(f)
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}

// Count returns the parsed count, 0 when missing or unparsable
func Count(text string) int {
	n, _ := ParseCount(text)
	return n
}
