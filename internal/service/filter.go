package service

import (
	"sort"
	"strings"

	"github.com/fortuna/kader/internal/normalize"
	"github.com/fortuna/kader/internal/store"
)

// All disables a categorical predicate
const All = "All"

// FilterSpec selects roster rows. Active predicates are combined with AND.
type FilterSpec struct {
	Position  string // "" or All matches every position
	Foot      string // "" or All matches every foot
	AgeMin    *int
	AgeMax    *int
	NameQuery string // case and accent insensitive substring
}

func (f FilterSpec) ageActive() bool {
	return f.AgeMin != nil || f.AgeMax != nil
}

// Matches reports whether p satisfies every active predicate.
// Rows with an unknown age never match an age range.
func (f FilterSpec) Matches(p store.Player) bool {
	if active(f.Position) && p.Position != f.Position {
		return false
	}
	if active(f.Foot) && p.Foot != f.Foot {
		return false
	}
	if f.ageActive() {
		if !p.Age.Valid {
			return false
		}
		age := int(p.Age.Int32)
		if f.AgeMin != nil && age < *f.AgeMin {
			return false
		}
		if f.AgeMax != nil && age > *f.AgeMax {
			return false
		}
	}
	if q := strings.TrimSpace(f.NameQuery); q != "" {
		if !strings.Contains(normalize.Fold(p.Name), normalize.Fold(q)) {
			return false
		}
	}
	return true
}

func active(value string) bool {
	return value != "" && !strings.EqualFold(value, All)
}

// Filter returns the matching players in roster order
func Filter(players []store.Player, spec FilterSpec) []store.Player {
	out := make([]store.Player, 0, len(players))
	for _, p := range players {
		if spec.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortByName returns a copy of players ordered by name, ignoring case and accents
func SortByName(players []store.Player) []store.Player {
	out := make([]store.Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		return normalize.Fold(out[i].Name) < normalize.Fold(out[j].Name)
	})
	return out
}

// Options lists the values the filter widgets can offer
type Options struct {
	Positions []string `json:"positions"`
	Feet      []string `json:"feet"`
	AgeMin    *int     `json:"age_min"`
	AgeMax    *int     `json:"age_max"`
}

// FilterOptions collects distinct positions and feet, and the age bounds.
// Empty and "N/A" values are not offered.
func FilterOptions(players []store.Player) Options {
	opts := Options{Positions: []string{}, Feet: []string{}}

	positions := map[string]bool{}
	feet := map[string]bool{}
	for _, p := range players {
		if known(p.Position) && !positions[p.Position] {
			positions[p.Position] = true
			opts.Positions = append(opts.Positions, p.Position)
		}
		if known(p.Foot) && !feet[p.Foot] {
			feet[p.Foot] = true
			opts.Feet = append(opts.Feet, p.Foot)
		}
		if p.Age.Valid {
			age := int(p.Age.Int32)
			if opts.AgeMin == nil || age < *opts.AgeMin {
				opts.AgeMin = intPtr(age)
			}
			if opts.AgeMax == nil || age > *opts.AgeMax {
				opts.AgeMax = intPtr(age)
			}
		}
	}

	sort.Strings(opts.Positions)
	sort.Strings(opts.Feet)
	return opts
}

func known(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != store.NotAvailable
}

func intPtr(v int) *int {
	return &v
}
