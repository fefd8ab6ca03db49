package facet

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Facet names one independently selectable filter dimension
type Facet string

const (
	Category    Facet = "category"
	Subcategory Facet = "subcategory"
	Location    Facet = "location"
	Stakeholder Facet = "stakeholder"
	Timeline    Facet = "timeline"
)

// All lists the facets in display order
var All = []Facet{Category, Subcategory, Location, Stakeholder, Timeline}

// ErrUnknownFacet is returned when a facet name does not match any known facet
var ErrUnknownFacet = errors.New("unknown facet")

// ParseFacet resolves a facet by name
func ParseFacet(name string) (Facet, error) {
	f := Facet(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(All, f) {
		return f, nil
	}
	return "", errors.Wrapf(ErrUnknownFacet, "%q", name)
}

// Label returns the human readable facet title
func (f Facet) Label() string {
	switch f {
	case Category:
		return "Category"
	case Subcategory:
		return "Subcategory"
	case Location:
		return "Location Identified"
	case Stakeholder:
		return "Contributor/Owner Category"
	case Timeline:
		return "Expected Timeline"
	}
	return string(f)
}

// Selections is the per-session filter state. It is a plain value: the
// engine functions take it as input and hand back a sanitized copy.
// An empty slice for a facet imposes no constraint.
type Selections struct {
	Category    []string
	Subcategory []string
	Location    []string
	Stakeholder []string
	Timeline    []int
}

// IsEmpty reports whether no facet carries a selection
func (s Selections) IsEmpty() bool {
	return len(s.Category) == 0 &&
		len(s.Subcategory) == 0 &&
		len(s.Location) == 0 &&
		len(s.Stakeholder) == 0 &&
		len(s.Timeline) == 0
}

// Clone returns a deep copy
func (s Selections) Clone() Selections {
	return Selections{
		Category:    slices.Clone(s.Category),
		Subcategory: slices.Clone(s.Subcategory),
		Location:    slices.Clone(s.Location),
		Stakeholder: slices.Clone(s.Stakeholder),
		Timeline:    slices.Clone(s.Timeline),
	}
}

// Without returns a copy with the given facet cleared
func (s Selections) Without(f Facet) Selections {
	out := s.Clone()
	out.clear(f)
	return out
}

// Reset returns empty selections for every facet
func Reset() Selections {
	return Selections{}
}

func (s *Selections) clear(f Facet) {
	switch f {
	case Category:
		s.Category = nil
	case Subcategory:
		s.Subcategory = nil
	case Location:
		s.Location = nil
	case Stakeholder:
		s.Stakeholder = nil
	case Timeline:
		s.Timeline = nil
	}
}

// Values returns a facet's selection rendered as strings
func (s Selections) Values(f Facet) []string {
	switch f {
	case Category:
		return s.Category
	case Subcategory:
		return s.Subcategory
	case Location:
		return s.Location
	case Stakeholder:
		return s.Stakeholder
	case Timeline:
		return formatYears(s.Timeline)
	}
	return nil
}

// Set replaces one facet's selection. Duplicate values are collapsed and, for
// the timeline facet, values that are not integer years are dropped.
func (s Selections) Set(f Facet, values []string) Selections {
	out := s.Clone()
	switch f {
	case Category:
		out.Category = dedupe(values)
	case Subcategory:
		out.Subcategory = dedupe(values)
	case Location:
		out.Location = dedupe(values)
	case Stakeholder:
		out.Stakeholder = dedupe(values)
	case Timeline:
		out.Timeline = dedupe(parseYears(values))
	}
	return out
}

// SetYears replaces the timeline selection, collapsing duplicate years
func (s Selections) SetYears(years []int) Selections {
	out := s.Clone()
	out.Timeline = dedupe(years)
	return out
}

// Add appends one value to a facet's selection if not already present
func (s Selections) Add(f Facet, value string) Selections {
	values := s.Values(f)
	if slices.Contains(values, value) {
		return s.Clone()
	}
	return s.Set(f, append(slices.Clone(values), value))
}

// Remove drops one value from a facet's selection
func (s Selections) Remove(f Facet, value string) Selections {
	values := slices.DeleteFunc(slices.Clone(s.Values(f)), func(v string) bool {
		return v == value
	})
	return s.Set(f, values)
}

func dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[T]bool, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func parseYears(values []string) []int {
	years := make([]int, 0, len(values))
	for _, v := range values {
		if y, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			years = append(years, y)
		}
	}
	return years
}

func formatYears(years []int) []string {
	if len(years) == 0 {
		return nil
	}
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}
