package facet

import (
	"slices"
	"sort"

	"housing-dashboard/internal/models"
)

// Apply returns the records matching every non-empty facet selection, in
// dataset order. Within a facet a record matches when it shares at least one
// value with the selection. With no selections the input slice is returned as is.
func Apply(records []models.Record, sel Selections) []models.Record {
	if sel.IsEmpty() {
		return records
	}

	m := newMatcher(sel)
	filtered := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if m.match(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Options computes the sorted option list for a string facet from the records
// matching every other facet. The facet's own selection is ignored.
// Timeline options are rendered as decimal years in numeric order.
func Options(records []models.Record, sel Selections, target Facet) []string {
	if target == Timeline {
		return formatYears(YearOptions(records, sel))
	}

	basis := Apply(records, sel.Without(target))
	seen := make(map[string]bool)
	for _, rec := range basis {
		for _, v := range valuesOf(rec, target) {
			seen[v] = true
		}
	}

	options := make([]string, 0, len(seen))
	for v := range seen {
		options = append(options, v)
	}
	sort.Strings(options)
	return options
}

// YearOptions computes every year covered by a timeline interval among the
// records matching every non-timeline facet, sorted ascending.
func YearOptions(records []models.Record, sel Selections) []int {
	basis := Apply(records, sel.Without(Timeline))
	seen := make(map[int]bool)
	for _, rec := range basis {
		if rec.Timeline == nil {
			continue
		}
		start, end := rec.Timeline.Start, rec.Timeline.End
		if start > end {
			continue
		}
		// counts up to end exactly, so end == math.MaxInt cannot wrap
		for y := start; ; y++ {
			seen[y] = true
			if y == end {
				break
			}
		}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Sanitize drops every selected value missing from valid, keeping the order of
// the survivors. An emptied selection means the facet no longer constrains.
func Sanitize[T comparable](selection, valid []T) []T {
	if len(selection) == 0 {
		return nil
	}
	allowed := make(map[T]bool, len(valid))
	for _, v := range valid {
		allowed[v] = true
	}
	out := make([]T, 0, len(selection))
	for _, v := range selection {
		if allowed[v] {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func valuesOf(rec models.Record, f Facet) []string {
	switch f {
	case Category:
		if rec.Category == "" {
			return nil
		}
		return []string{rec.Category}
	case Subcategory:
		if rec.Subcategory == "" {
			return nil
		}
		return []string{rec.Subcategory}
	case Location:
		return rec.LocationTokens
	case Stakeholder:
		return rec.StakeholderTokens
	}
	return nil
}

// matcher holds the selections as lookup sets for one Apply pass
type matcher struct {
	category    map[string]bool
	subcategory map[string]bool
	location    map[string]bool
	stakeholder map[string]bool
	years       []int
}

func newMatcher(sel Selections) matcher {
	return matcher{
		category:    toSet(sel.Category),
		subcategory: toSet(sel.Subcategory),
		location:    toSet(sel.Location),
		stakeholder: toSet(sel.Stakeholder),
		years:       sel.Timeline,
	}
}

func (m matcher) match(rec models.Record) bool {
	if m.category != nil && !m.category[rec.Category] {
		return false
	}
	if m.subcategory != nil && !m.subcategory[rec.Subcategory] {
		return false
	}
	if m.location != nil && !intersects(rec.LocationTokens, m.location) {
		return false
	}
	if m.stakeholder != nil && !intersects(rec.StakeholderTokens, m.stakeholder) {
		return false
	}
	if len(m.years) > 0 {
		if rec.Timeline == nil {
			return false
		}
		if !slices.ContainsFunc(m.years, rec.Timeline.Contains) {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func intersects(tokens []string, set map[string]bool) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}
