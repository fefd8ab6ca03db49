package facet

import (
	"slices"

	"housing-dashboard/internal/models"
)

// State is one facet's sanitized selection and freshly computed options
type State struct {
	Facet    Facet    `json:"facet"`
	Selected []string `json:"selected"`
	Options  []string `json:"options"`
}

// View is everything a renderer needs after one interaction
type View struct {
	Records    []models.Record
	Facets     []State
	Selections Selections
	// Unfiltered is true when no facet constrains the result
	Unfiltered bool
}

// Facet returns the state of a single facet
func (v View) Facet(f Facet) State {
	for _, st := range v.Facets {
		if st.Facet == f {
			return st
		}
	}
	return State{Facet: f}
}

// Refresh runs one full recomputation pass: options for every facet (each
// excluding its own selection), sanitization of every selection, then Apply.
// Sanitizing one facet can widen or narrow another facet's basis, so the
// option/sanitize round repeats until no selection changes. Each extra round
// removes at least one selected value, which bounds the loop.
func Refresh(records []models.Record, sel Selections) View {
	sel = sel.Clone()

	var options map[Facet][]string
	var years []int
	for {
		options = make(map[Facet][]string, len(All))
		for _, f := range All {
			if f == Timeline {
				continue
			}
			options[f] = Options(records, sel, f)
		}
		years = YearOptions(records, sel)
		options[Timeline] = formatYears(years)

		next := Selections{
			Category:    Sanitize(sel.Category, options[Category]),
			Subcategory: Sanitize(sel.Subcategory, options[Subcategory]),
			Location:    Sanitize(sel.Location, options[Location]),
			Stakeholder: Sanitize(sel.Stakeholder, options[Stakeholder]),
			Timeline:    Sanitize(sel.Timeline, years),
		}
		if next.equal(sel) {
			break
		}
		sel = next
	}

	view := View{
		Records:    Apply(records, sel),
		Selections: sel,
		Unfiltered: sel.IsEmpty(),
	}
	for _, f := range All {
		view.Facets = append(view.Facets, State{
			Facet:    f,
			Selected: slices.Clone(sel.Values(f)),
			Options:  options[f],
		})
	}
	return view
}

func (s Selections) equal(o Selections) bool {
	return slices.Equal(s.Category, o.Category) &&
		slices.Equal(s.Subcategory, o.Subcategory) &&
		slices.Equal(s.Location, o.Location) &&
		slices.Equal(s.Stakeholder, o.Stakeholder) &&
		slices.Equal(s.Timeline, o.Timeline)
}
