package models

// Interval is a closed year range parsed from a timeline cell
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether year falls within [Start, End]
func (i Interval) Contains(year int) bool {
	return year >= i.Start && year <= i.End
}

// Record represents one initiative row with its derived facet fields.
// Derived fields are filled once when the dataset is built and never mutated.
type Record struct {
	ID             string `json:"id"`
	Category       string `json:"category,omitempty"`
	Subcategory    string `json:"subcategory,omitempty"`
	LocationRaw    string `json:"location_raw,omitempty"`
	StakeholderRaw string `json:"stakeholder_raw,omitempty"`
	TimelineRaw    string `json:"timeline_raw,omitempty"`
	Initiative     string `json:"initiative,omitempty"`

	// Fields holds every source column by name, for display passthrough
	Fields map[string]string `json:"fields,omitempty"`

	LocationTokens    []string  `json:"location_tokens"`
	StakeholderTokens []string  `json:"stakeholder_tokens"`
	Timeline          *Interval `json:"timeline,omitempty"`
}

// Field returns a passthrough column value, or "" when the column is absent
func (r Record) Field(name string) string {
	return r.Fields[name]
}
