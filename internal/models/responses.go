package models

// FacetState is the renderer-facing state of one facet
type FacetState struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Selected []string `json:"selected"`
	Options  []string `json:"options"`
}

// ViewResponse is returned by /api/view and every selection mutation
type ViewResponse struct {
	Rows       int           `json:"rows"`
	Total      int           `json:"total"`
	Unfiltered bool          `json:"unfiltered"`
	Facets     []FacetState  `json:"facets"`
	Records    []RecordView  `json:"records"`
	Selections SelectionBody `json:"selections"`
}

// RecordView is the trimmed record shape sent to API clients
type RecordView struct {
	ID         string            `json:"id"`
	Category   string            `json:"category,omitempty"`
	Initiative string            `json:"initiative,omitempty"`
	Fields     map[string]string `json:"fields"`
	AssetURL   string            `json:"asset_url"`
}

// SelectionBody is the wire shape of a full set of facet selections
type SelectionBody struct {
	Category    []string `json:"category"`
	Subcategory []string `json:"subcategory"`
	Location    []string `json:"location"`
	Stakeholder []string `json:"stakeholder"`
	Timeline    []int    `json:"timeline"`
}

// SelectionValueRequest for POST /api/selections/{facet}
type SelectionValueRequest struct {
	Value string `json:"value"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Loaded   bool     `json:"loaded"`
	Source   string   `json:"source,omitempty"`
	Version  string   `json:"version,omitempty"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns,omitempty"`
	LoadedAt string   `json:"loaded_at,omitempty"`
	Sessions int      `json:"sessions"`
}
