package render

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"housing-dashboard/internal/facet"

	"github.com/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type option struct {
	Value    string
	Selected bool
}

type facetField struct {
	Name    string
	Label   string
	Options []option
}

type image struct {
	ID       string
	URL      string
	FileName string
	Missing  bool
}

type page struct {
	Title      string
	Facets     []facetField
	Images     []image
	Columns    []string
	Rows       [][]template.HTML
	Unfiltered bool
	Count      int
	Total      int
}

// Renderer turns a facet.View into the HTML dashboard
type Renderer struct {
	tmpl    *template.Template
	assets  Assets
	title   string
	columns []string
}

func New(assets Assets, title string, columns []string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parse dashboard template")
	}
	return &Renderer{tmpl: tmpl, assets: assets, title: title, columns: columns}, nil
}

// Dashboard writes the full page for view. total is the unfiltered dataset size.
func (r *Renderer) Dashboard(w io.Writer, view facet.View, total int) error {
	p := page{
		Title:      r.title,
		Columns:    r.columns,
		Unfiltered: view.Unfiltered,
		Count:      len(view.Records),
		Total:      total,
	}

	for _, st := range view.Facets {
		field := facetField{Name: string(st.Facet), Label: st.Facet.Label()}
		selected := make(map[string]bool, len(st.Selected))
		for _, v := range st.Selected {
			selected[v] = true
		}
		for _, v := range st.Options {
			field.Options = append(field.Options, option{Value: v, Selected: selected[v]})
		}
		p.Facets = append(p.Facets, field)
	}

	for _, rec := range view.Records {
		p.Images = append(p.Images, image{
			ID:       rec.ID,
			URL:      r.assets.URL(rec.ID),
			FileName: r.assets.FileName(rec.ID),
			Missing:  !r.assets.Exists(rec.ID),
		})

		row := make([]template.HTML, len(r.columns))
		for i, col := range r.columns {
			row[i] = MultilineHTML(rec.Field(col))
		}
		p.Rows = append(p.Rows, row)
	}

	return errors.Wrap(r.tmpl.Execute(w, p), "render dashboard")
}

// MultilineHTML escapes text and turns its line breaks into <br>
func MultilineHTML(text string) template.HTML {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	escaped := template.HTMLEscapeString(text)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
