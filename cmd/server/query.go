package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"housing-dashboard/internal/facet"
	"housing-dashboard/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// selectionFlags collects one filter pass worth of facet selections
type selectionFlags struct {
	category    []string
	subcategory []string
	location    []string
	stakeholder []string
	timeline    []int
	asJSON      bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.category, "category", nil, "category values (repeatable)")
	cmd.Flags().StringArrayVar(&f.subcategory, "subcategory", nil, "subcategory values (repeatable)")
	cmd.Flags().StringArrayVar(&f.location, "location", nil, "location tokens (repeatable)")
	cmd.Flags().StringArrayVar(&f.stakeholder, "stakeholder", nil, "stakeholder tokens (repeatable)")
	cmd.Flags().IntSliceVar(&f.timeline, "timeline", nil, "timeline years (repeatable)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
}

func (f *selectionFlags) selections() facet.Selections {
	return facet.Reset().
		Set(facet.Category, f.category).
		Set(facet.Subcategory, f.subcategory).
		Set(facet.Location, f.location).
		Set(facet.Stakeholder, f.stakeholder).
		SetYears(f.timeline)
}

var (
	queryFlags  selectionFlags
	facetsFlags selectionFlags
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter the dataset once and print the matching initiatives",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, total, err := runFilter(cmd, &queryFlags)
		if err != nil {
			return err
		}
		if queryFlags.asJSON {
			return writeJSONTo(cmd.OutOrStdout(), view.Records)
		}
		printRecords(cmd.OutOrStdout(), view, total)
		return nil
	},
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Print each facet's options under the given selections",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, _, err := runFilter(cmd, &facetsFlags)
		if err != nil {
			return err
		}
		if facetsFlags.asJSON {
			out := make(map[string]facet.State, len(view.Facets))
			for _, st := range view.Facets {
				out[string(st.Facet)] = st
			}
			return writeJSONTo(cmd.OutOrStdout(), out)
		}
		printFacets(cmd.OutOrStdout(), view)
		return nil
	},
}

func init() {
	queryFlags.register(queryCmd)
	facetsFlags.register(facetsCmd)
}

func runFilter(cmd *cobra.Command, flags *selectionFlags) (facet.View, int, error) {
	cache, source, _, err := newDatasetCache(cfg, logger)
	if err != nil {
		return facet.View{}, 0, err
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	ds, err := cache.Get(cmd.Context())
	if err != nil {
		return facet.View{}, 0, err
	}
	return facet.Refresh(ds.Records, flags.selections()), len(ds.Records), nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4B4B")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	textStyle   = cellStyle.Width(60)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func printRecords(w io.Writer, view facet.View, total int) {
	if len(view.Records) == 0 {
		fmt.Fprintln(w, "No initiatives match your filters.")
		return
	}

	rows := make([][]string, 0, len(view.Records))
	for _, rec := range view.Records {
		rows = append(rows, []string{
			rec.ID,
			rec.Category,
			strings.Join(rec.LocationTokens, ", "),
			formatInterval(rec.Timeline),
			rec.Initiative,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Category", "Location", "Timeline", "Initiative").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 4:
				return textStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d of %d initiatives", len(view.Records), total)))
}

func printFacets(w io.Writer, view facet.View) {
	for _, st := range view.Facets {
		fmt.Fprintln(w, labelStyle.Render(st.Facet.Label()))
		if len(st.Selected) > 0 {
			fmt.Fprintln(w, "  selected: "+strings.Join(st.Selected, ", "))
		}
		if len(st.Options) == 0 {
			fmt.Fprintln(w, dimStyle.Render("  (no options)"))
			continue
		}
		fmt.Fprintln(w, "  options:  "+strings.Join(st.Options, ", "))
	}
}

func formatInterval(iv *models.Interval) string {
	switch {
	case iv == nil:
		return ""
	case iv.Start == iv.End:
		return strconv.Itoa(iv.Start)
	}
	return fmt.Sprintf("%d-%d", iv.Start, iv.End)
}

func writeJSONTo(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
