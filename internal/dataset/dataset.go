package dataset

import (
	"strings"
	"time"

	"housing-dashboard/internal/config"
	"housing-dashboard/internal/facet"
	"housing-dashboard/internal/models"

	"github.com/pkg/errors"
)

// ErrMissingColumn is returned when a mapped column is absent from the source
var ErrMissingColumn = errors.New("missing column")

// Dataset is the immutable, fully derived record set of one load
type Dataset struct {
	Source   string
	Version  string
	LoadedAt time.Time
	Columns  []string
	Records  []models.Record
	// Skipped counts rows dropped for a blank id or a rejected asset
	Skipped int
}

// KeepFunc decides whether a record id stays in the dataset
type KeepFunc func(id string) bool

// Build maps a raw table onto records and computes every derived field once.
// Configured columns must exist in the table; an empty mapping leaves the
// attribute blank. Rows with a blank id, or rejected by keep, are skipped.
func Build(table *Table, fields config.Fields, keep KeepFunc) (*Dataset, error) {
	index := make(map[string]int, len(table.Columns))
	for i, c := range table.Columns {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	mapped := []string{fields.ID, fields.Category, fields.Subcategory, fields.Location,
		fields.Stakeholder, fields.Timeline, fields.Initiative}
	for _, col := range mapped {
		if col == "" {
			continue
		}
		if _, ok := index[col]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "%q", col)
		}
	}
	if fields.ID == "" {
		return nil, errors.Wrap(ErrMissingColumn, "no id column configured")
	}

	ds := &Dataset{
		Columns: table.Columns,
		Records: make([]models.Record, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		cell := func(col string) string {
			if col == "" {
				return ""
			}
			if i := index[col]; i < len(row) {
				return row[i]
			}
			return ""
		}

		id := cell(fields.ID)
		if strings.TrimSpace(id) == "" || (keep != nil && !keep(id)) {
			ds.Skipped++
			continue
		}

		values := make(map[string]string, len(table.Columns))
		for _, col := range table.Columns {
			values[col] = cell(col)
		}

		rec := models.Record{
			ID:             id,
			Category:       cell(fields.Category),
			Subcategory:    cell(fields.Subcategory),
			LocationRaw:    cell(fields.Location),
			StakeholderRaw: cell(fields.Stakeholder),
			TimelineRaw:    cell(fields.Timeline),
			Initiative:     cell(fields.Initiative),
			Fields:         values,
		}
		rec.LocationTokens = facet.Tokenize(rec.LocationRaw)
		rec.StakeholderTokens = facet.Tokenize(rec.StakeholderRaw)
		rec.Timeline = facet.ParseTimeline(rec.TimelineRaw)

		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}
