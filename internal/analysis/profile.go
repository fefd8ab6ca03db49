package analysis

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"housing-dashboard/internal/dataset"
	"housing-dashboard/internal/facet"
)

// ColumnProfile holds shape and quality metrics for one source column
type ColumnProfile struct {
	ColumnName      string  `json:"column_name"`
	Type            string  `json:"type"` // int, float, date, year_range, string
	TotalRows       int     `json:"total_rows"`
	NonNullRows     int     `json:"non_null_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	Entropy         float64 `json:"entropy"`
	IsPrimaryKey    bool    `json:"is_primary_key"`
	MultiValue      bool    `json:"multi_value"` // some cell holds more than one token
	DistinctTokens  int     `json:"distinct_tokens"`
	TimelineRate    float64 `json:"timeline_rate"` // share of non-null cells that parse as a timeline
}

// ProfileDataset profiles every column of a loaded dataset
func ProfileDataset(ds *dataset.Dataset) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		values := make([]string, len(ds.Records))
		for i, rec := range ds.Records {
			values[i] = rec.Field(col)
		}
		profiles = append(profiles, ProfileColumn(col, values))
	}
	return profiles
}

// ProfileColumn analyzes the values of a single column
func ProfileColumn(name string, values []string) ColumnProfile {
	profile := ColumnProfile{
		ColumnName: name,
		TotalRows:  len(values),
	}

	uniqueValues := make(map[string]int)
	tokens := make(map[string]bool)
	nonNull := make([]string, 0, len(values))
	timelines := 0

	for _, value := range values {
		if isNull(value) {
			continue
		}
		nonNull = append(nonNull, value)
		uniqueValues[value]++

		parts := facet.Tokenize(value)
		if len(parts) > 1 {
			profile.MultiValue = true
		}
		for _, p := range parts {
			tokens[p] = true
		}
		if facet.ParseTimeline(value) != nil {
			timelines++
		}
	}

	profile.NonNullRows = len(nonNull)
	profile.DistinctCount = len(uniqueValues)
	profile.DistinctTokens = len(tokens)

	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-profile.NonNullRows) / float64(profile.TotalRows)
	}
	if profile.NonNullRows > 0 {
		profile.UniquenessRatio = float64(profile.DistinctCount) / float64(profile.NonNullRows)
		profile.TimelineRate = float64(timelines) / float64(profile.NonNullRows)
	}
	profile.Entropy = calculateEntropy(uniqueValues, profile.NonNullRows)

	// High uniqueness (>95%) and low null rate (<5%)
	profile.IsPrimaryKey = profile.UniquenessRatio > 0.95 && profile.NullRate < 0.05

	profile.Type = inferColumnType(nonNull)
	if profile.Type == "string" && profile.TimelineRate == 1 {
		profile.Type = "year_range"
	}
	return profile
}

func isNull(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "null", "NULL", "None", "nan", "NaN":
		return true
	}
	return false
}

// calculateEntropy computes Shannon entropy
func calculateEntropy(valueCounts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, count := range valueCounts {
		if count > 0 {
			p := float64(count) / float64(total)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// typeSample caps how many non-empty cells decide a column's type
const typeSample = 20

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	time.RFC3339,
}

// inferColumnType narrows from int to float to date to string as sampled
// cells fail to parse. Integers also parse as floats, so int implies float.
func inferColumnType(values []string) string {
	intOK, floatOK, dateOK := true, true, true
	sampled := 0
	for _, raw := range values {
		if sampled == typeSample {
			break
		}
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		sampled++

		if intOK {
			_, err := strconv.Atoi(v)
			intOK = err == nil
		}
		if floatOK {
			_, err := strconv.ParseFloat(v, 64)
			floatOK = err == nil
		}
		if dateOK {
			dateOK = parsesAsDate(v)
		}
	}

	switch {
	case sampled == 0:
		return "string"
	case intOK:
		return "int"
	case floatOK:
		return "float"
	case dateOK:
		return "date"
	}
	return "string"
}

func parsesAsDate(v string) bool {
	return slices.ContainsFunc(dateLayouts, func(layout string) bool {
		_, err := time.Parse(layout, v)
		return err == nil
	})
}
