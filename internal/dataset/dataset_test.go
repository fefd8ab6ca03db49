package dataset

import (
	"testing"

	"housing-dashboard/internal/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() config.Fields {
	return config.Fields{
		ID:          "ID",
		Category:    "Category",
		Subcategory: "Sub-Category",
		Location:    "Location Identified",
		Stakeholder: "Owner",
		Timeline:    "Timeline",
		Initiative:  "Updated Initiative",
	}
}

func testTable() *Table {
	return &Table{
		Columns: []string{"ID", "Category", "Sub-Category", "Location Identified", "Owner", "Timeline", "Updated Initiative"},
		Rows: [][]string{
			{"101", "Housing", "Supply", "NS, NB", "Government", "2022-2024", "Build more\nhomes"},
			{"102", "Finance", "", "NB", "Industry, ", "2025", "Lend"},
			{"", "Orphan", "", "", "", "", ""},
			{"103", "Policy"},
		},
	}
}

func TestBuild(t *testing.T) {
	ds, err := Build(testTable(), testFields(), nil)
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)
	assert.Equal(t, 1, ds.Skipped)

	r := ds.Records[0]
	assert.Equal(t, "101", r.ID)
	assert.Equal(t, []string{"NS", "NB"}, r.LocationTokens)
	assert.Equal(t, []string{"Government"}, r.StakeholderTokens)
	require.NotNil(t, r.Timeline)
	assert.Equal(t, 2022, r.Timeline.Start)
	assert.Equal(t, 2024, r.Timeline.End)
	assert.Equal(t, "Build more\nhomes", r.Initiative)
	assert.Equal(t, "NS, NB", r.Field("Location Identified"))

	assert.Equal(t, []string{"Industry"}, ds.Records[1].StakeholderTokens)

	short := ds.Records[2]
	assert.Equal(t, "103", short.ID)
	assert.Empty(t, short.LocationTokens)
	assert.Nil(t, short.Timeline)
	assert.Equal(t, "", short.Field("Owner"))
}

func TestBuild_KeepFunc(t *testing.T) {
	ds, err := Build(testTable(), testFields(), func(id string) bool { return id != "102" })
	require.NoError(t, err)
	assert.Len(t, ds.Records, 2)
	assert.Equal(t, 2, ds.Skipped)
}

func TestBuild_MissingColumn(t *testing.T) {
	fields := testFields()
	fields.Timeline = "Expected Timeline"
	_, err := Build(testTable(), fields, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "Expected Timeline")
}

func TestBuild_OptionalColumnUnmapped(t *testing.T) {
	fields := testFields()
	fields.Timeline = ""
	ds, err := Build(testTable(), fields, nil)
	require.NoError(t, err)
	for _, r := range ds.Records {
		assert.Nil(t, r.Timeline)
	}
}
