package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{
		Columns: []string{"id", "name", "score", "joined", "active"},
		Rows: [][]string{
			{"1", "alice", "91.5", "2023-01-02", "true"},
			{"2", "bob", "78.0", "2023-02-10", "false"},
			{"3", "", "NaN", "2023-03-05", "true"},
			{"4", "dave", "60.5", "2023-04-01", "true"},
			{"4", "dave", "60.5", "2023-04-01", "true"},
		},
	}
}

func TestNewProfileBasics(t *testing.T) {
	p := NewProfile(sampleTable(), "sample.csv", 5)

	assert.Equal(t, "sample.csv", p.FileName)
	assert.Equal(t, 5, p.Rows)
	assert.Equal(t, 5, p.ColumnCount)
	assert.Equal(t, 1, p.Duplicates)
	assert.Len(t, p.Head, 5)
}

func TestNewProfileKinds(t *testing.T) {
	p := NewProfile(sampleTable(), "sample.csv", 5)

	kinds := make(map[string]Kind)
	for _, col := range p.Columns {
		kinds[col.Name] = col.Kind
	}

	assert.Equal(t, KindNumeric, kinds["id"])
	assert.Equal(t, KindCategorical, kinds["name"])
	assert.Equal(t, KindNumeric, kinds["score"])
	assert.Equal(t, KindDatetime, kinds["joined"])
	assert.Equal(t, KindBoolean, kinds["active"])

	assert.Contains(t, p.NumericColumns, "score")
	assert.Contains(t, p.DatetimeColumns, "joined")
	assert.Contains(t, p.CategoricalColumns, "name")
}

func TestNewProfileMissing(t *testing.T) {
	p := NewProfile(sampleTable(), "sample.csv", 5)

	var name, score ColumnProfile
	for _, col := range p.Columns {
		switch col.Name {
		case "name":
			name = col
		case "score":
			score = col
		}
	}

	assert.Equal(t, 1, name.Missing)
	assert.InDelta(t, 20.0, name.MissingPct, 1e-9)
	// "NaN" counts as missing.
	assert.Equal(t, 1, score.Missing)
	assert.Equal(t, 2, p.MissingCells())
}

func TestDescribeNumeric(t *testing.T) {
	stats := describeNumeric([]float64{1, 2, 3, 4})

	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 2.5, stats.Mean, 1e-9)
	assert.InDelta(t, 1.29099, stats.Std, 1e-4) // sample std
	assert.InDelta(t, 1.0, stats.Min, 1e-9)
	assert.InDelta(t, 1.75, stats.Q25, 1e-9)
	assert.InDelta(t, 2.5, stats.Q50, 1e-9)
	assert.InDelta(t, 3.25, stats.Q75, 1e-9)
	assert.InDelta(t, 4.0, stats.Max, 1e-9)
}

func TestDescribeNumericSingleValue(t *testing.T) {
	stats := describeNumeric([]float64{7})
	assert.Equal(t, 1, stats.Count)
	assert.Zero(t, stats.Std)
	assert.InDelta(t, 7.0, stats.Q50, 1e-9)
}

func TestDescribeCategorical(t *testing.T) {
	c := describeCategorical([]string{"a", "b", "a", "c"})
	assert.Equal(t, 4, c.Count)
	assert.Equal(t, 3, c.Unique)
	assert.Equal(t, "a", c.Top)
	assert.Equal(t, 2, c.Freq)
}

func TestNewProfileEmptyTable(t *testing.T) {
	p := NewProfile(&Table{Columns: []string{"a"}}, "empty.csv", 5)

	assert.Equal(t, 0, p.Rows)
	assert.Equal(t, 0, p.Duplicates)
	require.Len(t, p.Columns, 1)
	assert.Equal(t, KindCategorical, p.Columns[0].Kind)

	// Rendering must not panic on an empty profile.
	assert.NotEmpty(t, p.Summary())
	assert.NotEmpty(t, p.OverviewMarkdown())
}

func TestSummaryContainsPromptSections(t *testing.T) {
	p := NewProfile(sampleTable(), "sample.csv", 5)
	s := p.Summary()

	assert.Contains(t, s, "File: sample.csv")
	assert.Contains(t, s, "Rows: 5")
	assert.Contains(t, s, "Data Types:")
	assert.Contains(t, s, "Missing Values:")
	assert.Contains(t, s, "Duplicate Rows: 1")
	assert.Contains(t, s, "Sample Data (first 5 rows):")
	assert.Contains(t, s, "Basic Statistics:")
}

func TestSummaryNoMissing(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a"},
		Rows:    [][]string{{"1"}, {"2"}},
	}
	s := NewProfile(tbl, "clean.csv", 5).Summary()

	idx := strings.Index(s, "Missing Values:")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, s[idx:], "None")
}

func TestOverviewMarkdown(t *testing.T) {
	md := NewProfile(sampleTable(), "sample.csv", 5).OverviewMarkdown()

	assert.Contains(t, md, "`sample.csv`")
	assert.Contains(t, md, "| Column | Type | Missing | Missing % |")
	assert.Contains(t, md, "| joined | datetime |")
}
