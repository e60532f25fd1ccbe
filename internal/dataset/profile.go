package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind is an inferred column type.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindBoolean     Kind = "boolean"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
)

// kindThreshold is the fraction of non-missing values that must parse as a
// candidate type for the column to take that type.
const kindThreshold = 0.9

// ColumnProfile describes a single column.
type ColumnProfile struct {
	Name       string       `json:"name"`
	Kind       Kind         `json:"kind"`
	Missing    int          `json:"missing"`
	MissingPct float64      `json:"missing_pct"`
	Stats      *Numeric     `json:"stats,omitempty"`
	Cats       *Categorical `json:"categories,omitempty"`
}

// Numeric holds describe-style statistics for a numeric column.
type Numeric struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

// Categorical holds frequency statistics for a non-numeric column.
type Categorical struct {
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// Profile is the full dataset profile consumed by the pipeline and the UI.
type Profile struct {
	FileName    string          `json:"file_name"`
	Rows        int             `json:"rows"`
	ColumnCount int             `json:"columns"`
	ColumnNames []string        `json:"column_names"`
	Columns     []ColumnProfile `json:"column_profiles"`
	Duplicates  int             `json:"duplicates"`
	MemoryBytes int64           `json:"memory_bytes"`
	Head        [][]string      `json:"head"`

	NumericColumns     []string `json:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
	DatetimeColumns    []string `json:"datetime_columns"`
}

// missingTokens are cell values treated as missing, case-insensitive.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nan":  true,
}

func isMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
}

func parseableDatetime(s string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func parseableBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

// NewProfile computes the profile of a table.
func NewProfile(t *Table, fileName string, headRows int) *Profile {
	if headRows <= 0 {
		headRows = 5
	}

	p := &Profile{
		FileName:    fileName,
		Rows:        len(t.Rows),
		ColumnCount: len(t.Columns),
		ColumnNames: append([]string(nil), t.Columns...),
	}

	for i, name := range t.Columns {
		p.Columns = append(p.Columns, profileColumn(t, i, name))
	}

	for _, col := range p.Columns {
		switch col.Kind {
		case KindNumeric:
			p.NumericColumns = append(p.NumericColumns, col.Name)
		case KindDatetime:
			p.DatetimeColumns = append(p.DatetimeColumns, col.Name)
		default:
			p.CategoricalColumns = append(p.CategoricalColumns, col.Name)
		}
	}

	p.Duplicates = countDuplicates(t.Rows)
	p.MemoryBytes = estimateMemory(t)

	n := headRows
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	for _, row := range t.Rows[:n] {
		p.Head = append(p.Head, append([]string(nil), row...))
	}

	return p
}

func profileColumn(t *Table, idx int, name string) ColumnProfile {
	col := ColumnProfile{Name: name}

	var present []string
	for _, row := range t.Rows {
		if isMissing(row[idx]) {
			col.Missing++
			continue
		}
		present = append(present, strings.TrimSpace(row[idx]))
	}
	if len(t.Rows) > 0 {
		col.MissingPct = round2(float64(col.Missing) / float64(len(t.Rows)) * 100)
	}

	col.Kind = inferKind(present)

	if col.Kind == KindNumeric {
		values := make([]float64, 0, len(present))
		for _, s := range present {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				values = append(values, v)
			}
		}
		col.Stats = describeNumeric(values)
	} else {
		col.Cats = describeCategorical(present)
	}

	return col
}

func inferKind(present []string) Kind {
	if len(present) == 0 {
		return KindCategorical
	}

	var numeric, boolean, datetime int
	for _, s := range present {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			numeric++
			continue
		}
		if parseableBool(s) {
			boolean++
			continue
		}
		if parseableDatetime(s) {
			datetime++
		}
	}

	total := float64(len(present))
	switch {
	case float64(numeric)/total >= kindThreshold:
		return KindNumeric
	case float64(boolean)/total >= kindThreshold:
		return KindBoolean
	case float64(datetime)/total >= kindThreshold:
		return KindDatetime
	default:
		return KindCategorical
	}
}

// describeNumeric computes count/mean/std/min/quartiles/max with sample
// standard deviation and linear-interpolation quantiles.
func describeNumeric(values []float64) *Numeric {
	n := &Numeric{Count: len(values)}
	if len(values) == 0 {
		return n
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - n.Mean
			ss += d * d
		}
		n.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}

	n.Min = sorted[0]
	n.Max = sorted[len(sorted)-1]
	n.Q25 = quantile(sorted, 0.25)
	n.Q50 = quantile(sorted, 0.50)
	n.Q75 = quantile(sorted, 0.75)
	return n
}

// quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func describeCategorical(present []string) *Categorical {
	c := &Categorical{Count: len(present)}
	if len(present) == 0 {
		return c
	}

	freq := make(map[string]int, len(present))
	for _, s := range present {
		freq[s]++
	}
	c.Unique = len(freq)

	for val, n := range freq {
		if n > c.Freq || (n == c.Freq && val < c.Top) {
			c.Top = val
			c.Freq = n
		}
	}
	return c
}

// countDuplicates counts rows that are exact duplicates of an earlier row.
func countDuplicates(rows [][]string) int {
	seen := make(map[string]bool, len(rows))
	dups := 0
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	return dups
}

// estimateMemory approximates in-memory size: cell bytes plus per-cell and
// per-row bookkeeping overhead.
func estimateMemory(t *Table) int64 {
	var total int64
	for _, row := range t.Rows {
		total += 24 // slice header
		for _, cell := range row {
			total += int64(len(cell)) + 16 // string header
		}
	}
	for _, col := range t.Columns {
		total += int64(len(col)) + 16
	}
	return total
}

// MemoryMB returns the memory estimate in megabytes.
func (p *Profile) MemoryMB() float64 {
	return float64(p.MemoryBytes) / 1024 / 1024
}

// MissingCells returns the total number of missing cells.
func (p *Profile) MissingCells() int {
	total := 0
	for _, col := range p.Columns {
		total += col.Missing
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
