package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary renders the profile as the plain-text block the agent prompts
// consume: file facts, dtypes, missing values, duplicates, memory, a head
// sample and describe-style statistics.
func (p *Profile) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", p.FileName)
	fmt.Fprintf(&b, "Rows: %d\n", p.Rows)
	fmt.Fprintf(&b, "Columns: %d\n", p.ColumnCount)
	fmt.Fprintf(&b, "Column Names: [%s]\n", strings.Join(p.ColumnNames, ", "))

	b.WriteString("Data Types:\n")
	for _, col := range p.Columns {
		fmt.Fprintf(&b, "  %s: %s\n", col.Name, col.Kind)
	}

	b.WriteString("Missing Values:\n")
	anyMissing := false
	for _, col := range p.Columns {
		if col.Missing > 0 {
			fmt.Fprintf(&b, "  %s: %d (%.2f%%)\n", col.Name, col.Missing, col.MissingPct)
			anyMissing = true
		}
	}
	if !anyMissing {
		b.WriteString("  None\n")
	}

	fmt.Fprintf(&b, "Duplicate Rows: %d\n", p.Duplicates)
	fmt.Fprintf(&b, "Memory Usage: %.2f MB\n", p.MemoryMB())

	fmt.Fprintf(&b, "\nSample Data (first %d rows):\n", len(p.Head))
	b.WriteString(renderTable(p.ColumnNames, p.Head))

	b.WriteString("\nBasic Statistics:\n")
	b.WriteString(p.renderStatistics())

	return b.String()
}

// renderStatistics renders per-column describe output as an aligned table.
func (p *Profile) renderStatistics() string {
	header := []string{"column", "count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}
	var rows [][]string

	for _, col := range p.Columns {
		row := make([]string, len(header))
		row[0] = col.Name
		for i := 1; i < len(row); i++ {
			row[i] = "-"
		}
		switch {
		case col.Stats != nil:
			s := col.Stats
			row[1] = strconv.Itoa(s.Count)
			row[5] = formatFloat(s.Mean)
			row[6] = formatFloat(s.Std)
			row[7] = formatFloat(s.Min)
			row[8] = formatFloat(s.Q25)
			row[9] = formatFloat(s.Q50)
			row[10] = formatFloat(s.Q75)
			row[11] = formatFloat(s.Max)
		case col.Cats != nil:
			c := col.Cats
			row[1] = strconv.Itoa(c.Count)
			row[2] = strconv.Itoa(c.Unique)
			row[3] = truncateCell(c.Top, 24)
			row[4] = strconv.Itoa(c.Freq)
		}
		rows = append(rows, row)
	}

	return renderTable(header, rows)
}

// OverviewMarkdown renders the profile as the UI overview document.
// The caller supplies the section heading, so none is emitted here.
func (p *Profile) OverviewMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "**File:** `%s`\n\n", p.FileName)
	fmt.Fprintf(&b, "| Rows | Columns | Missing Cells | Duplicate Rows | Memory |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %.2f MB |\n\n",
		p.Rows, p.ColumnCount, p.MissingCells(), p.Duplicates, p.MemoryMB())

	b.WriteString("### Columns\n\n")
	b.WriteString("| Column | Type | Missing | Missing % |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, col := range p.Columns {
		fmt.Fprintf(&b, "| %s | %s | %d | %.2f%% |\n", col.Name, col.Kind, col.Missing, col.MissingPct)
	}

	return b.String()
}

// renderTable renders rows as a space-aligned plain-text table.
func renderTable(header []string, rows [][]string) string {
	if len(header) == 0 {
		return "  (empty)\n"
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("  ")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(cell)
			if i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", w-len(cell)+2))
			}
		}
		b.WriteString("\n")
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	return s
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
