// Package dataset reads tabular files and profiles them for the cleaning
// pipeline.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat indicates a file extension with no reader.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// SupportedExtensions lists the readable dataset file extensions.
var SupportedExtensions = []string{".csv", ".tsv", ".xlsx", ".json"}

// Table is an in-memory tabular dataset. All cells are strings; type
// inference happens at profiling time.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Read loads a dataset file, dispatching on the file extension.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readDelimited(path, ',')
	case ".tsv":
		return readDelimited(path, '\t')
	case ".xlsx":
		return readExcel(path)
	case ".json":
		return readJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedFormat, filepath.Ext(path), strings.Join(SupportedExtensions, ", "))
	}
}

// readDelimited reads CSV or TSV. Files that are not valid UTF-8 are
// decoded as latin-1, mirroring the encoding retry of typical CSV tooling.
func readDelimited(path string, comma rune) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		raw = latin1ToUTF8(raw)
	}

	r := csv.NewReader(strings.NewReader(string(raw)))
	r.Comma = comma
	r.FieldsPerRecord = -1 // tolerate ragged rows
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	t := &Table{Columns: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		t.Rows = append(t.Rows, fitWidth(record, len(header)))
	}
	return t, nil
}

// readExcel reads the first sheet of an XLSX workbook. The first row is the
// header.
func readExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	t := &Table{Columns: rows[0]}
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, fitWidth(row, len(t.Columns)))
	}
	return t, nil
}

// readJSON reads an array of flat JSON objects. Columns are the sorted
// union of keys; numbers keep their source representation.
func readJSON(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	keySet := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			keySet[k] = true
		}
	}
	columns := make([]string, 0, len(keySet))
	for k := range keySet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t := &Table{Columns: columns}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = jsonCell(rec[col])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func jsonCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// fitWidth pads or truncates a record to the header width.
func fitWidth(record []string, width int) []string {
	if len(record) == width {
		return record
	}
	row := make([]string, width)
	copy(row, record)
	return row
}

// latin1ToUTF8 reinterprets bytes as latin-1 code points.
func latin1ToUTF8(b []byte) []byte {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return []byte(sb.String())
}
