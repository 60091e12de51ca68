// Package table holds the in-memory CSV dataset a translation job works on.
//
// Cells are kept as strings exactly as read; an empty string is a missing
// value. Each column carries an inferred Kind so translated values can be
// coerced back to the type of their source column.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrDuplicateColumn is returned when a header names the same column twice.
var ErrDuplicateColumn = errors.New("duplicate column")

// Table is a rows × named columns dataset. It is not safe for concurrent
// mutation.
type Table struct {
	columns []string
	index   map[string]int
	kinds   []Kind
	rows    [][]string
}

// New builds a table from a header and rows. Short rows are padded with empty
// cells; rows longer than the header are rejected.
func New(columns []string, rows [][]string) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, len(rows)),
	}
	for i, name := range t.columns {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		t.index[name] = i
	}
	for r, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(columns))
		}
		cells := make([]string, len(columns))
		copy(cells, row)
		t.rows[r] = cells
	}
	t.inferKinds()
	return t, nil
}

// Read parses a UTF-8 CSV stream whose first record is the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return New(header, records[1:])
}

// ReadFile loads a table from path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input CSV: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write serialises the table as CSV, header first.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(t.rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile replaces path with the table contents. The data is written to a
// temporary file in the same directory and renamed over path, so a reader
// never observes a half-written file.
func (t *Table) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := t.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush output CSV: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace output CSV: %w", err)
	}
	return nil
}

// Columns returns the header in file order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Get returns the cell at row for column. Unknown columns read as empty.
func (t *Table) Get(row int, column string) string {
	c, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[row][c]
}

// Set stores value at row for column.
func (t *Table) Set(row int, column, value string) error {
	c, ok := t.index[column]
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	t.rows[row][c] = value
	return nil
}

// Kind returns the inferred kind of column.
func (t *Table) Kind(column string) Kind {
	c, ok := t.index[column]
	if !ok {
		return KindString
	}
	return t.kinds[c]
}

// IsBlank reports whether the cell holds no value.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (t *Table) inferKinds() {
	t.kinds = make([]Kind, len(t.columns))
	values := make([]string, len(t.rows))
	for c := range t.columns {
		for r, row := range t.rows {
			values[r] = row[c]
		}
		t.kinds[c] = Infer(values)
	}
}
