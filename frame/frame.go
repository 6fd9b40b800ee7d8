// Package frame provides a minimal ordered tabular dataset: named columns
// over ordered rows of open column-to-value mappings. It covers the slice of
// dataframe behavior this repository needs (CSV/JSON codecs, concatenation,
// de-duplication, value filtering) and nothing more.
package frame

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/eazure-dev/eazure/tables"
)

// Frame is an ordered sequence of rows sharing a column order. Rows are open
// mappings; a row missing a column yields an empty value on encode.
type Frame struct {
	columns []string
	rows    []map[string]any
}

// New creates an empty frame with the given column order.
func New(columns ...string) *Frame {
	return &Frame{columns: append([]string(nil), columns...)}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Row returns the i-th row. The returned map is the frame's own; callers
// mutating it mutate the frame.
func (f *Frame) Row(i int) map[string]any { return f.rows[i] }

// Append adds a row. Columns not yet known to the frame are appended to the
// column order, sorted within each batch of new names so the order is
// deterministic regardless of map iteration.
func (f *Frame) Append(row map[string]any) {
	var missing []string
	for k := range row {
		if !f.hasColumn(k) {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	f.columns = append(f.columns, missing...)
	f.rows = append(f.rows, row)
}

func (f *Frame) hasColumn(name string) bool {
	for _, c := range f.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Concat appends every row of other to f. Column orders are merged with f's
// columns first.
func (f *Frame) Concat(other *Frame) {
	for _, row := range other.rows {
		f.Append(row)
	}
}

// Drop removes the named columns from the column order and from every row.
func (f *Frame) Drop(columns ...string) {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	kept := f.columns[:0]
	for _, c := range f.columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	f.columns = kept
	for _, row := range f.rows {
		for c := range drop {
			delete(row, c)
		}
	}
}

// Filter keeps only rows whose value in the column, rendered as a string,
// appears in the allowed set. Rows lacking the column are dropped.
func (f *Frame) Filter(column string, allowed []string) {
	ok := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		ok[v] = true
	}
	kept := f.rows[:0]
	for _, row := range f.rows {
		v, has := row[column]
		if has && ok[render(v)] {
			kept = append(kept, row)
		}
	}
	f.rows = kept
}

// DropDuplicates keeps the first row for each distinct combination of the
// given columns. An empty column list dedupes over all columns.
func (f *Frame) DropDuplicates(columns []string) {
	if len(columns) == 0 {
		columns = f.columns
	}
	seen := make(map[string]bool, len(f.rows))
	kept := f.rows[:0]
	for _, row := range f.rows {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = render(row[c])
		}
		k := strings.Join(parts, "\x00")
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, row)
	}
	f.rows = kept
}

// Entities returns the rows as table entities in row order. Key columns are
// not added here; use tables.AssignKeys on the result.
func (f *Frame) Entities() []tables.Entity {
	out := make([]tables.Entity, len(f.rows))
	for i, row := range f.rows {
		out[i] = tables.Entity(row)
	}
	return out
}

// FromEntities builds a frame from entities, preserving entity order. The
// column order is the sorted union of all columns seen.
func FromEntities(entities []tables.Entity) *Frame {
	f := New()
	for _, e := range entities {
		for _, c := range e.Columns() {
			if !f.hasColumn(c) {
				f.columns = append(f.columns, c)
			}
		}
		f.rows = append(f.rows, map[string]any(e))
	}
	return f
}

// ReadCSV decodes a header-first CSV stream. All values are strings.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return New(), nil
	}
	f := New(records[0]...)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(rec))
		for i, v := range rec {
			if i < len(f.columns) {
				row[f.columns[i]] = v
			}
		}
		f.rows = append(f.rows, row)
	}
	return f, nil
}

// WriteCSV encodes the frame as header-first CSV.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(f.columns))
	for _, row := range f.rows {
		for i, c := range f.columns {
			rec[i] = render(row[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadJSON decodes a records-oriented JSON array ([{col: value, ...}, ...]).
func ReadJSON(r io.Reader) (*Frame, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("read json records: %w", err)
	}
	f := New()
	for _, row := range records {
		f.Append(row)
	}
	return f, nil
}

// WriteJSON encodes the frame as a records-oriented JSON array.
func (f *Frame) WriteJSON(w io.Writer) error {
	records := make([]map[string]any, len(f.rows))
	for i, row := range f.rows {
		records[i] = row
	}
	if records == nil {
		records = []map[string]any{}
	}
	if err := json.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("write json records: %w", err)
	}
	return nil
}

func render(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
