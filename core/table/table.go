// Package table provides the typed tabular structure the scoring pipeline works on.
//
// A Table is never mutated after it is built. Every operation that narrows or
// rewrites a table returns a new one, so cached tables can be shared freely
// between concurrent callers.
package table

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrColumnNotFound is returned when an operation targets a column the table does not have.
var ErrColumnNotFound = errors.New("column not found")

// Cell is a single raw value. Blank and unmapped values are not Valid.
type Cell struct {
	Text  string
	Valid bool
}

// Value returns a present cell holding s.
func Value(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// Missing returns an absent cell.
func Missing() Cell {
	return Cell{}
}

// Float parses the cell as a number. Missing, blank, unparsable and
// non-finite values all report false.
func (c Cell) Float() (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Table is a row-oriented table with a fixed header.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// New creates an empty table with the given header. Duplicate names
// resolve to their first occurrence.
func New(columns []string) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return New(nil)
}

// Append adds a row. Used only while building a table.
func (t *Table) Append(cells []Cell) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row has %d cells, header has %d columns", len(cells), len(t.columns))
	}
	t.rows = append(t.rows, slices.Clone(cells))
	return nil
}

// HasColumn reports whether the table has a column with this name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns a copy of the header.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, cells: t.rows[i]}
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{columns: t.columns, index: t.index}
	for _, cells := range t.rows {
		if keep(Row{t: t, cells: cells}) {
			out.rows = append(out.rows, cells)
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.columns)
	out.rows = make([][]Cell, len(t.rows))
	for i, cells := range t.rows {
		out.rows[i] = slices.Clone(cells)
	}
	return out
}

// MapColumn returns a new table where every cell of column name has been
// replaced by fn(cell). It fails with ErrColumnNotFound if the column is absent.
func (t *Table) MapColumn(name string, fn func(Cell) Cell) (*Table, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("map %q: %w", name, ErrColumnNotFound)
	}
	out := &Table{columns: t.columns, index: t.index, rows: make([][]Cell, len(t.rows))}
	for i, cells := range t.rows {
		row := slices.Clone(cells)
		row[idx] = fn(cells[idx])
		out.rows[i] = row
	}
	return out, nil
}

// Unique returns the distinct valid values of a column in first-appearance order.
func (t *Table) Unique(name string) []string {
	idx, ok := t.index[name]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var values []string
	for _, cells := range t.rows {
		c := cells[idx]
		if !c.Valid {
			continue
		}
		if _, dup := seen[c.Text]; dup {
			continue
		}
		seen[c.Text] = struct{}{}
		values = append(values, c.Text)
	}
	return values
}

// Equal reports whether two tables have the same header and the same rows in the same order.
func (t *Table) Equal(other *Table) bool {
	if !slices.Equal(t.columns, other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i := range t.rows {
		if !slices.Equal(t.rows[i], other.rows[i]) {
			return false
		}
	}
	return true
}

// Row is a read-only view of one table row.
type Row struct {
	t     *Table
	cells []Cell
}

// Cell returns the cell in column name, if the column exists.
func (r Row) Cell(name string) (Cell, bool) {
	idx, ok := r.t.index[name]
	if !ok {
		return Cell{}, false
	}
	return r.cells[idx], true
}

// Get returns the text of a present cell.
func (r Row) Get(name string) (string, bool) {
	c, ok := r.Cell(name)
	if !ok || !c.Valid {
		return "", false
	}
	return c.Text, true
}

// Float returns the numeric value of a cell, if it has one.
func (r Row) Float(name string) (float64, bool) {
	c, ok := r.Cell(name)
	if !ok {
		return 0, false
	}
	return c.Float()
}
