// Package dataset provides the in-memory tabular model shared by the codecs,
// the cleaning pipeline and the web layer.
//
// A Dataset stores its values column by column. Every operation that changes
// the shape or content of a Dataset returns a new value; the receiver is never
// modified after construction.
package dataset

import (
	"errors"
	"fmt"
)

// ErrRaggedColumns is returned when columns of different lengths are combined.
var ErrRaggedColumns = errors.New("columns have different lengths")

// DuplicateColumnError reports a column name that appears more than once.
type DuplicateColumnError struct {
	Name string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column %q", e.Name)
}

// Dataset is an ordered set of uniquely named, equal-length columns.
type Dataset struct {
	columns []string
	index   map[string]int
	data    [][]Value // data[col][row]
	rows    int
}

// New builds a Dataset from column names and column-major data.
// The slices are copied so later changes by the caller are not observed.
func New(columns []string, data [][]Value) (*Dataset, error) {
	if len(columns) != len(data) {
		return nil, fmt.Errorf("dataset: %d column names for %d columns", len(columns), len(data))
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, &DuplicateColumnError{Name: name}
		}
		index[name] = i
	}

	rows := 0
	if len(data) > 0 {
		rows = len(data[0])
	}

	cols := make([][]Value, len(data))
	for i, col := range data {
		if len(col) != rows {
			return nil, fmt.Errorf("dataset: column %q has %d values, want %d: %w",
				columns[i], len(col), rows, ErrRaggedColumns)
		}
		cols[i] = append([]Value(nil), col...)
	}

	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
		data:    cols,
		rows:    rows,
	}, nil
}

// FromRows builds a Dataset from row-major data.
func FromRows(columns []string, rows [][]Value) (*Dataset, error) {
	data := make([][]Value, len(columns))
	for c := range data {
		data[c] = make([]Value, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("dataset: row %d has %d values, want %d: %w",
				r, len(row), len(columns), ErrRaggedColumns)
		}
		for c, v := range row {
			data[c][r] = v
		}
	}
	return New(columns, data)
}

// MustFromRows is FromRows for static fixtures. It panics on error.
func MustFromRows(columns []string, rows [][]Value) *Dataset {
	ds, err := FromRows(columns, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

// Empty returns a zero-row Dataset with the given columns.
func Empty(columns []string) (*Dataset, error) {
	return New(columns, make([][]Value, len(columns)))
}

// Columns returns a copy of the column names in order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.columns) }

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return d.rows }

// Column returns a copy of the named column's values.
func (d *Dataset) Column(name string) ([]Value, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return append([]Value(nil), d.data[i]...), true
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// HasColumns reports whether every name is a column of d.
func (d *Dataset) HasColumns(names ...string) bool {
	for _, name := range names {
		if _, ok := d.index[name]; !ok {
			return false
		}
	}
	return true
}

// Value returns the value at the given row and column position.
func (d *Dataset) Value(row, col int) Value {
	return d.data[col][row]
}

// Row returns the values of row i in column order.
func (d *Dataset) Row(i int) []Value {
	row := make([]Value, len(d.columns))
	for c := range d.columns {
		row[c] = d.data[c][i]
	}
	return row
}

// Rows returns every row in order.
func (d *Dataset) Rows() [][]Value {
	rows := make([][]Value, d.rows)
	for i := range rows {
		rows[i] = d.Row(i)
	}
	return rows
}

// RenameColumns returns a Dataset with the same values under new names.
func (d *Dataset) RenameColumns(names []string) (*Dataset, error) {
	if len(names) != len(d.columns) {
		return nil, fmt.Errorf("dataset: rename with %d names for %d columns", len(names), len(d.columns))
	}
	return New(names, d.data)
}

// WithColumn returns a Dataset where the named column holds values.
func (d *Dataset) WithColumn(name string, values []Value) (*Dataset, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("dataset: no column %q", name)
	}
	data := make([][]Value, len(d.data))
	copy(data, d.data)
	data[i] = values
	return New(d.columns, data)
}

// SelectRows returns a Dataset holding only the given rows, in the given order.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	data := make([][]Value, len(d.columns))
	for c := range d.columns {
		col := make([]Value, len(rows))
		for i, r := range rows {
			col[i] = d.data[c][r]
		}
		data[c] = col
	}
	return &Dataset{
		columns: d.Columns(),
		index:   d.index,
		data:    data,
		rows:    len(rows),
	}
}

// Equal reports whether both datasets have the same columns and values.
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.rows != other.rows || len(d.columns) != len(other.columns) {
		return false
	}
	for c, name := range d.columns {
		if other.columns[c] != name {
			return false
		}
		for r := 0; r < d.rows; r++ {
			if !Same(d.data[c][r], other.data[c][r]) {
				return false
			}
		}
	}
	return true
}
