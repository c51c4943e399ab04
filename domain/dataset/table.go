package dataset

import (
	"fmt"
)

// ColumnKind is the inferred storage kind of a whole column
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindTimestamp   ColumnKind = "timestamp"
)

// Dataset is an ordered table. Every row holds one value per column, in column order.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty dataset with the given header
func New(columns []string) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		index[col] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{columns: cols, index: index}, nil
}

// Append adds a row; the row must have one value per column
func (d *Dataset) Append(row []Value) error {
	if len(row) != len(d.columns) {
		return fmt.Errorf("row has %d values, expected %d", len(row), len(d.columns))
	}
	d.rows = append(d.rows, row)
	return nil
}

// Columns returns a copy of the header
func (d *Dataset) Columns() []string {
	cols := make([]string, len(d.columns))
	copy(cols, d.columns)
	return cols
}

func (d *Dataset) NumRows() int    { return len(d.rows) }
func (d *Dataset) NumColumns() int { return len(d.columns) }

// ColumnIndex returns the position of a column
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Row returns the row slice; callers must not retain it across mutations
func (d *Dataset) Row(i int) []Value {
	return d.rows[i]
}

// Value returns a single cell
func (d *Dataset) Value(row, col int) Value {
	return d.rows[row][col]
}

// Set overwrites a single cell in place
func (d *Dataset) Set(row, col int, v Value) {
	d.rows[row][col] = v
}

// Column returns a copy of all values in the named column
func (d *Dataset) Column(name string) ([]Value, error) {
	c, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]Value, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[c]
	}
	return out, nil
}

// ColumnKind reports numeric when every present value is numeric (an all-missing column
// counts as numeric), timestamp when every present value is a timestamp, categorical otherwise.
func (d *Dataset) ColumnKind(name string) ColumnKind {
	c, ok := d.index[name]
	if !ok {
		return KindCategorical
	}
	numeric, timestamps, present := 0, 0, 0
	for _, row := range d.rows {
		v := row[c]
		if v.IsMissing() {
			continue
		}
		present++
		switch {
		case v.IsNumeric():
			numeric++
		case v.IsTimestamp():
			timestamps++
		}
	}
	switch {
	case numeric == present:
		return KindNumeric
	case timestamps == present:
		return KindTimestamp
	default:
		return KindCategorical
	}
}

// Subset returns a new dataset holding copies of the given rows, in the given order
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{columns: d.columns, index: d.index, rows: make([][]Value, len(indices))}
	for i, idx := range indices {
		row := make([]Value, len(d.columns))
		copy(row, d.rows[idx])
		out.rows[i] = row
	}
	return out
}

// Head returns a copy of the first n rows
func (d *Dataset) Head(n int) *Dataset {
	if n > len(d.rows) || n < 0 {
		n = len(d.rows)
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return d.Subset(indices)
}

// Clone returns a deep copy
func (d *Dataset) Clone() *Dataset {
	return d.Head(len(d.rows))
}

// AddColumn appends a derived column, or overwrites it when it already exists
func (d *Dataset) AddColumn(name string, values []Value) error {
	if len(values) != len(d.rows) {
		return fmt.Errorf("column %q has %d values, expected %d", name, len(values), len(d.rows))
	}
	if c, ok := d.index[name]; ok {
		for i := range d.rows {
			d.rows[i][c] = values[i]
		}
		return nil
	}
	columns := append(d.Columns(), name)
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	d.columns = columns
	d.index = index
	for i := range d.rows {
		d.rows[i] = append(d.rows[i], values[i])
	}
	return nil
}

// Record returns row i as a column-name keyed map of JSON friendly values
func (d *Dataset) Record(i int) map[string]interface{} {
	rec := make(map[string]interface{}, len(d.columns))
	for c, col := range d.columns {
		rec[col] = d.rows[i][c].Interface()
	}
	return rec
}
