// Package table implements the tabular results produced by the tidiers: an
// ordered sequence of named columns with a uniform row count. A column is
// either numeric or string; missing numeric values are NaN. Tables are built
// fresh on each tidier invocation and never mutated afterwards by the library.
package table

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/pkg/errors"
)

// Column is a single named column. Exactly one of Numeric or Strings is set.
type Column struct {
	Name    string
	Numeric []float64
	Strings []string
}

// Len returns the number of entries in the column.
func (c *Column) Len() int {
	if c.Numeric != nil {
		return len(c.Numeric)
	}
	return len(c.Strings)
}

// IsNumeric reports whether the column holds numeric values.
func (c *Column) IsNumeric() bool {
	return c.Numeric != nil
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols  []Column
	nrows int
}

// New creates an empty table. The first appended column fixes the row count.
func New() *Table {
	return &Table{}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.nrows
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	for i := range t.cols {
		if t.cols[i].Name == name {
			return true
		}
	}
	return false
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.cols {
		if t.cols[i].Name == name {
			return &t.cols[i], true
		}
	}
	return nil, false
}

// Numeric returns the values of a numeric column.
func (t *Table) Numeric(name string) ([]float64, bool) {
	c, ok := t.Column(name)
	if !ok || !c.IsNumeric() {
		return nil, false
	}
	return c.Numeric, true
}

// Strings returns the values of a string column.
func (t *Table) Strings(name string) ([]string, bool) {
	c, ok := t.Column(name)
	if !ok || c.IsNumeric() {
		return nil, false
	}
	return c.Strings, true
}

// AddNumeric appends a numeric column. The first column added to an empty
// table fixes the row count; later columns must match it.
func (t *Table) AddNumeric(name string, values []float64) error {
	if err := t.checkAppend(name, len(values)); err != nil {
		return err
	}
	t.cols = append(t.cols, Column{Name: name, Numeric: values})
	t.nrows = len(values)
	return nil
}

// AddString appends a string column.
func (t *Table) AddString(name string, values []string) error {
	if err := t.checkAppend(name, len(values)); err != nil {
		return err
	}
	t.cols = append(t.cols, Column{Name: name, Strings: values})
	t.nrows = len(values)
	return nil
}

func (t *Table) checkAppend(name string, n int) error {
	if len(t.cols) > 0 && n != t.nrows {
		return errors.NewDimensionError("table.Add", t.nrows, n, 0)
	}
	if t.HasColumn(name) {
		return errors.NewValueError("table.Add", "duplicate column name "+name)
	}
	return nil
}

// Bind returns a new table with other's columns appended after t's columns.
// Both tables must have the same row count and disjoint column names. A nil
// receiver or argument acts as an empty table.
func (t *Table) Bind(other *Table) (*Table, error) {
	if t == nil || t.NumCols() == 0 {
		if other == nil {
			return New(), nil
		}
		return other.clone(), nil
	}
	out := t.clone()
	if other == nil {
		return out, nil
	}
	for i := range other.cols {
		c := other.cols[i]
		var err error
		if c.IsNumeric() {
			err = out.AddNumeric(c.Name, c.Numeric)
		} else {
			err = out.AddString(c.Name, c.Strings)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *Table) clone() *Table {
	out := &Table{nrows: t.nrows}
	out.cols = append(out.cols, t.cols...)
	return out
}

// Missing is the sentinel used for absent numeric values.
var Missing = math.NaN()

// FromMatrix builds a table from a dense matrix, naming column j as names[j].
func FromMatrix(names []string, m mat.Matrix) (*Table, error) {
	r, c := m.Dims()
	if len(names) != c {
		return nil, errors.NewDimensionError("table.FromMatrix", c, len(names), 1)
	}
	out := New()
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		for i := 0; i < r; i++ {
			col[i] = m.At(i, j)
		}
		if err := out.AddNumeric(names[j], col); err != nil {
			return nil, err
		}
	}
	return out, nil
}
