// Package dataset bundles the example datasets the chapters work through and
// provides the read-only Table they load into.
//
// Tables are immutable: transforms return a new Table sharing unchanged
// columns with the source. Column kinds are numeric or string; model fitting
// only ever sees numeric columns.
package dataset

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"rethink/errors"
)

// Kind discriminates column storage
type Kind int

const (
	Numeric Kind = iota
	String
)

// Column is a single named column of a Table
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// Len returns the number of values in the column
func (c Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Table is a fixed-schema, read-only data table
type Table struct {
	name string
	cols []Column
	idx  map[string]int
}

// NewTable builds a table from columns. All columns must share a length.
func NewTable(name string, cols ...Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, errors.Newf("table %s: no columns", name)
	}
	n := cols[0].Len()
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Len() != n {
			return nil, errors.Newf("table %s: column %s has %d values, want %d", name, c.Name, c.Len(), n)
		}
		if _, dup := idx[c.Name]; dup {
			return nil, errors.Newf("table %s: duplicate column %s", name, c.Name)
		}
		idx[c.Name] = i
	}
	return &Table{name: name, cols: cols, idx: idx}, nil
}

// Name returns the table name
func (t *Table) Name() string { return t.name }

// Len returns the number of rows
func (t *Table) Len() int { return t.cols[0].Len() }

// Columns returns the column names in schema order
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a numeric column with this name exists
func (t *Table) Has(name string) bool {
	i, ok := t.idx[name]
	return ok && t.cols[i].Kind == Numeric
}

// Column returns the column by name
func (t *Table) Column(name string) (Column, error) {
	i, ok := t.idx[name]
	if !ok {
		return Column{}, errors.NewNotFoundError("column %q in table %s", name, t.name)
	}
	return t.cols[i], nil
}

// Floats returns the values of a numeric column. The slice is shared with the
// table and must not be mutated.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, errors.Newf("column %q in table %s is not numeric", name, t.name)
	}
	return c.Floats, nil
}

// Filter returns a new table containing the rows for which keep returns true.
// The row view passed to keep resolves numeric columns only.
func (t *Table) Filter(keep func(row func(col string) float64) bool) *Table {
	var kept []int
	for r := 0; r < t.Len(); r++ {
		row := func(col string) float64 {
			i, ok := t.idx[col]
			if !ok || t.cols[i].Kind != Numeric {
				return math.NaN()
			}
			return t.cols[i].Floats[r]
		}
		if keep(row) {
			kept = append(kept, r)
		}
	}

	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		nc := Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Numeric {
			nc.Floats = make([]float64, len(kept))
			for j, r := range kept {
				nc.Floats[j] = c.Floats[r]
			}
		} else {
			nc.Strings = make([]string, len(kept))
			for j, r := range kept {
				nc.Strings[j] = c.Strings[r]
			}
		}
		cols[i] = nc
	}
	return &Table{name: t.name, cols: cols, idx: t.idx}
}

// WithColumn returns a new table with an additional numeric column appended
func (t *Table) WithColumn(name string, values []float64) (*Table, error) {
	if len(values) != t.Len() {
		return nil, errors.Newf("table %s: new column %s has %d values, want %d", t.name, name, len(values), t.Len())
	}
	cols := make([]Column, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	cols = append(cols, Column{Name: name, Kind: Numeric, Floats: values})
	return NewTable(t.name, cols...)
}

// Standardized returns a new table with column <name>_std appended: the
// column centered on its mean and scaled by its standard deviation.
func (t *Table) Standardized(name string) (*Table, error) {
	xs, err := t.Floats(name)
	if err != nil {
		return nil, err
	}
	mean, sd := stat.MeanStdDev(xs, nil)
	if sd == 0 {
		return nil, errors.Newf("table %s: column %s is constant, cannot standardize", t.name, name)
	}
	std := make([]float64, len(xs))
	for i, x := range xs {
		std[i] = (x - mean) / sd
	}
	return t.WithColumn(name+"_std", std)
}

// Centered returns a new table with column <name>_c appended: the column
// shifted to mean zero.
func (t *Table) Centered(name string) (*Table, error) {
	xs, err := t.Floats(name)
	if err != nil {
		return nil, err
	}
	mean := stat.Mean(xs, nil)
	centered := make([]float64, len(xs))
	for i, x := range xs {
		centered[i] = x - mean
	}
	return t.WithColumn(name+"_c", centered)
}

// Logged returns a new table with column log_<name> appended
func (t *Table) Logged(name string) (*Table, error) {
	xs, err := t.Floats(name)
	if err != nil {
		return nil, err
	}
	logged := make([]float64, len(xs))
	for i, x := range xs {
		if x <= 0 {
			return nil, errors.Newf("table %s: column %s has non-positive value %g at row %d", t.name, name, x, i)
		}
		logged[i] = math.Log(x)
	}
	return t.WithColumn("log_"+name, logged)
}

// Head formats the first n rows for display
func (t *Table) Head(n int) string {
	if n > t.Len() {
		n = t.Len()
	}
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns(), "  "))
	b.WriteString("\n")
	for r := 0; r < n; r++ {
		vals := make([]string, len(t.cols))
		for i, c := range t.cols {
			if c.Kind == Numeric {
				vals[i] = fmt.Sprintf("%g", c.Floats[r])
			} else {
				vals[i] = c.Strings[r]
			}
		}
		b.WriteString(strings.Join(vals, "  "))
		b.WriteString("\n")
	}
	return b.String()
}
