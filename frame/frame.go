// Package frame provides the typed columnar data model queries run on.
//
// A Frame is a named, ordered set of uniquely named columns sharing one
// row count. A Column holds values of one semantic type (OdhType) and,
// for geometries, an optional coordinate reference system.
//
// Frames and columns are immutable: every operation returns a new value and
// copies metadata (name, type, CRS) explicitly. Rows are addressed by their
// 0-based position.
//
// Example:
//
//	employees, err := frame.New("employee",
//	    frame.NewColumn("id", []any{0, 1}),
//	    frame.NewColumn("prename", []any{"Dieter", "Lukas"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(employees.Names()) // [id prename]
package frame

import (
	"fmt"
	"strings"
)

// Frame is an immutable table of row-aligned columns.
type Frame struct {
	name    string
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a frame. All columns must have the same length and distinct
// names.
func New(name string, columns ...*Column) (*Frame, error) {
	f := &Frame{
		name:    name,
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if i == 0 {
			f.rows = c.Len()
		}
		if c.Len() != f.rows {
			return nil, NewExecutionError("column %q has %d rows, expected %d", c.Name(), c.Len(), f.rows)
		}
		if _, exists := f.index[c.Name()]; exists {
			return nil, NewExecutionError("duplicate column %q in frame %q", c.Name(), name)
		}
		f.index[c.Name()] = len(f.columns)
		f.columns = append(f.columns, c)
	}
	return f, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(name string, columns ...*Column) *Frame {
	f, err := New(name, columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// Empty returns a frame without columns or rows.
func Empty(name string) *Frame {
	return &Frame{name: name, index: map[string]int{}}
}

// FromRecords builds a frame from row maps, keeping the column order of
// names. Missing keys become nulls.
func FromRecords(name string, names []string, records []map[string]any) (*Frame, error) {
	columns := make([]*Column, len(names))
	for i, n := range names {
		values := make([]any, len(records))
		for r, rec := range records {
			values[r] = rec[n]
		}
		columns[i] = NewColumn(n, values)
	}
	return New(name, columns...)
}

// Name returns the frame name
func (f *Frame) Name() string { return f.name }

// Len returns the number of rows
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns
func (f *Frame) Width() int { return len(f.columns) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column {
	out := make([]*Column, len(f.columns))
	copy(out, f.columns)
	return out
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// ColumnAt returns the i-th column.
func (f *Frame) ColumnAt(i int) *Column { return f.columns[i] }

// Copy returns an independent frame. Columns are immutable and therefore
// shared.
func (f *Frame) Copy() *Frame {
	return f.with(f.name, f.Columns(), f.rows)
}

// Rename returns the frame under another name.
func (f *Frame) Rename(name string) *Frame {
	return f.with(name, f.Columns(), f.rows)
}

// Prefixed renames every column to "prefix.column".
func (f *Frame) Prefixed(prefix string) *Frame {
	columns := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		columns[i] = c.Rename(prefix + "." + c.Name())
	}
	return f.with(f.name, columns, f.rows)
}

// WithColumn replaces the column of the same name or appends c.
func (f *Frame) WithColumn(c *Column) (*Frame, error) {
	if len(f.columns) > 0 && c.Len() != f.rows {
		return nil, NewExecutionError("column %q has %d rows, expected %d", c.Name(), c.Len(), f.rows)
	}
	columns := f.Columns()
	if i, ok := f.index[c.Name()]; ok {
		columns[i] = c
	} else {
		columns = append(columns, c)
	}
	return f.with(f.name, columns, c.Len()), nil
}

// Without drops the named columns; unknown names are ignored.
func (f *Frame) Without(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	columns := make([]*Column, 0, len(f.columns))
	for _, c := range f.columns {
		if !drop[c.Name()] {
			columns = append(columns, c)
		}
	}
	return f.with(f.name, columns, f.rows)
}

// Filter keeps the rows where mask is true.
func (f *Frame) Filter(mask []bool) (*Frame, error) {
	if len(mask) != f.rows {
		return nil, NewExecutionError("mask length %d does not match frame %q length %d", len(mask), f.name, f.rows)
	}
	rows := 0
	for _, keep := range mask {
		if keep {
			rows++
		}
	}
	columns := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		filtered, err := c.Filter(mask)
		if err != nil {
			return nil, err
		}
		columns[i] = filtered
	}
	return f.with(f.name, columns, rows), nil
}

// Take selects rows by position; -1 yields a row of nulls.
func (f *Frame) Take(rows []int) *Frame {
	columns := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		columns[i] = c.Take(rows)
	}
	return f.with(f.name, columns, len(rows))
}

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.columns))
	for j, c := range f.columns {
		row[j] = c.Value(i)
	}
	return row
}

// Records returns every row as a map keyed by column name.
func (f *Frame) Records() []map[string]any {
	records := make([]map[string]any, f.rows)
	for i := range records {
		rec := make(map[string]any, len(f.columns))
		for _, c := range f.columns {
			rec[c.Name()] = c.Value(i)
		}
		records[i] = rec
	}
	return records
}

// String renders the frame for debugging
func (f *Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d rows)\n", f.name, f.rows)
	for _, c := range f.columns {
		b.WriteString("  ")
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *Frame) with(name string, columns []*Column, rows int) *Frame {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Name()] = i
	}
	return &Frame{name: name, columns: columns, index: index, rows: rows}
}
