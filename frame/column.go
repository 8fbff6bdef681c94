package frame

import (
	"fmt"
	"strings"
	"sync"
)

// Column is an immutable, named vector of values of one semantic type.
// Nulls are stored as nil. Geometry columns may carry a CRS (EPSG code);
// zero means no CRS.
type Column struct {
	name   string
	values []any
	tagged OdhType
	crs    int
	cache  *typeCache
}

type typeCache struct {
	once sync.Once
	typ  OdhType
}

// NewColumn creates a column whose type is inferred from its values.
// The values are copied and normalized.
func NewColumn(name string, values []any) *Column {
	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = Normalize(v)
	}
	return newColumn(name, normalized, 0, 0)
}

// NewTypedColumn creates a column with an explicit type tag. Every non-null
// value must be acceptable for the type.
func NewTypedColumn(name string, typ OdhType, values []any) (*Column, error) {
	normalized := make([]any, len(values))
	for i, v := range values {
		n := Normalize(v)
		if !typ.Accepts(n) {
			return nil, NewExecutionError("value %v at row %d is not valid for %s column %q", v, i, typ, name)
		}
		if typ == Float {
			if iv, ok := n.(int64); ok {
				n = float64(iv)
			}
		}
		normalized[i] = n
	}
	return newColumn(name, normalized, typ, 0), nil
}

// Broadcast repeats a literal n times.
func Broadcast(name string, v any, n int) *Column {
	v = Normalize(v)
	values := make([]any, n)
	for i := range values {
		values[i] = v
	}
	var typ OdhType
	if t, ok := IdentifyValue(v); ok {
		typ = t
	}
	return newColumn(name, values, typ, 0)
}

// Nulls returns a column of n nulls tagged with typ.
func Nulls(name string, typ OdhType, n int) *Column {
	return newColumn(name, make([]any, n), typ, 0)
}

func newColumn(name string, values []any, typ OdhType, crs int) *Column {
	return &Column{name: name, values: values, tagged: typ, crs: crs, cache: &typeCache{}}
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Len returns the number of rows
func (c *Column) Len() int { return len(c.values) }

// Value returns the value at row i
func (c *Column) Value(i int) any { return c.values[i] }

// IsNull reports whether row i is null
func (c *Column) IsNull(i int) bool { return c.values[i] == nil }

// Values returns a copy of the underlying values.
func (c *Column) Values() []any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// CRS returns the EPSG code of a geometry column, or 0.
func (c *Column) CRS() int { return c.crs }

// HasCRS reports whether a CRS is attached.
func (c *Column) HasCRS() bool { return c.crs != 0 }

// Type returns the semantic type, inferring and caching it on first use.
func (c *Column) Type() OdhType {
	if c.tagged != 0 {
		return c.tagged
	}
	c.cache.once.Do(func() {
		c.cache.typ = IdentifyValues(c.values)
	})
	return c.cache.typ
}

// Typed reports whether the column carries an explicit type tag.
func (c *Column) Typed() bool { return c.tagged != 0 }

// AllNull reports whether the column holds no values.
func (c *Column) AllNull() bool {
	for _, v := range c.values {
		if v != nil {
			return false
		}
	}
	return true
}

// Rename returns the column under a new name.
func (c *Column) Rename(name string) *Column {
	return c.derive(name, c.values)
}

// WithCRS returns the column with another CRS attached. Values are not
// reprojected; see Reproject.
func (c *Column) WithCRS(crs int) *Column {
	out := c.derive(c.name, c.values)
	out.crs = crs
	return out
}

// WithType returns the column re-tagged as typ without converting values.
// Use OdhType.Convert to change the representation.
func (c *Column) WithType(typ OdhType) *Column {
	out := c.derive(c.name, c.values)
	out.tagged = typ
	return out
}

// RequireCRS fails when the column has no CRS attached.
func (c *Column) RequireCRS(context string) error {
	if !c.HasCRS() {
		return NewExecutionError("%s: geometry column %q has no CRS", context, c.name)
	}
	return nil
}

// Take builds a new column from the given row positions; -1 yields null.
func (c *Column) Take(rows []int) *Column {
	values := make([]any, len(rows))
	for i, r := range rows {
		if r >= 0 {
			values[i] = c.values[r]
		}
	}
	return c.derive(c.name, values)
}

// Filter keeps the rows where mask is true.
func (c *Column) Filter(mask []bool) (*Column, error) {
	if len(mask) != len(c.values) {
		return nil, NewExecutionError("mask length %d does not match column %q length %d", len(mask), c.name, len(c.values))
	}
	values := make([]any, 0, len(c.values))
	for i, keep := range mask {
		if keep {
			values = append(values, c.values[i])
		}
	}
	return c.derive(c.name, values), nil
}

// Append returns a column holding the rows of c followed by the rows of
// other. Name, type tag and CRS are taken from c.
func (c *Column) Append(other *Column) *Column {
	values := make([]any, 0, len(c.values)+len(other.values))
	values = append(values, c.values...)
	values = append(values, other.values...)
	var typ OdhType
	switch {
	case c.AllNull() && other.AllNull():
		typ = c.tagged
		if typ == 0 {
			typ = other.tagged
		}
	case c.AllNull():
		typ = other.Type()
	case other.AllNull() || c.Type() == other.Type():
		typ = c.Type()
	}
	return newColumn(c.name, values, typ, c.crs)
}

// Equal reports whether both columns hold equal values in the same order.
func (c *Column) Equal(other *Column) bool {
	if c.Len() != other.Len() {
		return false
	}
	for i, v := range c.values {
		w := other.values[i]
		if v == nil || w == nil {
			if v != w {
				return false
			}
			continue
		}
		if !Equal(v, w) {
			return false
		}
	}
	return true
}

// String renders the column for debugging
func (c *Column) String() string {
	parts := make([]string, len(c.values))
	for i, v := range c.values {
		if v == nil {
			parts[i] = "null"
		} else {
			parts[i] = FormatValue(v)
		}
	}
	return fmt.Sprintf("%s %s[%s]", c.name, c.Type(), strings.Join(parts, ", "))
}

// derive copies metadata onto a new value vector. An inferred type is
// pinned so that row selections which drop every value keep it.
func (c *Column) derive(name string, values []any) *Column {
	typ := c.tagged
	if typ == 0 && !c.AllNull() {
		typ = c.Type()
	}
	return newColumn(name, values, typ, c.crs)
}
