package odhql

import (
	"log/slog"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql/functions"
)

// Interpreter executes parsed statements against in-memory frames. It holds
// no per-query state and may be shared between goroutines as long as its
// registry is not modified concurrently.
type Interpreter struct {
	functions *functions.Registry
}

// NewInterpreter creates an interpreter resolving function calls in reg.
// A nil registry selects functions.Default().
func NewInterpreter(reg *functions.Registry) *Interpreter {
	if reg == nil {
		reg = functions.Default()
	}
	return &Interpreter{functions: reg}
}

// Execute runs u with the built-in functions. sources maps lowercase table
// names to frames; they are never modified.
func Execute(u *Union, sources map[string]*frame.Frame) (*frame.Frame, error) {
	return NewInterpreter(nil).Execute(u, sources)
}

// Run parses and executes query.
func Run(query string, sources map[string]*frame.Frame) (*frame.Frame, error) {
	u, err := Parse(query)
	if err != nil {
		return nil, err
	}
	return Execute(u, sources)
}

// Execute runs u. Semantic failures are *ExecutionError.
func (in *Interpreter) Execute(u *Union, sources map[string]*frame.Frame) (*frame.Frame, error) {
	if len(u.Queries) == 0 {
		return nil, errorf("statement has no queries")
	}
	slog.Debug("executing statement", "queries", len(u.Queries), "sources", len(sources))

	results := make([]*frame.Frame, len(u.Queries))
	for i, q := range u.Queries {
		if len(q.Fields) != len(u.Queries[0].Fields) {
			return nil, errorf("UNION queries must select the same number of fields: query 1 selects %d, query %d selects %d",
				len(u.Queries[0].Fields), i+1, len(q.Fields))
		}
		res, err := in.executeQuery(q, sources)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}

	result := results[0]
	for i, next := range results[1:] {
		merged, err := unionFrames(result, next, i+2)
		if err != nil {
			return nil, err
		}
		result = merged
	}

	if len(u.Order) > 0 {
		keys, err := unionOrderKeys(u.Order, result, u.Queries[0].Fields)
		if err != nil {
			return nil, err
		}
		if result, err = sortFrame(result, keys); err != nil {
			return nil, err
		}
	}
	slog.Debug("statement done", "rows", result.Len(), "columns", result.Width())
	return result, nil
}

// unionFrames appends the rows of next to acc by column position. Names
// come from acc; geometries are reprojected into the CRS of acc.
func unionFrames(acc, next *frame.Frame, query int) (*frame.Frame, error) {
	columns := make([]*frame.Column, acc.Width())
	for j := range columns {
		a := acc.ColumnAt(j)
		b := next.ColumnAt(j).Rename(a.Name())

		if !a.AllNull() && !b.AllNull() && !a.Type().Equivalent(b.Type()) {
			return nil, errorf("UNION column %d (%q) of query %d: expected %s, got %s",
				j+1, a.Name(), query, a.Type(), b.Type())
		}

		if a.Type() == frame.Geometry && b.Type() == frame.Geometry {
			if err := a.RequireCRS("UNION"); err != nil {
				return nil, err
			}
			if err := b.RequireCRS("UNION"); err != nil {
				return nil, err
			}
			reprojected, err := b.Reproject(a.CRS())
			if err != nil {
				return nil, err
			}
			b = reprojected
		}
		columns[j] = a.Append(b)
	}
	return frame.New(acc.Name(), columns...)
}

// unionOrderKeys resolves ORDER BY entries against the merged result.
// Prefixes do not survive a UNION, so a field matches the result column of
// its name first, then the column the first query selected it as, aliased
// or not.
func unionOrderKeys(order []*OrderBy, result *frame.Frame, first []Expression) ([]frame.SortKey, error) {
	keys := make([]frame.SortKey, len(order))
	for i, o := range order {
		var col *frame.Column
		switch t := o.Target.(type) {
		case *OrderByPosition:
			c, err := columnAtPosition(result, t.Position)
			if err != nil {
				return nil, err
			}
			col = c
		case *OrderByAlias:
			c, ok := result.Column(t.Alias)
			if !ok {
				return nil, errorf("ORDER BY: unknown column %q", t.Alias)
			}
			col = c
		case *Field:
			c, ok := result.Column(t.Name)
			if !ok {
				j := selectedField(first, t)
				if j < 0 {
					return nil, errorf("ORDER BY: unknown column %q", t.Name)
				}
				c = result.ColumnAt(j)
			}
			col = c
		default:
			unreachable(o.Target)
		}
		keys[i] = frame.SortKey{Column: col, Descending: o.Direction == Descending}
	}
	return keys, nil
}

// selectedField returns the position at which fields selects f, or -1.
func selectedField(fields []Expression, f *Field) int {
	for j, expr := range fields {
		if a, ok := expr.(*AliasedExpression); ok {
			expr = a.Inner
		}
		if sel, ok := expr.(*Field); ok && sel.Prefix == f.Prefix && sel.Name == f.Name {
			return j
		}
	}
	return -1
}

func columnAtPosition(f *frame.Frame, position int) (*frame.Column, error) {
	if position < 1 || position > f.Width() {
		return nil, errorf("ORDER BY position %d is out of range, the query selects %d columns", position, f.Width())
	}
	return f.ColumnAt(position - 1), nil
}

func sortFrame(f *frame.Frame, keys []frame.SortKey) (*frame.Frame, error) {
	order, err := frame.SortIndex(f.Len(), keys)
	if err != nil {
		return nil, err
	}
	return f.Take(order), nil
}
