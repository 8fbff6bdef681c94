package odhql

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// tempPrefix names the columns that hold computed join keys.
const tempPrefix = "__tmp_"

// executeQuery runs a single SELECT: load and join the sources, filter,
// project and sort.
func (in *Interpreter) executeQuery(q *Query, sources map[string]*frame.Frame) (*frame.Frame, error) {
	names := fieldNames(q.Fields)

	working, err := in.resolveSources(q.Sources, sources)
	if err != nil {
		return nil, err
	}

	if q.Filter != nil {
		mask, err := in.evalCondition(q.Filter, working)
		if err != nil {
			return nil, err
		}
		if working, err = working.Filter(mask); err != nil {
			return nil, err
		}
		slog.Debug("filtered", "rows", working.Len())
	}

	var result *frame.Frame
	if working.Len() == 0 {
		result, err = in.emptyResult(q.Fields, names, working)
	} else {
		result, err = in.project(q.Fields, names, working)
	}
	if err != nil {
		return nil, err
	}

	if len(q.Order) > 0 {
		keys, err := queryOrderKeys(q.Order, result, working)
		if err != nil {
			return nil, err
		}
		if result, err = sortFrame(result, keys); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// fieldNames returns the output column name of every selected expression,
// numbering repeats: prename, prename2, prename3.
func fieldNames(fields []Expression) []string {
	names := make([]string, len(fields))
	used := make(map[string]bool, len(fields))
	for i, f := range fields {
		base := outputName(f)
		name := base
		for n := 2; used[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func outputName(expr Expression) string {
	switch e := expr.(type) {
	case *AliasedExpression:
		return e.Alias
	case *Field:
		return e.Name
	case *Function:
		return e.Name
	default:
		unreachable(expr)
		return ""
	}
}

// loadSource copies a source frame and prefixes its columns with the alias.
func loadSource(ds *DataSource, sources map[string]*frame.Frame) (*frame.Frame, error) {
	src, ok := sources[strings.ToLower(ds.Name)]
	if !ok {
		if src, ok = sources[ds.Name]; !ok {
			return nil, errorf("unknown data source %q", ds.Name)
		}
	}
	return src.Copy().Rename(ds.Alias).Prefixed(ds.Alias), nil
}

// resolveSources seeds the working frame with the first source and joins
// the rest in order.
func (in *Interpreter) resolveSources(srcs []Source, sources map[string]*frame.Frame) (*frame.Frame, error) {
	first, ok := srcs[0].(*DataSource)
	if !ok {
		unreachable(srcs[0])
	}
	working, err := loadSource(first, sources)
	if err != nil {
		return nil, err
	}
	aliasesLeft := map[string]bool{first.Alias: true}
	slog.Debug("loaded source", "name", first.Name, "alias", first.Alias, "rows", working.Len())

	for _, src := range srcs[1:] {
		join, ok := src.(*JoinedDataSource)
		if !ok {
			unreachable(src)
		}
		if aliasesLeft[join.Alias] {
			return nil, errorf("duplicate data source alias %q", join.Alias)
		}
		right, err := loadSource(&join.DataSource, sources)
		if err != nil {
			return nil, err
		}
		if working, err = in.join(working, right, join, aliasesLeft); err != nil {
			return nil, err
		}
		aliasesLeft[join.Alias] = true
		slog.Debug("joined source", "name", join.Name, "alias", join.Alias, "type", join.JoinType, "rows", working.Len())
	}
	return working, nil
}

type joinSide int

const (
	sideNone joinSide = iota
	sideLeft
	sideRight
)

// join resolves every equality of the join condition to a key column pair
// and joins right onto left.
func (in *Interpreter) join(left, right *frame.Frame, join *JoinedDataSource, aliasesLeft map[string]bool) (*frame.Frame, error) {
	var leftKeys, rightKeys, temps []string

	for _, cond := range join.Condition.Conditions {
		a, err := expressionSide(cond.Left, join.Alias, aliasesLeft)
		if err != nil {
			return nil, err
		}
		b, err := expressionSide(cond.Right, join.Alias, aliasesLeft)
		if err != nil {
			return nil, err
		}

		leftExpr, rightExpr := cond.Left, cond.Right
		switch {
		case a == sideRight && b != sideRight:
			leftExpr, rightExpr = cond.Right, cond.Left
		case a == sideLeft && b != sideLeft:
		case a == sideNone && b == sideLeft:
			leftExpr, rightExpr = cond.Right, cond.Left
		case a == sideNone && b == sideRight:
		default:
			return nil, errorf("join condition %s must relate %q to a previous data source", cond, join.Alias)
		}

		var leftKey, rightKey string
		if left, leftKey, err = in.keyColumn(left, leftExpr, &temps); err != nil {
			return nil, err
		}
		if right, rightKey, err = in.keyColumn(right, rightExpr, &temps); err != nil {
			return nil, err
		}
		if right, rightKey, err = alignGeometryKey(left, right, leftKey, rightKey, &temps); err != nil {
			return nil, err
		}
		leftKeys = append(leftKeys, leftKey)
		rightKeys = append(rightKeys, rightKey)
	}

	joined, err := left.Join(right, leftKeys, rightKeys, join.JoinType)
	if err != nil {
		return nil, err
	}
	return joined.Without(temps...), nil
}

// expressionSide reports which side of a join the fields of expr belong to.
func expressionSide(expr Expression, alias string, aliasesLeft map[string]bool) (joinSide, error) {
	side := sideNone
	for _, f := range referencedFields(expr) {
		var s joinSide
		switch {
		case f.Prefix == alias:
			s = sideRight
		case aliasesLeft[f.Prefix]:
			s = sideLeft
		default:
			return sideNone, errorf("join condition references unknown data source alias %q", f.Prefix)
		}
		if side != sideNone && side != s {
			return sideNone, errorf("join expression %s mixes fields of both sides", expr)
		}
		side = s
	}
	return side, nil
}

// keyColumn returns the name of the join key column for expr in f. Fields
// are used directly; anything else is evaluated into a temporary column.
func (in *Interpreter) keyColumn(f *frame.Frame, expr Expression, temps *[]string) (*frame.Frame, string, error) {
	if field, ok := expr.(*Field); ok {
		name := field.Prefix + "." + field.Name
		if _, ok := f.Column(name); !ok {
			return nil, "", errorf("unknown column %q in join condition", name)
		}
		return f, name, nil
	}

	col, err := in.evalColumn(expr, f)
	if err != nil {
		return nil, "", err
	}
	name := tempPrefix + uuid.NewString()
	*temps = append(*temps, name)
	out, err := f.WithColumn(col.Rename(name))
	if err != nil {
		return nil, "", err
	}
	return out, name, nil
}

// alignGeometryKey requires a CRS on both columns of a geometry key pair
// and reprojects the right key into the CRS of the left one. The
// reprojected key is a temporary column; the joined geometry keeps its CRS.
func alignGeometryKey(left, right *frame.Frame, leftKey, rightKey string, temps *[]string) (*frame.Frame, string, error) {
	l, _ := left.Column(leftKey)
	r, _ := right.Column(rightKey)
	if l.Type() != frame.Geometry || r.Type() != frame.Geometry {
		return right, rightKey, nil
	}
	if err := l.RequireCRS("JOIN"); err != nil {
		return nil, "", err
	}
	if err := r.RequireCRS("JOIN"); err != nil {
		return nil, "", err
	}
	if l.CRS() == r.CRS() {
		return right, rightKey, nil
	}

	reprojected, err := r.Reproject(l.CRS())
	if err != nil {
		return nil, "", err
	}
	name := tempPrefix + uuid.NewString()
	*temps = append(*temps, name)
	out, err := right.WithColumn(reprojected.Rename(name))
	if err != nil {
		return nil, "", err
	}
	return out, name, nil
}

// referencedFields collects every field used inside expr.
func referencedFields(expr Expression) []*Field {
	switch e := expr.(type) {
	case *Field:
		return []*Field{e}
	case *LiteralExpression:
		return nil
	case *Function:
		var fields []*Field
		for _, arg := range e.Args {
			fields = append(fields, referencedFields(arg)...)
		}
		return fields
	case *AliasedExpression:
		return referencedFields(e.Inner)
	case *CaseExpression:
		var fields []*Field
		for _, r := range e.Rules {
			if r.Condition != nil {
				fields = append(fields, conditionFields(r.Condition)...)
			}
			fields = append(fields, referencedFields(r.Expression)...)
		}
		return fields
	default:
		unreachable(expr)
		return nil
	}
}

func conditionFields(cond Condition) []*Field {
	switch c := cond.(type) {
	case *BinaryCondition:
		return append(referencedFields(c.Left), referencedFields(c.Right)...)
	case *InCondition:
		return referencedFields(c.Left)
	case *IsNullCondition:
		return []*Field{c.Field}
	case *PredicateCondition:
		return referencedFields(c.Function)
	case *FilterCombination:
		var fields []*Field
		for _, sub := range c.Conditions {
			fields = append(fields, conditionFields(sub)...)
		}
		return fields
	case *FilterAlternative:
		var fields []*Field
		for _, sub := range c.Conditions {
			fields = append(fields, conditionFields(sub)...)
		}
		return fields
	default:
		unreachable(cond)
		return nil
	}
}

// project evaluates the selected expressions into the result frame.
func (in *Interpreter) project(fields []Expression, names []string, working *frame.Frame) (*frame.Frame, error) {
	columns := make([]*frame.Column, len(fields))
	for i, expr := range fields {
		col, err := in.evalColumn(expr, working)
		if err != nil {
			return nil, err
		}
		columns[i] = col.Rename(names[i])
	}
	return frame.New("result", columns...)
}

// emptyResult builds the zero-row result. Fields keep the type of their
// source column; computed columns are TEXT.
func (in *Interpreter) emptyResult(fields []Expression, names []string, working *frame.Frame) (*frame.Frame, error) {
	columns := make([]*frame.Column, len(fields))
	for i, expr := range fields {
		inner := expr
		if a, ok := expr.(*AliasedExpression); ok {
			inner = a.Inner
		}
		typ, crs := frame.Text, 0
		switch e := inner.(type) {
		case *Field:
			src, err := lookupField(e, working)
			if err != nil {
				return nil, err
			}
			typ, crs = src.Type(), src.CRS()
		case *Function:
			if _, ok := in.functions.Lookup(e.Name); !ok {
				return nil, errorf("unknown function %q", e.Name)
			}
		}
		columns[i] = frame.Nulls(names[i], typ, 0).WithCRS(crs)
	}
	return frame.New("result", columns...)
}

// queryOrderKeys resolves ORDER BY entries of a single query. Positions and
// aliases refer to the selected columns, fields to any loaded column.
func queryOrderKeys(order []*OrderBy, result, working *frame.Frame) ([]frame.SortKey, error) {
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
				return nil, errorf("ORDER BY: unknown alias %q", t.Alias)
			}
			col = c
		case *Field:
			c, err := lookupField(t, working)
			if err != nil {
				return nil, err
			}
			col = c
		default:
			unreachable(o.Target)
		}
		keys[i] = frame.SortKey{Column: col, Descending: o.Direction == Descending}
	}
	return keys, nil
}
