package functions

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// Kind constrains what a parameter accepts.
type Kind int

const (
	AnyKind Kind = iota
	TextKind
	IntKind
	NumberKind
	BoolKind
	GeometryKind
	DateTimeKind
	RegexKind
)

// String describes the constraint for error messages
func (k Kind) String() string {
	switch k {
	case TextKind:
		return "a string"
	case IntKind:
		return "an integer"
	case NumberKind:
		return "a number"
	case BoolKind:
		return "a boolean"
	case GeometryKind:
		return "a geometry"
	case DateTimeKind:
		return "a datetime"
	case RegexKind:
		return "a regular expression"
	default:
		return "any value"
	}
}

// Param describes one positional parameter.
type Param struct {
	Name     string
	Kind     Kind
	Optional bool
	Default  any
	// Variadic marks the last parameter as repeatable, zero or more times.
	Variadic bool
	// Literal requires a literal value instead of a column.
	Literal bool
	// OneOf restricts a literal to the listed values.
	OneOf []string
}

// Arg is an evaluated argument: either a column or a literal scalar.
type Arg struct {
	Column *frame.Column
	Value  any
}

// Scalar wraps a literal value.
func Scalar(v any) Arg {
	return Arg{Value: frame.Normalize(v)}
}

// ColumnArg wraps a column.
func ColumnArg(c *frame.Column) Arg {
	return Arg{Column: c}
}

// IsLiteral reports whether the argument is a scalar.
func (a Arg) IsLiteral() bool { return a.Column == nil }

// At returns the value for row i, repeating a literal on every row.
func (a Arg) At(i int) any {
	if a.Column == nil {
		return a.Value
	}
	return a.Column.Value(i)
}

// Type returns the column type or the type of the literal. A null literal
// reports TEXT.
func (a Arg) Type() frame.OdhType {
	if a.Column != nil {
		return a.Column.Type()
	}
	t, _ := frame.IdentifyValue(a.Value)
	return t
}

// Materialize returns the argument as a column of n rows.
func (a Arg) Materialize(name string, n int) *frame.Column {
	if a.Column != nil {
		return a.Column
	}
	return frame.Broadcast(name, a.Value, n)
}

func (a Arg) describe() string {
	if a.Column != nil {
		return fmt.Sprintf("column %q of type %s", a.Column.Name(), a.Column.Type())
	}
	if a.Value == nil {
		return "null"
	}
	if s, ok := a.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return frame.FormatValue(a.Value)
}

// Call is one validated invocation of a function.
type Call struct {
	Function *Function
	Args     []Arg
	Rows     int
}

// Param returns the descriptor that applies to argument i.
func (c *Call) Param(i int) Param {
	params := c.Function.Params
	if i >= len(params) {
		return params[len(params)-1]
	}
	return params[i]
}

// Column returns argument i as a column of c.Rows rows.
func (c *Call) Column(i int) *frame.Column {
	return c.Args[i].Materialize(c.Param(i).Name, c.Rows)
}

// Value returns the literal value of argument i.
func (c *Call) Value(i int) any {
	return c.Args[i].Value
}

// Int returns the literal integer of argument i, or def for null.
func (c *Call) Int(i int, def int64) int64 {
	if v, ok := c.Args[i].Value.(int64); ok {
		return v
	}
	return def
}

// Text returns the literal string of argument i, or def for null.
func (c *Call) Text(i int, def string) string {
	if v, ok := c.Args[i].Value.(string); ok {
		return v
	}
	return def
}

// Result builds the result column of the call from values.
func (c *Call) Result(values []any) (*frame.Column, error) {
	if c.Function.Returns != 0 {
		return frame.NewTypedColumn(c.Function.Name, c.Function.Returns, values)
	}
	return frame.NewColumn(c.Function.Name, values), nil
}

// Map applies fn to every non-null value of argument i. Nulls stay null.
func (c *Call) Map(i int, fn func(v any) (any, error)) (*frame.Column, error) {
	values := make([]any, c.Rows)
	arg := c.Args[i]
	for r := range values {
		v := arg.At(r)
		if v == nil {
			continue
		}
		out, err := fn(c.coerce(i, v))
		if err != nil {
			return nil, c.wrap(err)
		}
		values[r] = out
	}
	return c.Result(values)
}

// coerce hands text parameters the text form of v. A TEXT column may hold
// values of other kinds when its storage is mixed.
func (c *Call) coerce(i int, v any) any {
	if v == nil || c.Param(i).Kind != TextKind {
		return v
	}
	if _, ok := v.(string); ok {
		return v
	}
	return frame.FormatValue(v)
}

func (c *Call) wrap(err error) error {
	var execErr *frame.ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	return frame.NewExecutionError("%s: %v", c.Function.Name, err)
}

func (c *Call) fail(i int, constraint string) error {
	return frame.NewExecutionError("%s: argument %q must be %s, got %s",
		c.Function.Name, c.Param(i).Name, constraint, c.Args[i].describe())
}

// check runs the assertions declared by the parameter of argument i.
func (c *Call) check(i int) error {
	p := c.Param(i)
	if p.Literal {
		if _, err := c.AssertValue(i); err != nil {
			return err
		}
	}
	if len(p.OneOf) > 0 {
		if _, err := c.AssertIn(i, p.OneOf...); err != nil {
			return err
		}
	}
	switch p.Kind {
	case TextKind:
		return c.AssertStr(i)
	case IntKind:
		return c.AssertInt(i)
	case NumberKind:
		return c.AssertFloat(i)
	case BoolKind:
		return c.AssertBool(i)
	case GeometryKind:
		return c.AssertGeometry(i)
	case DateTimeKind:
		return c.assertType(i, DateTimeKind, frame.DateTime)
	case RegexKind:
		_, err := c.AssertRegex(i)
		return err
	}
	return nil
}

// assertType accepts null literals, all-null columns and values whose type
// is one of types.
func (c *Call) assertType(i int, kind Kind, types ...frame.OdhType) error {
	a := c.Args[i]
	if a.IsLiteral() && a.Value == nil {
		return nil
	}
	if !a.IsLiteral() && a.Column.AllNull() {
		return nil
	}
	got := a.Type()
	for _, t := range types {
		if got.Equivalent(t) {
			return nil
		}
	}
	return c.fail(i, kind.String())
}

// AssertInt requires an integer literal or integer column.
func (c *Call) AssertInt(i int) error {
	return c.assertType(i, IntKind, frame.Integer)
}

// AssertFloat requires a numeric literal or column.
func (c *Call) AssertFloat(i int) error {
	return c.assertType(i, NumberKind, frame.Integer, frame.Float)
}

// AssertStr requires a text literal or column.
func (c *Call) AssertStr(i int) error {
	return c.assertType(i, TextKind, frame.Text)
}

// AssertBool requires a boolean literal or column.
func (c *Call) AssertBool(i int) error {
	return c.assertType(i, BoolKind, frame.Boolean)
}

// AssertGeometry requires a geometry column.
func (c *Call) AssertGeometry(i int) error {
	if _, ok := c.Args[i].Value.(geom.T); ok {
		return nil
	}
	return c.assertType(i, GeometryKind, frame.Geometry)
}

// AssertValue requires a literal and returns it.
func (c *Call) AssertValue(i int) (any, error) {
	if !c.Args[i].IsLiteral() {
		return nil, c.fail(i, "a literal value")
	}
	return c.Args[i].Value, nil
}

// AssertRegex requires a literal string that compiles as a regular
// expression. A null literal yields a nil pattern.
func (c *Call) AssertRegex(i int) (*regexp.Regexp, error) {
	v, err := c.AssertValue(i)
	if err != nil || v == nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, c.fail(i, RegexKind.String())
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return nil, c.fail(i, "a valid regular expression ("+err.Error()+")")
	}
	return re, nil
}

// AssertIn requires a literal whose text form is one of allowed, ignoring
// case, and returns it lower-cased.
func (c *Call) AssertIn(i int, allowed ...string) (string, error) {
	v, err := c.AssertValue(i)
	if err != nil {
		return "", err
	}
	s := strings.ToLower(frame.FormatValue(v))
	if !slices.Contains(allowed, s) {
		return "", c.fail(i, "one of "+strings.Join(allowed, ", "))
	}
	return s, nil
}

// ElementWise builds a function that applies fn row by row. A row where a
// required argument is null yields null without calling fn.
func ElementWise(name string, params []Param, returns frame.OdhType, fn func(args []any) (any, error)) *Function {
	f := &Function{Name: name, Params: params, Returns: returns}
	f.Apply = func(c *Call) (*frame.Column, error) {
		values := make([]any, c.Rows)
		row := make([]any, len(c.Args))
	rows:
		for r := range values {
			for j, a := range c.Args {
				row[j] = c.coerce(j, a.At(r))
				if row[j] == nil && !c.Param(j).Optional {
					continue rows
				}
			}
			out, err := fn(row)
			if err != nil {
				return nil, c.wrap(err)
			}
			values[r] = out
		}
		return c.Result(values)
	}
	return f
}
