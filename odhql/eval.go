package odhql

import (
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql/functions"
)

func lookupField(field *Field, f *frame.Frame) (*frame.Column, error) {
	name := field.Prefix + "." + field.Name
	col, ok := f.Column(name)
	if !ok {
		return nil, errorf("unknown column %q", name)
	}
	return col, nil
}

// evalColumn evaluates expr to a column with one value per row of f.
func (in *Interpreter) evalColumn(expr Expression, f *frame.Frame) (*frame.Column, error) {
	switch e := expr.(type) {
	case *AliasedExpression:
		col, err := in.evalColumn(e.Inner, f)
		if err != nil {
			return nil, err
		}
		return col.Rename(e.Alias), nil
	case *LiteralExpression:
		return frame.Broadcast("literal", e.Value, f.Len()), nil
	default:
		arg, err := in.evalArg(expr, f)
		if err != nil {
			return nil, err
		}
		return arg.Materialize("literal", f.Len()), nil
	}
}

// evalArg evaluates expr for use as a function or condition operand.
// Literals stay scalars.
func (in *Interpreter) evalArg(expr Expression, f *frame.Frame) (functions.Arg, error) {
	switch e := expr.(type) {
	case *LiteralExpression:
		return functions.Scalar(e.Value), nil
	case *Field:
		col, err := lookupField(e, f)
		if err != nil {
			return functions.Arg{}, err
		}
		return functions.ColumnArg(col), nil
	case *Function:
		col, err := in.evalFunction(e, f)
		if err != nil {
			return functions.Arg{}, err
		}
		return functions.ColumnArg(col), nil
	case *CaseExpression:
		col, err := in.evalCase(e, f)
		if err != nil {
			return functions.Arg{}, err
		}
		return functions.ColumnArg(col), nil
	case *AliasedExpression:
		return in.evalArg(e.Inner, f)
	default:
		unreachable(expr)
		return functions.Arg{}, nil
	}
}

// evalFunction evaluates the arguments and calls the registered function.
// The result is named after the function as written.
func (in *Interpreter) evalFunction(fn *Function, f *frame.Frame) (*frame.Column, error) {
	args := make([]functions.Arg, len(fn.Args))
	for i, a := range fn.Args {
		arg, err := in.evalArg(a, f)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	col, err := in.functions.Call(fn.Name, args, f.Len())
	if err != nil {
		return nil, err
	}
	return col.Rename(fn.Name), nil
}

// evalCase assigns every row the value of the first rule whose condition
// holds. Rows matched by no rule are null.
func (in *Interpreter) evalCase(c *CaseExpression, f *frame.Frame) (*frame.Column, error) {
	n := f.Len()
	values := make([]any, n)
	assigned := make([]bool, n)
	var typ frame.OdhType
	crs := 0

	for _, rule := range c.Rules {
		take := make([]bool, n)
		if rule.Condition == nil {
			for i := range take {
				take[i] = !assigned[i]
			}
		} else {
			mask, err := in.evalCondition(rule.Condition, f)
			if err != nil {
				return nil, err
			}
			for i := range take {
				take[i] = mask[i] && !assigned[i]
			}
		}

		rows, err := f.Filter(take)
		if err != nil {
			return nil, err
		}
		col, err := in.evalColumn(rule.Expression, rows)
		if err != nil {
			return nil, err
		}

		if !col.AllNull() {
			switch {
			case typ == 0:
				typ, crs = col.Type(), col.CRS()
			case !typ.Equivalent(col.Type()):
				return nil, errorf("CASE branches must have the same type, got %s and %s", typ, col.Type())
			}
		}

		r := 0
		for i, ok := range take {
			if !ok {
				continue
			}
			values[i] = col.Value(r)
			assigned[i] = true
			r++
		}
	}

	if typ == 0 {
		return frame.NewColumn("case", values), nil
	}
	col, err := frame.NewTypedColumn("case", typ, values)
	if err != nil {
		return nil, err
	}
	return col.WithCRS(crs), nil
}
