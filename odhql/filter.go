package odhql

import (
	"regexp"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql/functions"
)

// evalCondition reduces cond to a boolean mask over the rows of f.
func (in *Interpreter) evalCondition(cond Condition, f *frame.Frame) ([]bool, error) {
	var (
		mask     []bool
		inverted bool
		err      error
	)
	switch c := cond.(type) {
	case *BinaryCondition:
		mask, err = in.evalBinary(c, f)
		inverted = c.Invert
	case *InCondition:
		mask, err = in.evalIn(c, f)
		inverted = c.Invert
	case *IsNullCondition:
		mask, err = evalIsNull(c, f)
		inverted = c.Invert
	case *PredicateCondition:
		mask, err = in.evalPredicate(c, f)
		inverted = c.Invert
	case *FilterCombination:
		mask, err = in.reduce(c.Conditions, f, true)
		inverted = c.Invert
	case *FilterAlternative:
		mask, err = in.reduce(c.Conditions, f, false)
		inverted = c.Invert
	default:
		unreachable(cond)
	}
	if err != nil {
		return nil, err
	}
	if inverted {
		for i := range mask {
			mask[i] = !mask[i]
		}
	}
	return mask, nil
}

// reduce combines the masks of conds with AND (all) or OR.
func (in *Interpreter) reduce(conds []Condition, f *frame.Frame, all bool) ([]bool, error) {
	out := make([]bool, f.Len())
	for i := range out {
		out[i] = all
	}
	for _, cond := range conds {
		mask, err := in.evalCondition(cond, f)
		if err != nil {
			return nil, err
		}
		for i, m := range mask {
			if all {
				out[i] = out[i] && m
			} else {
				out[i] = out[i] || m
			}
		}
	}
	return out, nil
}

func (in *Interpreter) evalBinary(c *BinaryCondition, f *frame.Frame) ([]bool, error) {
	left, err := in.evalArg(c.Left, f)
	if err != nil {
		return nil, err
	}
	right, err := in.evalArg(c.Right, f)
	if err != nil {
		return nil, err
	}

	if c.Operator == OpLike || c.Operator == OpNotLike {
		return evalLike(c, left, right, f.Len())
	}

	if left, err = coerceDateTime(left, right); err != nil {
		return nil, err
	}
	if right, err = coerceDateTime(right, left); err != nil {
		return nil, err
	}

	mask := make([]bool, f.Len())
	for i := range mask {
		a, b := left.At(i), right.At(i)
		if a == nil || b == nil {
			mask[i] = c.Operator == OpNotEqual
			continue
		}
		switch c.Operator {
		case OpEqual:
			mask[i] = frame.Equal(a, b)
		case OpNotEqual:
			mask[i] = !frame.Equal(a, b)
		default:
			cmp, err := frame.Compare(a, b)
			if err != nil {
				return nil, errorf("condition %s: %v", c, err)
			}
			mask[i] = ordering(c.Operator, cmp)
		}
	}
	return mask, nil
}

func ordering(op Operator, cmp int) bool {
	switch op {
	case OpLess:
		return cmp < 0
	case OpLessEqual:
		return cmp <= 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEqual:
		return cmp >= 0
	default:
		unreachable(op)
		return false
	}
}

// evalLike searches every value for the pattern. Nulls never match.
func evalLike(c *BinaryCondition, left, right functions.Arg, n int) ([]bool, error) {
	pattern, ok := right.Value.(string)
	if !right.IsLiteral() || !ok {
		return nil, errorf("LIKE pattern must be a string literal, got %s", c.Right)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errorf("invalid LIKE pattern %q: %v", pattern, err)
	}
	mask := make([]bool, n)
	for i := range mask {
		v := left.At(i)
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = frame.FormatValue(v)
		}
		mask[i] = re.MatchString(s) == (c.Operator == OpLike)
	}
	return mask, nil
}

// coerceDateTime parses a text literal compared against a DATETIME column.
func coerceDateTime(arg, other functions.Arg) (functions.Arg, error) {
	s, ok := arg.Value.(string)
	if !arg.IsLiteral() || !ok || other.IsLiteral() || other.Column.Type() != frame.DateTime {
		return arg, nil
	}
	t, err := frame.ParseDateTime(s)
	if err != nil {
		return arg, errorf("cannot compare DATETIME column %q with %q: %v", other.Column.Name(), s, err)
	}
	return functions.Scalar(t), nil
}

func (in *Interpreter) evalIn(c *InCondition, f *frame.Frame) ([]bool, error) {
	left, err := in.evalArg(c.Left, f)
	if err != nil {
		return nil, err
	}
	options := make([]any, 0, len(c.Values))
	for _, lit := range c.Values {
		opt, err := coerceDateTime(functions.Scalar(lit.Value), left)
		if err != nil {
			return nil, err
		}
		if opt.Value != nil {
			options = append(options, opt.Value)
		}
	}

	mask := make([]bool, f.Len())
	for i := range mask {
		v := left.At(i)
		if v == nil {
			continue
		}
		for _, opt := range options {
			if frame.Equal(v, opt) {
				mask[i] = true
				break
			}
		}
	}
	return mask, nil
}

func evalIsNull(c *IsNullCondition, f *frame.Frame) ([]bool, error) {
	col, err := lookupField(c.Field, f)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, f.Len())
	for i := range mask {
		mask[i] = col.IsNull(i)
	}
	return mask, nil
}

// evalPredicate uses a function result as the condition; null is false.
func (in *Interpreter) evalPredicate(c *PredicateCondition, f *frame.Frame) ([]bool, error) {
	col, err := in.evalFunction(c.Function, f)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, f.Len())
	for i := range mask {
		switch v := col.Value(i).(type) {
		case nil:
		case bool:
			mask[i] = v
		default:
			return nil, errorf("%s must return a boolean to be used as a condition, got %s", c.Function, frame.FormatValue(v))
		}
	}
	return mask, nil
}
