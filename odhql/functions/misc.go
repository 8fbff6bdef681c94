package functions

import (
	"strings"

	"github.com/pbnjay/strptime"
	"github.com/shopspring/decimal"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

func miscFunctions() []*Function {
	return []*Function{
		nvlFunction(),
		roundFunction(),
		castFunction(),
		toDateFunction("TO_DATE"),
		toDateFunction("PARSE_DATETIME"),
		rangeFunction(),
	}
}

// nvlFunction replaces nulls in the first argument with the second.
func nvlFunction() *Function {
	f := &Function{Name: "NVL", Params: []Param{{Name: "value"}, {Name: "alternative"}}}
	f.Apply = func(c *Call) (*frame.Column, error) {
		values := make([]any, c.Rows)
		for r := range values {
			values[r] = c.Args[0].At(r)
			if values[r] == nil {
				values[r] = c.Args[1].At(r)
			}
		}
		col := frame.NewColumn(f.Name, values)
		if c.Args[0].Type() == frame.Geometry {
			col = col.WithCRS(c.Column(0).CRS())
		}
		return col, nil
	}
	return f
}

// roundFunction rounds half to even. Integers are returned unchanged
// unless decimals is negative.
func roundFunction() *Function {
	params := []Param{
		{Name: "value", Kind: NumberKind},
		{Name: "decimals", Kind: IntKind, Optional: true, Default: int64(0), Literal: true},
	}
	f := &Function{Name: "ROUND", Params: params}
	f.Apply = func(c *Call) (*frame.Column, error) {
		places := int32(c.Int(1, 0))
		col, err := c.Map(0, func(v any) (any, error) {
			switch n := v.(type) {
			case int64:
				if places >= 0 {
					return n, nil
				}
				return decimal.NewFromInt(n).RoundBank(places).IntPart(), nil
			case float64:
				rounded, _ := decimal.NewFromFloat(n).RoundBank(places).Float64()
				return rounded, nil
			default:
				return nil, c.fail(0, NumberKind.String())
			}
		})
		if err != nil {
			return nil, err
		}
		if c.Args[0].Type() == frame.Float {
			return col.WithType(frame.Float), nil
		}
		return col, nil
	}
	return f
}

// castFunction converts a value to the named type.
func castFunction() *Function {
	params := []Param{{Name: "value"}, {Name: "datatype", Kind: TextKind, Literal: true}}
	f := &Function{Name: "CAST", Params: params}
	f.Apply = func(c *Call) (*frame.Column, error) {
		typ, err := frame.ParseOdhType(c.Text(1, ""))
		if err != nil {
			return nil, err
		}
		return typ.Convert(c.Column(0))
	}
	return f
}

// toDateFunction parses text as DATETIME, either with a strptime format
// like '%d.%m.%Y' or by recognizing common layouts. Numbers are epoch
// seconds, datetimes pass through.
func toDateFunction(name string) *Function {
	params := []Param{{Name: "value"}, {Name: "format", Kind: TextKind, Optional: true, Literal: true}}
	f := &Function{Name: name, Params: params, Returns: frame.DateTime}
	f.Apply = func(c *Call) (*frame.Column, error) {
		format, hasFormat := c.Value(1).(string)
		if !hasFormat {
			return frame.DateTime.Convert(c.Column(0))
		}
		if err := c.AssertStr(0); err != nil {
			return nil, err
		}
		return c.Map(0, func(v any) (any, error) {
			t, err := strptime.Parse(strings.TrimSpace(frame.FormatValue(v)), format)
			if err != nil {
				return nil, frame.NewExecutionError("%s: cannot parse %q with format %q: %v", name, v, format, err)
			}
			return t.UTC(), nil
		})
	}
	return f
}

// rangeFunction numbers the rows: start, start+step, ...
func rangeFunction() *Function {
	params := []Param{
		{Name: "start", Kind: IntKind, Optional: true, Default: int64(1), Literal: true},
		{Name: "step", Kind: IntKind, Optional: true, Default: int64(1), Literal: true},
	}
	f := &Function{Name: "RANGE", Params: params, Returns: frame.Integer}
	f.Apply = func(c *Call) (*frame.Column, error) {
		start, step := c.Int(0, 1), c.Int(1, 1)
		values := make([]any, c.Rows)
		for r := range values {
			values[r] = start + int64(r)*step
		}
		return c.Result(values)
	}
	return f
}
