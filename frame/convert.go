package frame

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type converter func(v any) (any, error)

// Convert returns col converted to type t. Nulls stay null. An unsupported
// pair of types, or a value that cannot be converted, is an ExecutionError.
func (t OdhType) Convert(col *Column) (*Column, error) {
	from := col.Type()
	if from.Equivalent(t) {
		return col.WithType(t), nil
	}

	conv := converterFor(from.Kind(), t.Kind())
	if conv == nil {
		return nil, NewExecutionError("cannot convert %s to %s", from, t)
	}

	values := make([]any, col.Len())
	for i := range values {
		v := col.Value(i)
		if v == nil {
			continue
		}
		if _, ok := v.(string); !ok && from == Text {
			// mixed-kind columns are TEXT
			v = FormatValue(v)
		}
		out, err := conv(v)
		if err != nil {
			return nil, NewExecutionError("cannot convert %s value %q in column %q to %s: %v",
				from, FormatValue(v), col.Name(), t, err)
		}
		values[i] = out
	}
	crs := 0
	if t == Geometry {
		crs = col.CRS()
	}
	return newColumn(col.Name(), values, t, crs), nil
}

// ConvertValue converts a single literal to type t.
func (t OdhType) ConvertValue(v any) (any, error) {
	v = Normalize(v)
	if v == nil {
		return nil, nil
	}
	from := TypeOfKind(KindOf(v))
	if from.Kind() == t.Kind() {
		return v, nil
	}
	conv := converterFor(from.Kind(), t.Kind())
	if conv == nil {
		return nil, NewExecutionError("cannot convert %s to %s", from, t)
	}
	out, err := conv(v)
	if err != nil {
		return nil, NewExecutionError("cannot convert %s value %q to %s: %v", from, FormatValue(v), t, err)
	}
	return out, nil
}

func converterFor(from, to Kind) converter {
	if to == KindString {
		return func(v any) (any, error) { return FormatValue(v), nil }
	}
	switch from {
	case KindString:
		switch to {
		case KindInt:
			return textToInt
		case KindFloat:
			return func(v any) (any, error) { return strconv.ParseFloat(strings.TrimSpace(v.(string)), 64) }
		case KindTime:
			return func(v any) (any, error) { return ParseDateTime(v.(string)) }
		case KindDuration:
			return func(v any) (any, error) { return time.ParseDuration(strings.TrimSpace(v.(string))) }
		case KindBool:
			return textToBool
		case KindGeometry:
			return func(v any) (any, error) { return ParseWKT(v.(string)) }
		}
	case KindInt, KindFloat:
		switch to {
		case KindInt:
			return func(v any) (any, error) { return truncate(v) }
		case KindFloat:
			return func(v any) (any, error) { f, _ := toFloat64(v); return f, nil }
		case KindTime:
			return func(v any) (any, error) { f, _ := toFloat64(v); return epochSeconds(f), nil }
		case KindDuration:
			return func(v any) (any, error) {
				f, _ := toFloat64(v)
				return time.Duration(f * float64(time.Second)), nil
			}
		case KindBool:
			return func(v any) (any, error) { f, _ := toFloat64(v); return f != 0, nil }
		}
	case KindBool:
		switch to {
		case KindInt:
			return func(v any) (any, error) { return boolToInt(v.(bool)), nil }
		case KindFloat:
			return func(v any) (any, error) { return float64(boolToInt(v.(bool))), nil }
		}
	case KindTime:
		switch to {
		case KindInt:
			return func(v any) (any, error) { return v.(time.Time).Unix(), nil }
		case KindFloat:
			return func(v any) (any, error) {
				return float64(v.(time.Time).UnixNano()) / float64(time.Second), nil
			}
		}
	case KindDuration:
		switch to {
		case KindInt:
			return func(v any) (any, error) { return int64(v.(time.Duration) / time.Second), nil }
		case KindFloat:
			return func(v any) (any, error) { return v.(time.Duration).Seconds(), nil }
		}
	}
	return nil
}

func textToInt(v any) (any, error) {
	s := strings.TrimSpace(v.(string))
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return truncate(f)
}

func truncate(v any) (any, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		if math.IsNaN(val) || val >= 1<<63 || val < -(1<<63) {
			return nil, NewExecutionError("%v is out of integer range", val)
		}
		return int64(val), nil
	}
	return nil, NewExecutionError("%v is not numeric", v)
}

func textToBool(v any) (any, error) {
	switch strings.ToLower(strings.TrimSpace(v.(string))) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return nil, NewExecutionError("not a boolean")
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func epochSeconds(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// ParseDateTime parses a date or timestamp in any common notation. Values
// without zone information are taken as UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
