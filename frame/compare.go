package frame

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
)

// Compare orders two non-null values. Integers and floats compare
// numerically; every other pair must share a storage kind. Geometries
// cannot be ordered.
func Compare(a, b any) (int, error) {
	if an, ok := toFloat64(a); ok {
		if bn, ok := toFloat64(b); ok {
			if ai, ok := a.(int64); ok {
				if bi, ok := b.(int64); ok {
					return compareOrdered(ai, bi), nil
				}
			}
			return compareOrdered(an, bn), nil
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !av:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	case time.Duration:
		if bv, ok := b.(time.Duration); ok {
			return compareOrdered(av, bv), nil
		}
	}

	return 0, NewExecutionError("cannot compare %s with %s", TypeOfKind(KindOf(a)), TypeOfKind(KindOf(b)))
}

// Equal reports whether two non-null values are equal. Values of
// incompatible kinds are never equal.
func Equal(a, b any) bool {
	if ag, ok := a.(geom.T); ok {
		bg, ok := b.(geom.T)
		if !ok {
			return false
		}
		return FormatValue(ag) == FormatValue(bg)
	}
	cmp, err := Compare(a, b)
	return err == nil && cmp == 0
}

type ordered interface {
	~int64 | ~float64
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// FormatValue renders a value as text, the way TEXT conversion does.
// Null renders as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if math.IsInf(val, 0) {
			if val > 0 {
				return "inf"
			}
			return "-inf"
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(DateTimeLayout)
	case time.Duration:
		return val.String()
	case geom.T:
		text, err := FormatWKT(val)
		if err != nil {
			return ""
		}
		return text
	default:
		return ""
	}
}

// DateTimeLayout is the text form of DATETIME values.
const DateTimeLayout = "2006-01-02 15:04:05.999999999"
