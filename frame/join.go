package frame

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
)

// JoinType selects which unmatched rows a join keeps.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	OuterJoin
)

// String returns the lowercase join keyword
func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case OuterJoin:
		return "outer"
	default:
		return "inner"
	}
}

// Join combines f (left) with right on pairwise equal key columns.
// Rows keep the order of the left frame (of the right frame for a right
// join); an outer join appends unmatched right rows at the end. Null keys
// never match. Column names of both sides must be distinct.
func (f *Frame) Join(right *Frame, leftKeys, rightKeys []string, how JoinType) (*Frame, error) {
	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return nil, NewExecutionError("join needs the same non-zero number of keys on both sides, got %d and %d", len(leftKeys), len(rightKeys))
	}
	lcols, err := keyColumns(f, leftKeys)
	if err != nil {
		return nil, err
	}
	rcols, err := keyColumns(right, rightKeys)
	if err != nil {
		return nil, err
	}
	for _, name := range right.Names() {
		if _, dup := f.Column(name); dup {
			return nil, NewExecutionError("join would produce duplicate column %q", name)
		}
	}

	var lrows, rrows []int
	switch how {
	case RightJoin:
		lookup := buildKeyIndex(lcols, f.Len())
		for r := 0; r < right.Len(); r++ {
			matches := lookup[rowKey(rcols, r)]
			if len(matches) == 0 {
				lrows, rrows = append(lrows, -1), append(rrows, r)
				continue
			}
			for _, l := range matches {
				lrows, rrows = append(lrows, l), append(rrows, r)
			}
		}
	default:
		lookup := buildKeyIndex(rcols, right.Len())
		matched := make([]bool, right.Len())
		for l := 0; l < f.Len(); l++ {
			matches := lookup[rowKey(lcols, l)]
			if len(matches) == 0 {
				if how == LeftJoin || how == OuterJoin {
					lrows, rrows = append(lrows, l), append(rrows, -1)
				}
				continue
			}
			for _, r := range matches {
				lrows, rrows = append(lrows, l), append(rrows, r)
				matched[r] = true
			}
		}
		if how == OuterJoin {
			for r, ok := range matched {
				if !ok {
					lrows, rrows = append(lrows, -1), append(rrows, r)
				}
			}
		}
	}

	columns := make([]*Column, 0, f.Width()+right.Width())
	for _, c := range f.columns {
		columns = append(columns, c.Take(lrows))
	}
	for _, c := range right.columns {
		columns = append(columns, c.Take(rrows))
	}
	return f.with(f.name, columns, len(lrows)), nil
}

func keyColumns(f *Frame, names []string) ([]*Column, error) {
	cols := make([]*Column, len(names))
	for i, n := range names {
		c, ok := f.Column(n)
		if !ok {
			return nil, NewExecutionError("join key %q does not exist", n)
		}
		cols[i] = c
	}
	return cols, nil
}

// buildKeyIndex maps each non-null row key to its row positions. The
// empty key stands for rows with a null component and is never stored.
func buildKeyIndex(cols []*Column, n int) map[string][]int {
	index := make(map[string][]int, n)
	for r := 0; r < n; r++ {
		key := rowKey(cols, r)
		if key == "" {
			continue
		}
		index[key] = append(index[key], r)
	}
	return index
}

// rowKey encodes the key values of row r; "" when any of them is null.
func rowKey(cols []*Column, r int) string {
	var b strings.Builder
	for _, c := range cols {
		v := c.Value(r)
		if v == nil {
			return ""
		}
		b.WriteString(keyPart(v))
		b.WriteByte(0x1f)
	}
	return b.String()
}

func keyPart(v any) string {
	switch val := v.(type) {
	case int64:
		return "n" + strconv.FormatInt(val, 10)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<63 {
			return "n" + strconv.FormatInt(int64(val), 10)
		}
		return "f" + strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return "s" + val
	case bool:
		return "b" + strconv.FormatBool(val)
	case time.Time:
		return "t" + strconv.FormatInt(val.UnixNano(), 10)
	case time.Duration:
		return "d" + strconv.FormatInt(int64(val), 10)
	case geom.T:
		return "g" + geometryKey(val)
	default:
		return "g" + FormatValue(v)
	}
}

// keyDigits is the number of significant digits geometry keys compare, so
// that a geometry reprojected back and forth still matches its original.
const keyDigits = 12

func geometryKey(g geom.T) string {
	rounded, err := transformGeometry(g, func(x, y float64) (float64, float64) {
		return roundSignificant(x), roundSignificant(y)
	})
	if err != nil {
		return FormatValue(g)
	}
	return FormatValue(rounded)
}

func roundSignificant(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', keyDigits, 64), 64)
	if err != nil {
		return v
	}
	return r
}
