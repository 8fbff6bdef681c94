package frame

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
)

// Kind is the storage representation of column values.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindTime
	KindDuration
	KindBool
	KindString
	KindGeometry
)

// String returns the name of the storage kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindGeometry:
		return "geometry"
	default:
		return "null"
	}
}

// KindOf returns the storage kind of a normalized value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case time.Time:
		return KindTime
	case time.Duration:
		return KindDuration
	case bool:
		return KindBool
	case string:
		return KindString
	case geom.T:
		return KindGeometry
	default:
		return KindNull
	}
}

// OdhType is the closed set of semantic column types.
type OdhType int

const (
	Integer OdhType = iota + 1
	SmallInt
	BigInt
	Float
	DateTime
	Interval
	Boolean
	Text
	Geometry
)

type typeInfo struct {
	name    string
	kind    Kind
	accepts []Kind
}

var typeInfos = map[OdhType]typeInfo{
	Integer:  {name: "INTEGER", kind: KindInt, accepts: []Kind{KindInt}},
	SmallInt: {name: "SMALLINT", kind: KindInt, accepts: []Kind{KindInt}},
	BigInt:   {name: "BIGINT", kind: KindInt, accepts: []Kind{KindInt}},
	Float:    {name: "FLOAT", kind: KindFloat, accepts: []Kind{KindFloat, KindInt}},
	DateTime: {name: "DATETIME", kind: KindTime, accepts: []Kind{KindTime}},
	Interval: {name: "INTERVAL", kind: KindDuration, accepts: []Kind{KindDuration}},
	Boolean:  {name: "BOOLEAN", kind: KindBool, accepts: []Kind{KindBool}},
	Text:     {name: "TEXT", kind: KindString, accepts: []Kind{KindString}},
	Geometry: {name: "GEOMETRY", kind: KindGeometry, accepts: []Kind{KindGeometry}},
}

// Types returns all types in declaration order.
func Types() []OdhType {
	return []OdhType{Integer, SmallInt, BigInt, Float, DateTime, Interval, Boolean, Text, Geometry}
}

// String returns the display name of the type
func (t OdhType) String() string {
	if info, ok := typeInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("OdhType(%d)", int(t))
}

// Kind returns the storage representation used for values of this type
func (t OdhType) Kind() Kind {
	return typeInfos[t].kind
}

// IsIntegral reports whether t is one of the integer variants.
func (t OdhType) IsIntegral() bool {
	return t == Integer || t == SmallInt || t == BigInt
}

// Equivalent reports whether two types share comparison semantics. The
// integer variants only differ for format round-tripping.
func (t OdhType) Equivalent(other OdhType) bool {
	if t == other {
		return true
	}
	return t.IsIntegral() && other.IsIntegral()
}

// Accepts reports whether a literal value can be stored in a column of type t.
// Null is accepted by every type.
func (t OdhType) Accepts(v any) bool {
	k := KindOf(Normalize(v))
	if k == KindNull {
		return true
	}
	for _, a := range typeInfos[t].accepts {
		if a == k {
			return true
		}
	}
	return false
}

// ParseOdhType resolves a type by its display name, case-insensitively.
func ParseOdhType(name string) (OdhType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, t := range Types() {
		if typeInfos[t].name == upper {
			return t, nil
		}
	}
	return 0, NewExecutionError("unknown data type %q", name)
}

// TypeOfKind returns the default semantic type for a storage kind.
func TypeOfKind(k Kind) OdhType {
	switch k {
	case KindInt:
		return Integer
	case KindFloat:
		return Float
	case KindTime:
		return DateTime
	case KindDuration:
		return Interval
	case KindBool:
		return Boolean
	case KindGeometry:
		return Geometry
	default:
		return Text
	}
}

// IdentifyValue returns the type of a single literal value. The second
// result is false for null.
func IdentifyValue(v any) (OdhType, bool) {
	k := KindOf(Normalize(v))
	if k == KindNull {
		return Text, false
	}
	return TypeOfKind(k), true
}

// IdentifyValues infers the type of a value vector from its storage.
// Empty and all-null vectors are TEXT, integers mixed with floats are
// FLOAT, any other mix is TEXT.
func IdentifyValues(values []any) OdhType {
	kind := KindNull
	for _, v := range values {
		k := KindOf(v)
		switch {
		case k == KindNull:
			continue
		case kind == KindNull:
			kind = k
		case kind == k:
		case (kind == KindInt && k == KindFloat) || (kind == KindFloat && k == KindInt):
			kind = KindFloat
		default:
			return Text
		}
	}
	return TypeOfKind(kind)
}

// Normalize maps Go values onto the storage kinds used by columns.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return Normalize(float64(val))
	case float64:
		if math.IsNaN(val) {
			return nil
		}
		return val
	case []byte:
		return string(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	case *string:
		if val == nil {
			return nil
		}
		return *val
	default:
		return v
	}
}
