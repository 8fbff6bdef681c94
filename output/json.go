package output

import (
	"bytes"
	"encoding/json"
	"io"
	"math"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as JSON Lines (one JSON object per line)
func (j *JSONFormatter) Format(f *frame.Frame) error {
	encoder := json.NewEncoder(j.writer)
	for _, row := range records(f) {
		if err := encoder.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

// JSONArrayFormatter outputs all rows as one indented JSON array
type JSONArrayFormatter struct {
	writer io.Writer
}

// NewJSONArrayFormatter creates a new JSON array formatter
func NewJSONArrayFormatter(w io.Writer) *JSONArrayFormatter {
	return &JSONArrayFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONArrayFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes rows as a JSON array
func (j *JSONArrayFormatter) Format(f *frame.Frame) error {
	encoder := json.NewEncoder(j.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records(f))
}

// record is a row that keeps the column order when encoded.
type record struct {
	names  []string
	values []any
}

func records(f *frame.Frame) []record {
	names := f.Names()
	rows := make([]record, f.Len())
	for i := range rows {
		rows[i] = record{names: names, values: f.Row(i)}
	}
	return rows
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(jsonValue(r.values[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue keeps numbers and booleans native and renders everything else
// as text. JSON has no representation for infinities or NaN.
func jsonValue(v any) any {
	switch val := v.(type) {
	case nil, int64, bool, string:
		return val
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return frame.FormatValue(val)
		}
		return val
	default:
		return frame.FormatValue(val)
	}
}
