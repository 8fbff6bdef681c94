package output

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

func TestCSVFormatter_SpecialCharacters(t *testing.T) {
	f := frame.MustNew("result",
		frame.NewColumn("name", []any{"Alice, Bob"}),
		frame.NewColumn("quote", []any{`He said "hello"`}),
		frame.NewColumn("newline", []any{"line1\nline2"}),
	)

	var buf bytes.Buffer
	if err := NewCSVFormatter(&buf).Format(f); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// CSV library should handle escaping automatically
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV with special characters: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	want := []string{"Alice, Bob", `He said "hello"`, "line1\nline2"}
	for i, w := range want {
		if records[1][i] != w {
			t.Errorf("column %d = %q, want %q", i, records[1][i], w)
		}
	}
}

func TestFormatCSVValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"null", nil, ""},
		{"text", "alice", "alice"},
		{"empty text", "", ""},
		{"formula", "=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"plus", "+1", "'+1"},
		{"at", "@cmd", "'@cmd"},
		{"pipe", "|x", "'|x"},
		{"quote in formula", "=a'b", "'=a''b"},
		{"negative number", int64(-5), "-5"},
		{"negative float", -1.25, "-1.25"},
		{"integer", int64(42), "42"},
		{"float", 0.1, "0.1"},
		{"infinity", math.Inf(1), "inf"},
		{"bool", true, "true"},
		{"geometry", geom.NewPointFlat(geom.XY, []float64{1, 2}), "POINT (1 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCSVValue(tt.value); got != tt.want {
				t.Errorf("formatCSVValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
