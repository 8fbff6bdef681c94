package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestOdhType_Convert(t *testing.T) {
	tests := []struct {
		name  string
		input *Column
		to    OdhType
		want  []any
	}{
		{"text to integer", NewColumn("c", []any{"1", " 42 ", nil}), Integer, []any{int64(1), int64(42), nil}},
		{"text float truncates to integer", NewColumn("c", []any{"1.9", "-2.7"}), Integer, []any{int64(1), int64(-2)}},
		{"text to float", NewColumn("c", []any{"1.5", "3"}), Float, []any{1.5, 3.0}},
		{"float truncates to integer", NewColumn("c", []any{1.9, -0.5}), Integer, []any{int64(1), int64(0)}},
		{"integer to float", NewColumn("c", []any{1, 2}), Float, []any{1.0, 2.0}},
		{"integer to text", NewColumn("c", []any{1, nil}), Text, []any{"1", nil}},
		{"float to text", NewColumn("c", []any{1.5}), Text, []any{"1.5"}},
		{"bool to text", NewColumn("c", []any{true}), Text, []any{"true"}},
		{"bool to integer", NewColumn("c", []any{true, false}), Integer, []any{int64(1), int64(0)}},
		{"text to bool", NewColumn("c", []any{"yes", "0", "True"}), Boolean, []any{true, false, true}},
		{"integer to datetime as epoch seconds", NewColumn("c", []any{0, 86400}), DateTime,
			[]any{time.Unix(0, 0).UTC(), time.Unix(86400, 0).UTC()}},
		{"text to datetime", NewColumn("c", []any{"2015-03-01"}), DateTime,
			[]any{time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)}},
		{"datetime to text", NewColumn("c", []any{time.Date(2015, 3, 1, 12, 30, 0, 0, time.UTC)}), Text,
			[]any{"2015-03-01 12:30:00"}},
		{"text to interval", NewColumn("c", []any{"1h30m"}), Interval, []any{90 * time.Minute}},
		{"seconds to interval", NewColumn("c", []any{90}), Interval, []any{90 * time.Second}},
		{"identity", NewColumn("c", []any{"x"}), Text, []any{"x"}},
		{"integer retags to bigint", NewColumn("c", []any{1}), BigInt, []any{int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.to.Convert(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Type())
			assert.Equal(t, tt.want, got.Values())
			assert.Equal(t, tt.input.Name(), got.Name())
		})
	}
}

func TestOdhType_ConvertFailures(t *testing.T) {
	tests := []struct {
		name    string
		input   *Column
		to      OdhType
		wantMsg string
	}{
		{"unsupported pair", NewColumn("c", []any{true}), DateTime, "cannot convert BOOLEAN to DATETIME"},
		{"unparsable number", NewColumn("c", []any{"abc"}), Integer, "abc"},
		{"geometry to integer", NewColumn("c", []any{geom.NewPointFlat(geom.XY, []float64{1, 2})}), Integer, "GEOMETRY"},
		{"infinite float", NewColumn("c", []any{math.Inf(1)}), Integer, "out of integer range"},
		{"float of 2^63", NewColumn("c", []any{math.Ldexp(1, 63)}), Integer, "out of integer range"},
		{"nan", NewColumn("c", []any{math.NaN()}), Integer, "out of integer range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.to.Convert(tt.input)
			var execErr *ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Contains(t, execErr.Message, tt.wantMsg)
		})
	}
}

func TestOdhType_ConvertTextToGeometry(t *testing.T) {
	got, err := Geometry.Convert(NewColumn("g", []any{"POINT (1 2)"}))
	require.NoError(t, err)
	p, ok := got.Value(0).(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 1.0, p.X())
	assert.Equal(t, 2.0, p.Y())
	assert.False(t, got.HasCRS())

	text, err := Text.Convert(got)
	require.NoError(t, err)
	assert.Equal(t, []any{"POINT (1 2)"}, text.Values())
}

func TestOdhType_ConvertValue(t *testing.T) {
	v, err := Integer.ConvertValue("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	v, err = Integer.ConvertValue(math.Ldexp(-1, 63))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), v)

	v, err = Text.ConvertValue(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
