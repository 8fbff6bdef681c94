package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

func writeParquet[T any](t *testing.T, path string, rows []T) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	writer := parquet.NewGenericWriter[T](f)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
}

type employeeRow struct {
	ID     int64   `parquet:"id"`
	Name   string  `parquet:"name"`
	Age    int32   `parquet:"age"`
	Score  float64 `parquet:"score"`
	Active bool    `parquet:"active"`
	Boss   *int64  `parquet:"boss,optional"`
}

func TestReadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employee.parquet")
	boss := int64(0)
	writeParquet(t, path, []employeeRow{
		{ID: 0, Name: "Dieter", Age: 50, Score: 1.5, Active: true},
		{ID: 1, Name: "Lukas", Age: 30, Score: 2.25, Active: false, Boss: &boss},
	})

	f, err := ReadParquet("employee", path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if f.Name() != "employee" {
		t.Errorf("Name() = %q, want employee", f.Name())
	}
	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}

	tests := []struct {
		column string
		typ    frame.OdhType
		want   []any
	}{
		{"id", frame.BigInt, []any{int64(0), int64(1)}},
		{"name", frame.Text, []any{"Dieter", "Lukas"}},
		{"age", frame.Integer, []any{int64(50), int64(30)}},
		{"score", frame.Float, []any{1.5, 2.25}},
		{"active", frame.Boolean, []any{true, false}},
		{"boss", frame.BigInt, []any{nil, int64(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := f.Column(tt.column)
			if !ok {
				t.Fatalf("column %q not found in %v", tt.column, f.Names())
			}
			if col.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", col.Type(), tt.typ)
			}
			for i, want := range tt.want {
				if got := col.Value(i); got != want {
					t.Errorf("row %d = %#v, want %#v", i, got, want)
				}
			}
		})
	}
}

func TestParquetReader_Columns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employee.parquet")
	writeParquet(t, path, []employeeRow{{ID: 1, Name: "Anna"}})

	r, err := NewParquetReader(path)
	if err != nil {
		t.Fatalf("NewParquetReader() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	infos := make(map[string]ColumnInfo)
	for _, info := range r.Columns() {
		infos[info.Name] = info
	}
	if len(infos) != 6 {
		t.Fatalf("Columns() returned %d columns, want 6", len(infos))
	}

	tests := []struct {
		name     string
		typ      string
		physical string
		odh      frame.OdhType
		optional bool
	}{
		{"id", "INT64", "INT64", frame.BigInt, false},
		{"name", "STRING", "BYTE_ARRAY", frame.Text, false},
		{"age", "INT32", "INT32", frame.Integer, false},
		{"score", "FLOAT64", "DOUBLE", frame.Float, false},
		{"active", "BOOLEAN", "BOOLEAN", frame.Boolean, false},
		{"boss", "INT64", "INT64", frame.BigInt, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := infos[tt.name]
			if !ok {
				t.Fatalf("column %q not found", tt.name)
			}
			if info.Type != tt.typ {
				t.Errorf("Type = %s, want %s", info.Type, tt.typ)
			}
			if info.PhysicalType != tt.physical {
				t.Errorf("PhysicalType = %s, want %s", info.PhysicalType, tt.physical)
			}
			if info.OdhType != tt.odh {
				t.Errorf("OdhType = %s, want %s", info.OdhType, tt.odh)
			}
			if info.Optional != tt.optional {
				t.Errorf("Optional = %v, want %v", info.Optional, tt.optional)
			}
		})
	}
}

func TestParquetReader_NestedColumns(t *testing.T) {
	type Address struct {
		Street string `parquet:"street"`
		City   string `parquet:"city"`
	}
	type Row struct {
		ID      int64    `parquet:"id"`
		Address Address  `parquet:"address"`
		Tags    []string `parquet:"tags,list"`
	}

	path := filepath.Join(t.TempDir(), "nested.parquet")
	writeParquet(t, path, []Row{{ID: 1, Address: Address{Street: "Bahnhofstrasse", City: "Zurich"}}})

	r, err := NewParquetReader(path)
	if err != nil {
		t.Fatalf("NewParquetReader() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	infos := make(map[string]ColumnInfo)
	for _, info := range r.Columns() {
		infos[info.Name] = info
	}
	for _, name := range []string{"address.street", "address.city"} {
		info, ok := infos[name]
		if !ok {
			t.Fatalf("column %q not found in %v", name, infos)
		}
		if info.OdhType != frame.Text {
			t.Errorf("%s OdhType = %s, want TEXT", name, info.OdhType)
		}
	}

	var tags *ColumnInfo
	for name, info := range infos {
		if len(name) >= 4 && name[:4] == "tags" {
			info := info
			tags = &info
		}
	}
	if tags == nil {
		t.Fatalf("no tags column in %v", infos)
	}
	if !tags.Repeated || tags.OdhType != frame.Text {
		t.Errorf("tags = %+v, want repeated TEXT", *tags)
	}
}

func TestParquetReader_Close(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employee.parquet")
	writeParquet(t, path, []employeeRow{{ID: 1}})

	r, err := NewParquetReader(path)
	if err != nil {
		t.Fatalf("NewParquetReader() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestReadParquet_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadParquet("missing", filepath.Join(dir, "missing.parquet")); err == nil {
		t.Error("ReadParquet() on a missing file: expected error")
	}

	corrupt := filepath.Join(dir, "corrupt.parquet")
	if err := os.WriteFile(corrupt, []byte("not a parquet file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadParquet("corrupt", corrupt); err == nil {
		t.Error("ReadParquet() on a corrupt file: expected error")
	}
}

func TestColumnInfo_Timestamp(t *testing.T) {
	tests := []struct {
		logical string
		value   int64
		want    string
	}{
		{"TIMESTAMP(isAdjustedToUTC=true,unit=MILLIS)", 1_000, "1970-01-01 00:00:01"},
		{"TIMESTAMP(isAdjustedToUTC=true,unit=MICROS)", 2_000_000, "1970-01-01 00:00:02"},
		{"TIMESTAMP(isAdjustedToUTC=true,unit=NANOS)", 3_000_000_000, "1970-01-01 00:00:03"},
	}
	for _, tt := range tests {
		t.Run(tt.logical, func(t *testing.T) {
			info := ColumnInfo{LogicalType: tt.logical, OdhType: frame.DateTime}
			got := info.timestamp(tt.value).Format("2006-01-02 15:04:05")
			if got != tt.want {
				t.Errorf("timestamp(%d) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}
