package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// ParquetReader reads parquet files into frames.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type ParquetReader struct {
	file   *os.File
	pqFile *parquet.File
}

// NewParquetReader opens and validates a parquet file.
//
// Example:
//
//	r, err := NewParquetReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewParquetReader(path string) (*ParquetReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &ParquetReader{file: file, pqFile: pqFile}, nil
}

// Schema returns the parquet file schema.
func (r *ParquetReader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// Columns describes the leaf columns of the file in schema order.
func (r *ParquetReader) Columns() []ColumnInfo {
	var infos []ColumnInfo
	for _, field := range r.Schema().Fields() {
		infos = append(infos, fieldInfos(field, "", false)...)
	}
	return infos
}

// ReadFrame reads every row into a frame. The whole file is loaded into
// memory.
func (r *ParquetReader) ReadFrame(name string) (*frame.Frame, error) {
	infos := r.Columns()
	values := make([][]any, len(infos))

	reader := parquet.NewReader(r.pqFile)
	defer func() { _ = reader.Close() }()

	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		for i, info := range infos {
			values[i] = append(values[i], info.convert(lookupPath(row, info.Name)))
		}
	}

	columns := make([]*frame.Column, len(infos))
	for i, info := range infos {
		columns[i] = info.column(values[i])
	}
	return frame.New(name, columns...)
}

// Close releases the file handle. It is safe to call Close multiple times.
func (r *ParquetReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadParquet reads a parquet file into a frame.
func ReadParquet(name, path string) (*frame.Frame, error) {
	r, err := NewParquetReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.ReadFrame(name)
}

// lookupPath resolves a dotted leaf name inside nested row maps.
func lookupPath(row map[string]interface{}, path string) interface{} {
	if v, ok := row[path]; ok {
		return v
	}
	var current interface{} = row
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// convert maps a decoded parquet value onto the frame representation of
// the column type.
func (c ColumnInfo) convert(v interface{}) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	case int32:
		if c.OdhType == frame.DateTime {
			return time.Unix(int64(val)*86400, 0).UTC()
		}
	case int64:
		if c.OdhType == frame.DateTime {
			return c.timestamp(val)
		}
	case []interface{}, map[string]interface{}:
		return fmt.Sprint(val)
	}
	return v
}

func (c ColumnInfo) timestamp(v int64) time.Time {
	switch {
	case strings.Contains(c.LogicalType, "MILLIS"):
		return time.UnixMilli(v).UTC()
	case strings.Contains(c.LogicalType, "NANOS"):
		return time.Unix(0, v).UTC()
	default:
		return time.UnixMicro(v).UTC()
	}
}

// column builds the frame column, falling back to type inference when the
// decoded values do not fit the declared type.
func (c ColumnInfo) column(values []any) *frame.Column {
	if c.OdhType == 0 {
		return frame.NewColumn(c.Name, values)
	}
	col, err := frame.NewTypedColumn(c.Name, c.OdhType, values)
	if err != nil {
		return frame.NewColumn(c.Name, values)
	}
	return col
}
