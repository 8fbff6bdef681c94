package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// ColumnInfo describes a leaf column of a parquet file.
type ColumnInfo struct {
	// Name uses dot notation for nested fields, e.g. "address.street".
	Name         string
	Type         string
	PhysicalType string
	LogicalType  string
	Required     bool
	Optional     bool
	Repeated     bool
	// OdhType is the frame type the column is read as, 0 to infer it.
	OdhType frame.OdhType
}

// Describe returns the columns of a source. For glob patterns the first
// matching file is described. Parquet columns come from the file schema;
// other formats are loaded and described by their inferred types.
func Describe(spec Spec) ([]ColumnInfo, error) {
	path := spec.Path
	if strings.ContainsAny(path, "*?[]") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", path)
		}
		path = matches[0]
	}

	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	if format == "parquet" {
		r, err := NewParquetReader(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		return r.Columns(), nil
	}

	f, err := loadFile(spec, path)
	if err != nil {
		return nil, err
	}
	infos := make([]ColumnInfo, f.Width())
	for i, col := range f.Columns() {
		nullable := hasNull(col)
		infos[i] = ColumnInfo{
			Name:     col.Name(),
			Type:     col.Type().String(),
			Required: !nullable,
			Optional: nullable,
			OdhType:  col.Type(),
		}
	}
	return infos, nil
}

func hasNull(col *frame.Column) bool {
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			return true
		}
	}
	return false
}

// fieldInfos flattens field into its leaf columns, tracking whether any
// parent is repeated.
func fieldInfos(field parquet.Field, prefix string, parentRepeated bool) []ColumnInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []ColumnInfo
		for _, child := range children {
			infos = append(infos, fieldInfos(child, name, repeated)...)
		}
		return infos
	}

	info := ColumnInfo{
		Name:         name,
		Type:         userType(field),
		PhysicalType: physicalType(field),
		LogicalType:  logicalType(field),
		Required:     field.Required(),
		Optional:     field.Optional(),
		Repeated:     repeated,
	}
	info.OdhType = odhType(info)
	return []ColumnInfo{info}
}

// odhType maps a parquet column onto the frame type system. Repeated
// columns are rendered as text.
func odhType(info ColumnInfo) frame.OdhType {
	if info.Repeated {
		return frame.Text
	}
	switch info.Type {
	case "STRING", "ENUM", "UUID", "JSON":
		return frame.Text
	case "INT32":
		return frame.Integer
	case "INT64":
		return frame.BigInt
	case "FLOAT32", "FLOAT64", "DECIMAL":
		return frame.Float
	case "BOOLEAN":
		return frame.Boolean
	case "DATE", "TIMESTAMP", "INT96":
		return frame.DateTime
	default:
		return 0
	}
}

func physicalType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

func logicalType(field parquet.Field) string {
	if field.Type() == nil {
		return ""
	}
	lt := field.Type().LogicalType()
	if lt == nil {
		return ""
	}
	return lt.String()
}

// userType simplifies physical and logical types into one name, checking
// the logical type first. Logical types are matched by their string form,
// e.g. "TIMESTAMP(isAdjustedToUTC=true,unit=MILLIS)".
func userType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	lt := logicalType(field)
	switch {
	case lt == "STRING", lt == "UTF8":
		return "STRING"
	case lt == "ENUM", lt == "UUID", lt == "JSON", lt == "DATE":
		return lt
	case strings.HasPrefix(lt, "TIMESTAMP"):
		return "TIMESTAMP"
	case strings.HasPrefix(lt, "DECIMAL"):
		return "DECIMAL"
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT32"
	case parquet.Double:
		return "FLOAT64"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}
