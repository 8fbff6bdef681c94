package reader

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// ReadSQLite reads a whole table of a SQLite database into a frame. The
// database is opened read-only.
func ReadSQLite(name, path, table string) (*frame.Frame, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rows, err := db.Query("SELECT * FROM " + quoteTable(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	infos := make([]ColumnInfo, len(types))
	for i, t := range types {
		infos[i] = ColumnInfo{
			Name:         t.Name(),
			Type:         t.DatabaseTypeName(),
			PhysicalType: t.DatabaseTypeName(),
			OdhType:      declaredType(t.DatabaseTypeName()),
		}
		if nullable, ok := t.Nullable(); ok {
			infos[i].Required = !nullable
			infos[i].Optional = nullable
		}
	}

	values := make([][]any, len(infos))
	for rows.Next() {
		row := make([]any, len(infos))
		ptrs := make([]any, len(infos))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, info := range infos {
			values[i] = append(values[i], info.convert(row[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	columns := make([]*frame.Column, len(infos))
	for i, info := range infos {
		columns[i] = info.column(values[i])
	}
	return frame.New(name, columns...)
}

func quoteTable(table string) string {
	return `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
}

// declaredType follows SQLite's affinity rules for declared column types.
// Columns without a recognizable declaration are inferred from values.
func declaredType(decl string) frame.OdhType {
	decl = strings.ToUpper(decl)
	switch {
	case strings.Contains(decl, "INT"):
		return frame.BigInt
	case strings.Contains(decl, "BOOL"):
		return frame.Boolean
	case strings.Contains(decl, "DATE"), strings.Contains(decl, "TIME"):
		return frame.DateTime
	case strings.Contains(decl, "CHAR"), strings.Contains(decl, "CLOB"), strings.Contains(decl, "TEXT"):
		return frame.Text
	case strings.Contains(decl, "REAL"), strings.Contains(decl, "FLOA"), strings.Contains(decl, "DOUB"):
		return frame.Float
	default:
		return 0
	}
}
