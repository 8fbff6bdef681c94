package reader

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

func setupDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "company.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	statements := []string{
		`CREATE TABLE employee (id INTEGER NOT NULL, prename TEXT, salary REAL, active BOOLEAN, hired DATETIME, note)`,
		`INSERT INTO employee VALUES (0, 'Dieter', 5000.5, 1, '2010-01-01 00:00:00', 'x')`,
		`INSERT INTO employee VALUES (1, 'Lukas', NULL, 0, '2014-07-15 00:00:00', 7)`,
		`INSERT INTO employee VALUES (2, NULL, 4000, 1, NULL, NULL)`,
		`CREATE TABLE "odd ""name""" (v INTEGER)`,
		`INSERT INTO "odd ""name""" VALUES (42)`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func TestReadSQLite(t *testing.T) {
	path := setupDB(t)

	f, err := ReadSQLite("employee", path, "employee")
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"id", "prename", "salary", "active", "hired", "note"}, f.Names())

	id, _ := f.Column("id")
	assert.Equal(t, frame.BigInt, id.Type())
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, id.Values())

	prename, _ := f.Column("prename")
	assert.Equal(t, frame.Text, prename.Type())
	assert.Equal(t, []any{"Dieter", "Lukas", nil}, prename.Values())

	salary, _ := f.Column("salary")
	assert.Equal(t, frame.Float, salary.Type())
	assert.Equal(t, []any{5000.5, nil, 4000.0}, salary.Values())

	active, _ := f.Column("active")
	assert.Equal(t, frame.Boolean, active.Type())
	assert.Equal(t, []any{true, false, true}, active.Values())

	hired, _ := f.Column("hired")
	assert.Equal(t, frame.DateTime, hired.Type())
	assert.Equal(t, time.Date(2014, 7, 15, 0, 0, 0, 0, time.UTC), hired.Value(1))
	assert.Nil(t, hired.Value(2))

	// no declared type and mixed values
	note, _ := f.Column("note")
	assert.Equal(t, frame.Text, note.Type())
}

func TestReadSQLite_QuotedTableName(t *testing.T) {
	path := setupDB(t)

	f, err := ReadSQLite("odd", path, `odd "name"`)
	require.NoError(t, err)
	v, _ := f.Column("v")
	assert.Equal(t, []any{int64(42)}, v.Values())
}

func TestReadSQLite_Errors(t *testing.T) {
	path := setupDB(t)

	_, err := ReadSQLite("missing", path, "missing")
	assert.ErrorContains(t, err, "missing")

	_, err = ReadSQLite("nofile", filepath.Join(t.TempDir(), "nofile.db"), "employee")
	assert.Error(t, err)
}

func TestDeclaredType(t *testing.T) {
	tests := []struct {
		decl string
		want frame.OdhType
	}{
		{"INTEGER", frame.BigInt},
		{"bigint", frame.BigInt},
		{"VARCHAR(20)", frame.Text},
		{"TEXT", frame.Text},
		{"REAL", frame.Float},
		{"DOUBLE PRECISION", frame.Float},
		{"BOOLEAN", frame.Boolean},
		{"DATETIME", frame.DateTime},
		{"TIMESTAMP", frame.DateTime},
		{"BLOB", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			assert.Equal(t, tt.want, declaredType(tt.decl))
		})
	}
}
