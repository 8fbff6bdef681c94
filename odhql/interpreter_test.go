package odhql

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql/functions"
)

func testSources() map[string]*frame.Frame {
	employee := frame.MustNew("employee",
		frame.NewColumn("id", []any{0, 1, 2}),
		frame.NewColumn("prename", []any{"Dieter", "Lukas", "Anna"}),
		frame.NewColumn("surname", []any{"Meier", "Muster", "Holzmann"}),
		frame.NewColumn("boss", []any{nil, 0, 0}),
		frame.NewColumn("hired", []any{
			time.Date(2010, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2014, 7, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC),
		}),
	)
	child := frame.MustNew("child",
		frame.NewColumn("parent", []any{0, 1, 1, 5}),
		frame.NewColumn("prename", []any{"Katrin", "Annett", "Tim", "Eva"}),
		frame.NewColumn("surname", []any{"Meier", "Holzmann", "Oster", "Oster"}),
	)
	return map[string]*frame.Frame{"employee": employee, "child": child}
}

func run(t *testing.T, query string) *frame.Frame {
	t.Helper()
	result, err := Run(query, testSources())
	require.NoError(t, err)
	return result
}

func columnValues(t *testing.T, f *frame.Frame, name string) []any {
	t.Helper()
	col, ok := f.Column(name)
	require.True(t, ok, "column %q not in %v", name, f.Names())
	return col.Values()
}

func requireExecutionError(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr), "expected ExecutionError, got %T: %v", err, err)
	assert.Contains(t, execErr.Error(), contains)
}

func TestExecute_Join(t *testing.T) {
	sources := map[string]*frame.Frame{
		"employee": frame.MustNew("employee",
			frame.NewColumn("id", []any{0, 1}),
			frame.NewColumn("prename", []any{"Dieter", "Lukas"}),
			frame.NewColumn("boss", []any{nil, 0}),
		),
		"child": frame.MustNew("child",
			frame.NewColumn("parent", []any{0, 1}),
			frame.NewColumn("prename", []any{"Katrin", "Annett"}),
		),
	}

	result, err := Run("SELECT c.prename, e.prename AS parent FROM child AS c JOIN employee AS e ON c.parent = e.id", sources)
	require.NoError(t, err)

	assert.Equal(t, []string{"prename", "parent"}, result.Names())
	require.Equal(t, 2, result.Len())
	assert.Equal(t, []any{"Annett", "Lukas"}, result.Row(1))
}

func TestExecute_JoinTypes(t *testing.T) {
	tests := []struct {
		name    string
		join    string
		parents []any
	}{
		{"inner drops unmatched", "JOIN", []any{"Dieter", "Lukas", "Lukas"}},
		{"left keeps children", "LEFT JOIN", []any{"Dieter", "Lukas", "Lukas", nil}},
		{"right keeps employees", "RIGHT JOIN", []any{"Dieter", "Lukas", "Lukas", "Anna"}},
		{"full keeps both", "FULL OUTER JOIN", []any{"Dieter", "Lukas", "Lukas", nil, "Anna"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, "SELECT c.prename, e.prename AS parent FROM child AS c "+tt.join+" employee AS e ON e.id = c.parent")
			assert.Equal(t, tt.parents, columnValues(t, result, "parent"))
		})
	}
}

func TestExecute_JoinOnExpression(t *testing.T) {
	result := run(t, "SELECT c.prename, e.prename AS parent FROM child AS c JOIN employee AS e ON UPPER(c.surname) = UPPER(e.surname)")
	assert.Equal(t, []any{"Katrin", "Annett"}, columnValues(t, result, "prename"))
	assert.Equal(t, []any{"Dieter", "Anna"}, columnValues(t, result, "parent"))
	assert.Equal(t, []string{"prename", "parent"}, result.Names())
}

func TestExecute_JoinOnGeometry(t *testing.T) {
	point := func() *geom.Point { return geom.NewPointFlat(geom.XY, []float64{1, 2}) }
	wgs84 := frame.NewColumn("g", []any{point()}).WithCRS(frame.WGS84)
	mercator, err := wgs84.Reproject(frame.WebMercator)
	require.NoError(t, err)

	sources := func(left, right *frame.Column) map[string]*frame.Frame {
		return map[string]*frame.Frame{
			"a": frame.MustNew("a", frame.NewColumn("name", []any{"left"}), left),
			"b": frame.MustNew("b", frame.NewColumn("name", []any{"right"}), right),
		}
	}
	const query = "SELECT a.name, b.name AS other, a.g FROM a JOIN b ON a.g = b.g"

	t.Run("same crs", func(t *testing.T) {
		result, err := Run(query, sources(wgs84, wgs84))
		require.NoError(t, err)
		assert.Equal(t, []any{"right"}, columnValues(t, result, "other"))
	})

	t.Run("right key is reprojected", func(t *testing.T) {
		result, err := Run(query, sources(mercator, wgs84))
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "other", "g"}, result.Names())
		assert.Equal(t, []any{"right"}, columnValues(t, result, "other"))
		g, ok := result.Column("g")
		require.True(t, ok)
		assert.Equal(t, frame.WebMercator, g.CRS())
	})

	t.Run("reprojected key matches its original", func(t *testing.T) {
		result, err := Run(query, sources(wgs84, mercator))
		require.NoError(t, err)
		assert.Equal(t, []any{"right"}, columnValues(t, result, "other"))
		g, ok := result.Column("g")
		require.True(t, ok)
		assert.Equal(t, frame.WGS84, g.CRS())
	})

	t.Run("keys without crs", func(t *testing.T) {
		untagged := frame.NewColumn("g", []any{point()})
		_, err := Run(query, sources(untagged, untagged))
		requireExecutionError(t, err, "CRS")

		_, err = Run(query, sources(wgs84, untagged))
		requireExecutionError(t, err, "CRS")
	})
}

func TestExecute_JoinMultipleConditions(t *testing.T) {
	result := run(t, "SELECT c.prename FROM child AS c JOIN employee AS e ON (c.parent = e.id AND c.surname = e.surname)")
	assert.Equal(t, []any{"Katrin"}, columnValues(t, result, "prename"))
}

func TestExecute_DuplicateAliases(t *testing.T) {
	result := run(t, "SELECT e.prename, e.prename, e.surname AS prename FROM employee AS e")
	assert.Equal(t, []string{"prename", "prename2", "prename3"}, result.Names())
	assert.Equal(t, []any{"Meier", "Muster", "Holzmann"}, columnValues(t, result, "prename3"))
}

func TestExecute_OrderBy(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []any
	}{
		{"position", "SELECT e.prename FROM employee AS e ORDER BY 1 ASC", []any{"Anna", "Dieter", "Lukas"}},
		{"alias descending", "SELECT e.prename AS name FROM employee AS e ORDER BY name DESC", []any{"Lukas", "Dieter", "Anna"}},
		{"unselected field", "SELECT e.prename FROM employee AS e ORDER BY e.id DESC", []any{"Anna", "Lukas", "Dieter"}},
		{"nulls last", "SELECT e.prename FROM employee AS e ORDER BY e.boss, e.prename", []any{"Anna", "Lukas", "Dieter"}},
		{"nulls last descending", "SELECT e.prename FROM employee AS e ORDER BY e.boss DESC, 1 DESC", []any{"Lukas", "Anna", "Dieter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, tt.query)
			assert.Equal(t, tt.want, result.ColumnAt(0).Values())
		})
	}
}

func TestExecute_Case(t *testing.T) {
	result := run(t, "SELECT CASE WHEN e.id = 0 THEN 'bigboss' WHEN e.id = 1 THEN 'assistant' ELSE 'slave' END AS pos FROM employee AS e")
	assert.Equal(t, []any{"bigboss", "assistant", "slave"}, columnValues(t, result, "pos"))
}

func TestExecute_CaseFirstMatchWins(t *testing.T) {
	result := run(t, "SELECT CASE WHEN e.id >= 0 THEN 'first' WHEN e.id = 1 THEN 'second' END AS c FROM employee AS e")
	assert.Equal(t, []any{"first", "first", "first"}, columnValues(t, result, "c"))
}

func TestExecute_CaseWithoutElseLeavesNull(t *testing.T) {
	result := run(t, "SELECT CASE WHEN e.id = 1 THEN e.id END AS c FROM employee AS e")
	col, _ := result.Column("c")
	assert.Equal(t, []any{nil, int64(1), nil}, col.Values())
	assert.Equal(t, frame.Integer, col.Type())
}

func TestExecute_CaseTypeMismatch(t *testing.T) {
	_, err := Run("SELECT CASE WHEN e.id = 0 THEN 'boss' ELSE 1 END AS c FROM employee AS e", testSources())
	requireExecutionError(t, err, "same type")
}

func TestExecute_Filter(t *testing.T) {
	tests := []struct {
		name  string
		where string
		want  []any
	}{
		{"in", "c.surname IN ('Holzmann', 'Oster')", []any{"Annett", "Tim", "Eva"}},
		{"not in", "c.surname NOT IN ('Holzmann', 'Oster')", []any{"Katrin"}},
		{"equality", "c.parent = 1", []any{"Annett", "Tim"}},
		{"ordering", "c.parent < 1 OR c.parent > 1", []any{"Katrin", "Eva"}},
		{"and", "c.parent = 1 AND c.surname = 'Oster'", []any{"Tim"}},
		{"grouped", "(c.parent = 0 OR c.parent = 5) AND NOT (c.surname = 'Oster')", []any{"Katrin"}},
		{"like searches", "c.prename LIKE 'nn'", []any{"Annett"}},
		{"like is a regular expression", "c.prename LIKE '^[KT]'", []any{"Katrin", "Tim"}},
		{"not like", "c.prename NOT LIKE 'i'", []any{"Annett", "Eva"}},
		{"predicate", "STARTSWITH(c.prename, 'K')", []any{"Katrin"}},
		{"negated predicate", "NOT STARTSWITH(c.prename, 'K')", []any{"Annett", "Tim", "Eva"}},
		{"function operand", "LEN(c.prename) = 3", []any{"Tim", "Eva"}},
		{"int equals float", "c.parent = 1.0", []any{"Annett", "Tim"}},
		{"incompatible equality is false", "c.parent = 'one'", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, "SELECT c.prename FROM child AS c WHERE "+tt.where)
			assert.Equal(t, tt.want, columnValues(t, result, "prename"))
		})
	}
}

func TestExecute_NullSemantics(t *testing.T) {
	tests := []struct {
		name  string
		where string
		want  []any
	}{
		{"equality skips null", "e.boss = 0", []any{"Lukas", "Anna"}},
		{"inequality keeps null", "e.boss != 0", []any{"Dieter"}},
		{"ordering skips null", "e.boss >= 0", []any{"Lukas", "Anna"}},
		{"is null", "e.boss IS NULL", []any{"Dieter"}},
		{"is not null", "e.boss IS NOT NULL", []any{"Lukas", "Anna"}},
		{"in skips null", "e.boss IN (0, null)", []any{"Lukas", "Anna"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := run(t, "SELECT e.prename FROM employee AS e WHERE "+tt.where)
			assert.Equal(t, tt.want, columnValues(t, result, "prename"))
		})
	}
}

func TestExecute_DateTimeComparison(t *testing.T) {
	result := run(t, "SELECT e.prename FROM employee AS e WHERE e.hired >= '2014-07-15' AND e.hired < '2015-01-01'")
	assert.Equal(t, []any{"Lukas"}, columnValues(t, result, "prename"))

	_, err := Run("SELECT e.prename FROM employee AS e WHERE e.hired > 'not a date'", testSources())
	requireExecutionError(t, err, "DATETIME")
}

func TestExecute_OrderingIncompatibleKinds(t *testing.T) {
	_, err := Run("SELECT e.prename FROM employee AS e WHERE e.prename > 1", testSources())
	requireExecutionError(t, err, "cannot compare")
}

func TestExecute_Functions(t *testing.T) {
	result := run(t, "SELECT CONCAT(e.prename, ' ', e.surname) AS name, upper(e.prename), LEN(e.surname) AS n FROM employee AS e WHERE e.id = 0")
	assert.Equal(t, []string{"name", "upper", "n"}, result.Names())
	assert.Equal(t, []any{"Dieter Meier", "DIETER", int64(5)}, result.Row(0))
}

func TestExecute_FunctionsOverMixedText(t *testing.T) {
	result := run(t, "SELECT UPPER(NVL(e.boss, 'none')) AS b FROM employee AS e ORDER BY e.id")
	assert.Equal(t, []any{"NONE", "0", "0"}, columnValues(t, result, "b"))

	sources := map[string]*frame.Frame{
		"t": frame.MustNew("t", frame.NewColumn("x", []any{"a", 1, nil})),
	}
	result, err := Run("SELECT LEN(t.x) AS n FROM t", sources)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(1), nil}, columnValues(t, result, "n"))
}

func TestExecute_LiteralColumn(t *testing.T) {
	result := run(t, "SELECT e.id, 'x' AS tag, 2.5 AS f FROM employee AS e")
	assert.Equal(t, []any{"x", "x", "x"}, columnValues(t, result, "tag"))
	assert.Equal(t, []any{2.5, 2.5, 2.5}, columnValues(t, result, "f"))
}

func TestExecute_EmptyResult(t *testing.T) {
	result := run(t, "SELECT e.id, e.hired, UPPER(e.prename) AS up FROM employee AS e WHERE e.id > 100 ORDER BY e.id")
	assert.Equal(t, []string{"id", "hired", "up"}, result.Names())
	assert.Equal(t, 0, result.Len())

	types := make([]frame.OdhType, result.Width())
	for i, c := range result.Columns() {
		types[i] = c.Type()
	}
	assert.Equal(t, []frame.OdhType{frame.Integer, frame.DateTime, frame.Text}, types)
}

func TestExecute_Union(t *testing.T) {
	result := run(t, "SELECT e.prename AS name FROM employee AS e UNION SELECT c.prename FROM child AS c WHERE c.parent = 1 ORDER BY name")
	assert.Equal(t, []string{"name"}, result.Names())
	assert.Equal(t, []any{"Anna", "Annett", "Dieter", "Lukas", "Tim"}, columnValues(t, result, "name"))
}

func TestExecute_UnionOrderByField(t *testing.T) {
	result := run(t, "SELECT e.prename FROM employee AS e UNION SELECT c.prename FROM child AS c ORDER BY e.prename DESC")
	assert.Equal(t, []any{"Tim", "Lukas", "Katrin", "Eva", "Dieter", "Annett", "Anna"}, columnValues(t, result, "prename"))
}

func TestExecute_UnionOrderByAliasedField(t *testing.T) {
	result := run(t, "SELECT e.prename AS name FROM employee AS e UNION SELECT c.prename AS name FROM child AS c ORDER BY e.prename")
	assert.Equal(t, []any{"Anna", "Annett", "Dieter", "Eva", "Katrin", "Lukas", "Tim"}, columnValues(t, result, "name"))

	_, err := Run("SELECT e.prename AS name FROM employee AS e UNION SELECT c.prename AS name FROM child AS c ORDER BY e.surname", testSources())
	requireExecutionError(t, err, "unknown column")
}

func TestExecute_UnionWithEmptyBranch(t *testing.T) {
	result := run(t, "SELECT e.id FROM employee AS e UNION SELECT c.prename AS id FROM child AS c WHERE c.parent > 100")
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, columnValues(t, result, "id"))
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains string
	}{
		{"unknown table", "SELECT x.a FROM missing AS x", `unknown data source "missing"`},
		{"unknown column", "SELECT e.nope FROM employee AS e", `unknown column "e.nope"`},
		{"unknown column in filter", "SELECT e.id FROM employee AS e WHERE e.nope = 1", `unknown column "e.nope"`},
		{"unknown column in empty result", "SELECT e.nope FROM employee AS e WHERE e.id > 100", `unknown column "e.nope"`},
		{"unknown function", "SELECT NOPE(e.id) AS x FROM employee AS e", `unknown function "NOPE"`},
		{"unknown join alias", "SELECT c.prename FROM child AS c JOIN employee AS e ON c.parent = x.id", `unknown data source alias "x"`},
		{"unknown join key", "SELECT c.prename FROM child AS c JOIN employee AS e ON c.parent = e.nope", `unknown column "e.nope"`},
		{"join without new alias", "SELECT c.prename FROM child AS c JOIN employee AS e ON c.parent = c.parent", "must relate"},
		{"duplicate alias", "SELECT e.id FROM employee AS e JOIN child AS e ON e.id = e.parent", `duplicate data source alias "e"`},
		{"order position out of range", "SELECT e.id FROM employee AS e ORDER BY 2", "position 2 is out of range, the query selects 1 columns"},
		{"order unknown alias", "SELECT e.id FROM employee AS e ORDER BY nope", `unknown alias "nope"`},
		{"union arity", "SELECT e.id FROM employee AS e UNION SELECT c.parent, c.prename FROM child AS c", "same number of fields"},
		{"union types", "SELECT e.id FROM employee AS e UNION SELECT c.prename FROM child AS c", "UNION column 1"},
		{"bad cast", "SELECT CAST(e.prename, 'NUMBER') AS x FROM employee AS e", "NUMBER"},
		{"function assertion", "SELECT REPEAT(e.prename, 'x') AS x FROM employee AS e", "REPEAT"},
		{"predicate not boolean", "SELECT e.id FROM employee AS e WHERE UPPER(e.prename)", "must return a boolean"},
		{"invalid like pattern", "SELECT e.id FROM employee AS e WHERE e.prename LIKE '('", "invalid LIKE pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(tt.query, testSources())
			assert.Nil(t, result)
			requireExecutionError(t, err, tt.contains)
		})
	}
}

func TestExecute_Geometry(t *testing.T) {
	sources := map[string]*frame.Frame{
		"station": frame.MustNew("station",
			frame.NewColumn("name", []any{"Bern"}),
			frame.NewColumn("wkt", []any{"POINT (7.5 0)"}),
		),
		"stop": frame.MustNew("stop",
			frame.NewColumn("name", []any{"Origin"}),
			frame.NewColumn("wkt", []any{"POINT (0 0)"}),
		),
	}

	t.Run("srid requires crs", func(t *testing.T) {
		_, err := Run("SELECT ST_SRID(ST_GeomFromText(s.wkt)) AS srid FROM station AS s", sources)
		requireExecutionError(t, err, "CRS")
	})

	t.Run("union requires crs", func(t *testing.T) {
		_, err := Run(`SELECT ST_GeomFromText(s.wkt, 4326) AS g FROM station AS s
			UNION SELECT ST_GeomFromText(p.wkt) AS g FROM stop AS p`, sources)
		requireExecutionError(t, err, "CRS")
	})

	t.Run("union reprojects into the first crs", func(t *testing.T) {
		result, err := Run(`SELECT s.name, ST_GeomFromText(s.wkt, 3857) AS g FROM station AS s
			UNION SELECT p.name, ST_GeomFromText(p.wkt, 4326) AS g FROM stop AS p`, sources)
		require.NoError(t, err)

		g, ok := result.Column("g")
		require.True(t, ok)
		assert.Equal(t, frame.WebMercator, g.CRS())
		bern, ok := g.Value(0).(*geom.Point)
		require.True(t, ok)
		assert.Equal(t, 7.5, bern.X())

		origin, ok := g.Value(1).(*geom.Point)
		require.True(t, ok)
		assert.InDelta(t, 0, origin.X(), 1e-6)
		assert.InDelta(t, 0, origin.Y(), 1e-6)
	})

	t.Run("srid of tagged geometry", func(t *testing.T) {
		result, err := Run("SELECT ST_SRID(ST_GeomFromText(s.wkt, 2056)) AS srid FROM station AS s", sources)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(2056)}, columnValues(t, result, "srid"))
	})
}

func TestInterpreter_CustomRegistry(t *testing.T) {
	reg := functions.NewDefault()
	reg.RegisterFunc("double", 1, func(c *functions.Call) (*frame.Column, error) {
		return c.Map(0, func(v any) (any, error) {
			n, ok := v.(int64)
			if !ok {
				return nil, errors.New("expected an integer")
			}
			return n * 2, nil
		})
	})

	u := MustParse("SELECT DOUBLE(e.id) AS twice FROM employee AS e")
	result, err := NewInterpreter(reg).Execute(u, testSources())
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(2), int64(4)}, columnValues(t, result, "twice"))

	_, err = Execute(u, testSources())
	requireExecutionError(t, err, "unknown function")
}

func TestExecute_Idempotent(t *testing.T) {
	sources := testSources()
	u := MustParse("SELECT c.prename, e.prename AS parent FROM child AS c LEFT JOIN employee AS e ON c.parent = e.id WHERE c.surname != 'Meier' ORDER BY 2, 1")

	first, err := Execute(u, sources)
	require.NoError(t, err)
	second, err := Execute(u, sources)
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, first.Records(), second.Records())
}

func TestExecute_SourcesUnchanged(t *testing.T) {
	sources := testSources()
	before := sources["employee"].Names()

	_, err := Execute(MustParse("SELECT e.prename FROM employee AS e JOIN child AS c ON c.parent = e.id"), sources)
	require.NoError(t, err)
	assert.Equal(t, before, sources["employee"].Names())
	assert.Equal(t, 3, sources["employee"].Len())
}

func TestExecute_SourceLookupIsCaseInsensitive(t *testing.T) {
	result := run(t, "SELECT E.prename FROM Employee AS E WHERE E.id = 2")
	assert.Equal(t, []any{"Anna"}, columnValues(t, result, "prename"))
}
