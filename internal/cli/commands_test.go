package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/odhql/functions"
	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/reader"
)

func mustSpec(t *testing.T, s string) reader.Spec {
	t.Helper()
	spec, err := reader.ParseSpec(s)
	require.NoError(t, err)
	return spec
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "", "parse", "select e.prename from employee as e where e.id in (1, 2) order by 1")
	require.NoError(t, err)

	normalized := strings.TrimSpace(out)
	u, err := odhql.Parse(normalized)
	require.NoError(t, err)
	assert.Equal(t, normalized, u.String())
	assert.True(t, strings.HasPrefix(normalized, "SELECT "), normalized)
}

func TestParseCommand_Stdin(t *testing.T) {
	out, err := execute(t, parentsQuery, "parse", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "JOIN")
}

func TestParseCommand_Error(t *testing.T) {
	_, err := execute(t, "", "parse", "SELECT e.id FROM")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "parse error at line 1")

	_, err = execute(t, "", "parse")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFunctionsCommand(t *testing.T) {
	out, err := execute(t, "", "functions", "-f", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "name,signature,returns,description", lines[0])
	assert.Contains(t, out, "ST_Area,ST_Area(geometry),FLOAT,")
}

func TestFunctionsFrame(t *testing.T) {
	reg := functions.NewRegistry()
	reg.RegisterFunc("DOUBLE_IT", 1, nil)

	f := functionsFrame(reg)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, []string{"name", "signature", "returns", "description"}, f.Names())
	assert.Equal(t, "DOUBLE_IT", f.Row(0)[0])
	assert.Nil(t, f.Row(0)[2])
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "", append([]string{"schema", "-f", "csv"}, fixtureSources...)...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "source,name,type,physical_type,logical_type,required,optional,repeated", lines[0])
	assert.Contains(t, lines, "employee,id,BIGINT,,,true,false,false")
	assert.Contains(t, lines, "employee,boss,BIGINT,,,false,true,false")
	assert.Contains(t, lines, "child,prename,TEXT,,,true,false,false")
}

func TestSchemaCommand_Errors(t *testing.T) {
	_, err := execute(t, "", "schema")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "", "schema", "-s", "x=testdata/missing.csv")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to describe x")
}
