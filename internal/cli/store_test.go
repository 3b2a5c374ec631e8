package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var missionFile = filepath.Join("testdata", "mission.json")

func TestPut_WritesGraph(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--db", db, "--format", "json", "put", "Mission", missionFile)
	require.NoError(t, err)

	var result PutResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "Mission", result.Type)
	assert.Equal(t, "m-1", result.ID)
	assert.Equal(t, 2, result.Written)
	assert.Len(t, result.Hash, 64)
}

func TestPut_Idempotent(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Mission m-1 stored (0 new)")
}

func TestPut_Conflict(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)

	dir := t.TempDir()
	renamed := writeFile(t, dir, "mission.json", `{
		"id": "m-1",
		"creation_date": "2024-04-04T20:49:02",
		"update_date": "2024-04-04T20:49:02",
		"created_by": "c-1",
		"name": "Artemis",
		"launch_date": "2027-04-04T20:49:02",
		"amd_enabled": true
	}`)

	out, err := execute(t, "--db", db, "--format", "json", "put", "Mission", renamed)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, ErrCodeConflict, resp.Error.Code)
}

func TestPut_AssignsIdentifiers(t *testing.T) {
	db := tempDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "company.json", `{"name": "Acme"}`)

	out, err := execute(t, "--db", db, "--format", "json", "put", "Company", path)
	require.NoError(t, err)

	var result PutResult
	decodeResponse(t, out, &result)
	assert.Len(t, result.ID, 36)

	out, err = execute(t, "--db", db, "list", "Company")
	require.NoError(t, err)
	assert.Equal(t, result.ID+"\n", out)
}

func TestPut_Rejected(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "--db", db, "put", "Orbit", filepath.Join("testdata", "orbit_eccentric.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := execute(t, "--db", db, "list", "Orbit")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGet_Stored(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "--format", "json", "get", "Mission", "m-1")
	require.NoError(t, err)

	var result GetResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "m-1", result.ID)
	assert.Equal(t, int64(2), result.Seq)
	assert.Equal(t, "c-1", result.Record["created_by"])
	assert.Equal(t, "2027-04-04T20:49:02Z", result.Record["launch_date"])
	assert.Nil(t, result.References)
}

func TestGet_Refs(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "--format", "json", "get", "Mission", "m-1", "--refs")
	require.NoError(t, err)
	var mission GetResult
	decodeResponse(t, out, &mission)
	assert.Equal(t, []RefEntry{{Type: "Company", ID: "c-1", Path: "created_by"}}, mission.References)
	assert.Empty(t, mission.Referrers)

	out, err = execute(t, "--db", db, "get", "Company", "c-1", "--refs")
	require.NoError(t, err)
	assert.Contains(t, out, "<- Mission m-1 (created_by)")
}

func TestGet_Check(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "get", "Mission", "m-1", "--check")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `{"amd_enabled":true,`), out)
}

func TestGet_NotFound(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--db", db, "--format", "json", "get", "Mission", "m-404")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, ErrCodeNotStored, resp.Error.Code)
}

func TestList_WriteOrder(t *testing.T) {
	db := tempDB(t)
	dir := t.TempDir()
	for _, id := range []string{"c-3", "c-1", "c-2"} {
		path := writeFile(t, dir, id+".json", `{"id": "`+id+`", "creation_date": "2024-04-04T20:49:02", "update_date": "2024-04-04T20:49:02", "name": "`+id+`"}`)
		_, err := execute(t, "--db", db, "put", "Company", path)
		require.NoError(t, err)
	}

	out, err := execute(t, "--db", db, "--format", "json", "list", "Company")
	require.NoError(t, err)

	var result ListResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []string{"c-3", "c-1", "c-2"}, result.IDs)
}

func TestList_Empty(t *testing.T) {
	out, err := execute(t, "--db", tempDB(t), "--format", "json", "list", "Orbit")
	require.NoError(t, err)

	var result ListResult
	decodeResponse(t, out, &result)
	assert.NotNil(t, result.IDs)
	assert.Empty(t, result.IDs)
}

func TestStore_OpenFailure(t *testing.T) {
	out, err := execute(t, "--db", filepath.Join(t.TempDir(), "missing", "dir", "joe.db"), "list", "Orbit")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E301]")
}

func TestList_Where(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)
	dir := t.TempDir()
	other := writeFile(t, dir, "m-2.json", `{"id": "m-2", "creation_date": "2024-04-04T20:49:02", "update_date": "2024-04-04T20:49:02",
		"created_by": {"id": "c-2", "creation_date": "2024-04-04T20:49:02", "update_date": "2024-04-04T20:49:02", "name": "Orbital"},
		"name": "Gemini", "launch_date": "2027-04-04T20:49:02", "amd_enabled": false}`)
	_, err = execute(t, "--db", db, "put", "Mission", other)
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"text field", []string{"list", "Mission", "--where", "name=Gemini"}, []string{"m-2"}},
		{"bool field", []string{"list", "Mission", "--where", "amd_enabled=true"}, []string{"m-1"}},
		{"timestamp normalized", []string{"list", "Mission", "--where", "launch_date=2027-04-04T20:49:02+00:00"}, []string{"m-1", "m-2"}},
		{"through reference", []string{"list", "Mission", "--where", "created_by.name=Acme"}, []string{"m-1"}},
		{"foreign key", []string{"list", "Mission", "--where", "created_by=c-2"}, []string{"m-2"}},
		{"all must match", []string{"list", "Mission", "--where", "created_by.name=Acme", "--where", "name=Gemini"}, []string{}},
		{"limit", []string{"list", "Company", "--limit", "1"}, []string{"c-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--db", db, "--format", "json"}, tt.args...)...)
			require.NoError(t, err)

			var result ListResult
			decodeResponse(t, out, &result)
			assert.Equal(t, tt.want, result.IDs)
		})
	}
}

func TestList_WhereText(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "put", "Mission", missionFile)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "list", "Company", "--where", "name=Acme")
	require.NoError(t, err)
	assert.Equal(t, "c-1\n", out)
}

func TestList_InvalidWhere(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"unknown field", []string{"--where", "crew=3"}, `Mission has no field "crew"`},
		{"missing value", []string{"--where", "name"}, "expected field=value"},
		{"not a reference", []string{"--where", "name.first=A"}, "does not reference a record type"},
		{"uncoercible", []string{"--where", "launch_date=soon"}, "malformed ISO-8601 timestamp"},
		{"negative limit", []string{"--limit", "-1"}, "--limit must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", tempDB(t), "--format", "json", "list", "Mission"}, tt.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			assert.Equal(t, ErrCodeInvalidQuery, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.message)
		})
	}
}
