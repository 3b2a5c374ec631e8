package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// clearEnv unsets every JOE_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"JOE_DB", "JOE_SCHEMAS", "JOE_LOG_LEVEL", "JOE_FORMAT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON CLIResponse and decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if v != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, v))
	}
	return resp
}

// tempDB returns a store path inside a fresh temp directory.
func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "joe.db")
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const fleetSchema = `
package fleet

enums: Tier: [
	{label: "GOLD", value: "gold"},
	{label: "SILVER", value: "silver"},
]

types: Operator: {
	doc: "An operator of ground stations"
	fields: [
		{name: "name", type: "text"},
		{name: "tier", type: "Tier", default: "silver"},
	]
	example: {
		id:            "op-1"
		creation_date: "2024-04-04T20:49:02"
		update_date:   "2024-04-04T20:49:02"
		name:          "Acme"
		tier:          "gold"
	}
}
`
