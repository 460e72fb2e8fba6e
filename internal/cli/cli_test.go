package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given args and returns
// captured stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// writeScenario writes scenario YAML to a temp file and returns its path.
func writeScenario(t *testing.T, name, yaml string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

const passingScenarioYAML = `
name: cli-pass
description: A passing scenario for CLI tests.
subscriptions:
  - path: count
flow:
  - action: set
    path: count
    value: 1
  - action: increment
    path: count
    delta: 2
assertions:
  - type: callback_count
    path: count
    count: 2
  - type: final_state
    path: count
    value: 3
`

const failingScenarioYAML = `
name: cli-fail
description: A failing scenario for CLI tests.
flow:
  - action: set
    path: count
    value: 1
assertions:
  - type: final_state
    path: count
    value: 2
`
