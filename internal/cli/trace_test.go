package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedJournal runs the passing scenario with --record and returns the
// journal path.
func recordedJournal(t *testing.T) string {
	t.Helper()

	scenario := writeScenario(t, "pass.yaml", passingScenarioYAML)
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	_, err := executeCommand(t, "run", "--record", dbPath, scenario)
	require.NoError(t, err)
	return dbPath
}

func TestTrace_ListScenarios(t *testing.T) {
	dbPath := recordedJournal(t)

	out, err := executeCommand(t, "trace", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "cli-pass")
}

func TestTrace_PrintEvents(t *testing.T) {
	dbPath := recordedJournal(t)

	out, err := executeCommand(t, "trace", dbPath, "cli-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "doc.set")
	assert.Contains(t, out, "doc.increment")
	assert.Contains(t, out, "conduit.Done")
}

func TestTrace_Verify(t *testing.T) {
	dbPath := recordedJournal(t)

	_, err := executeCommand(t, "trace", "--verify", dbPath, "cli-pass")
	require.NoError(t, err)
}

func TestTrace_UnknownScenario(t *testing.T) {
	dbPath := recordedJournal(t)

	_, err := executeCommand(t, "trace", dbPath, "never-ran")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_MissingJournal(t *testing.T) {
	_, err := executeCommand(t, "trace", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_JSONOutput(t *testing.T) {
	dbPath := recordedJournal(t)

	out, err := executeCommand(t, "trace", "--format", "json", dbPath, "cli-pass")
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"doc.set"`)
}
