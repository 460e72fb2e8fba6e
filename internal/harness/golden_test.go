package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden files pin the exact canonical trace bytes a scenario produces.
// Regenerate with: go test ./internal/harness -update
func TestGolden_CounterBasics(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/counter-basics.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Errors)
}

// Running the same scenario twice yields identical traces. Determinism is
// what makes the golden comparison meaningful at all.
func TestGolden_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/counter-basics.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Events, second.Events)
}
