package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CounterBasics(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/counter-basics.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Errors)

	// Two sets, an increment, a touch, and the drain sentinel.
	require.Len(t, result.Events, 5)
	assert.Equal(t, "conduit.Done", result.Events[4].Action)

	// The duplicate set must not reach the callback.
	assert.Equal(t, []interface{}{1, int64(5)}, result.Callbacks["count"])

	assert.Equal(t, int64(5), result.Final["count"])
}

func TestRun_ExpectedError(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: expected-error
description: A fail step marked as expected passes; the loop continues past it.
flow:
  - action: fail
    message: boom
    expect: error
  - action: set
    path: after
    value: done
assertions:
  - type: final_state
    path: after
    value: done
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Errors)
	assert.Contains(t, result.Events[0].Error, "boom")
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: unexpected-error
description: A fail step without expect marks the run as failed.
flow:
  - action: fail
    message: surprise
assertions:
  - type: trace_count
    action: doc.fail
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: missing-error
description: Expecting an error from a step that succeeds fails the run.
flow:
  - action: touch
    path: x
    expect: error
assertions:
  - type: trace_count
    action: doc.touch
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Contains(t, result.Errors[0], "expected an error")
}

func TestRun_FailedAssertionReported(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong-final-state
description: A wrong final_state expectation shows up in Errors.
flow:
  - action: set
    path: count
    value: 1
assertions:
  - type: final_state
    path: count
    value: 99
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	assert.Contains(t, result.Errors[0], "final_state")
}

func TestRun_FixedTokenThreadsThroughTrace(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: fixed-token
description: The scenario token stamps every processed action.
token: tok-42
flow:
  - action: set
    path: x
    value: 1
assertions:
  - type: trace_count
    action: doc.set
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed())
	assert.Equal(t, "tok-42", result.Events[0].Token)
}

func TestRun_NestedPaths(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: nested-paths
description: Dot paths create intermediate maps and scope subscriptions.
subscriptions:
  - path: user.score
flow:
  - action: set
    path: user.score
    value: 10
  - action: set
    path: user.name
    value: alice
assertions:
  - type: callback_count
    path: user.score
    count: 1
  - type: final_state
    path: user.name
    value: alice
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Errors)
}
