package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/conduit/internal/trace"
	"github.com/roach88/conduit/lens"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []trace.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s changed=%t notified=%d\n", i+1, event.Action, event.Changed, event.Notified)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the run result and
// returns the failure messages. All assertions are evaluated; the caller
// gets the complete picture, not just the first failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Events, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Events, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Events, a)
		case AssertCallbackCount:
			err = assertCallbackCount(result, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertTraceContains checks if the trace contains an event with the
// specified action name.
func assertTraceContains(events []trace.Event, assertion Assertion) error {
	for _, event := range events {
		if event.Action == assertion.Action {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s in trace", assertion.Action),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(events []trace.Event, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range events {
		for _, expected := range assertion.Actions {
			if event.Action == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    events,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev := assertion.Actions[i-1]
		curr := assertion.Actions[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: events,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the action appears exactly the specified
// number of times.
func assertTraceCount(events []trace.Event, assertion Assertion) error {
	count := 0
	for _, event := range events {
		if event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("action %s appears %d times", assertion.Action, assertion.Count),
			Actual:   fmt.Sprintf("appears %d times", count),
			Trace:    events,
		}
	}

	return nil
}

// assertCallbackCount checks how many times the subscription on a path
// actually fired. This is the slice-level suppression check: equivalent
// derived values must not reach the callback.
func assertCallbackCount(result *Result, assertion Assertion) error {
	got := len(result.Callbacks[assertion.Path])
	if got != assertion.Count {
		return &AssertionError{
			Type:     AssertCallbackCount,
			Expected: fmt.Sprintf("callback for %s fires %d times", assertion.Path, assertion.Count),
			Actual:   fmt.Sprintf("fired %d times with %v", got, result.Callbacks[assertion.Path]),
			Trace:    result.Events,
		}
	}
	return nil
}

// assertFinalState checks the value at a document path in the final model.
func assertFinalState(result *Result, assertion Assertion) error {
	got := lens.Path(splitPath(assertion.Path)...).Get(result.Final)
	if !valueEqual(got, assertion.Value) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %v (%T)", assertion.Path, assertion.Value, assertion.Value),
			Actual:   fmt.Sprintf("%v (%T)", got, got),
			Trace:    result.Events,
		}
	}
	return nil
}

// valueEqual compares a document value with a YAML-decoded expectation.
// Integer widths are normalized: increments store int64 while YAML decodes
// literals as int, and the two must compare equal.
func valueEqual(got, want interface{}) bool {
	gi, gok := asInt64(got)
	wi, wok := asInt64(want)
	if gok && wok {
		return gi == wi
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
