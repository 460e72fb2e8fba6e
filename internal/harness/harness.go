// Package harness provides a conformance testing framework for the conduit
// store.
//
// Scenarios are YAML files that describe an initial document, a set of
// watched paths, a flow of document actions, and assertions over the
// resulting trace, callback activity, and final state. The harness runs
// each scenario against a real store with a fixed correlation token, so the
// recorded trace is deterministic and comparable against golden files.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/conduit"
	"github.com/roach88/conduit/internal/document"
	"github.com/roach88/conduit/internal/trace"
	"github.com/roach88/conduit/lens"
)

// DefaultToken is the correlation token used when a scenario does not fix
// one. Keeping it constant keeps golden files stable.
const DefaultToken = "test-token"

// Result captures everything observable from one scenario run.
type Result struct {
	// Scenario is the scenario name.
	Scenario string

	// Events is the recorded trace in processing order, including the
	// drain sentinel.
	Events []trace.Event

	// Final is the document after the flow drained.
	Final document.Doc

	// Callbacks maps each subscribed path to the values its callback
	// observed, in notification order.
	Callbacks map[string][]interface{}

	// Errors lists assertion and expectation failures. Empty means pass.
	Errors []string
}

// Passed reports whether the run satisfied every expectation and assertion.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// AddError records a failure message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Run executes a scenario against a fresh store and returns the result.
//
// Execution flow:
//  1. Build a store over the scenario's initial document
//  2. Register a counting subscription per watched path
//  3. Enqueue the flow actions and drain the dispatch loop
//  4. Check each step's expected outcome against the trace
//  5. Evaluate the scenario assertions
//
// Run returns an error only for infrastructure failures (a malformed flow
// step); scenario failures land in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	token := scenario.Token
	if token == "" {
		token = DefaultToken
	}

	initial := document.Doc{}
	for k, v := range scenario.Initial {
		initial[k] = v
	}

	rec := trace.NewRecorder()
	store := conduit.New(initial, document.Handler(),
		conduit.WithTokenGenerator[document.Doc](conduit.NewFixedGenerator(token)),
		conduit.WithObserver[document.Doc](rec.Observe),
		conduit.WithLogger[document.Doc](slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := &Result{
		Scenario:  scenario.Name,
		Callbacks: make(map[string][]interface{}),
	}

	for _, sub := range scenario.Subscriptions {
		path := sub.Path
		conduit.Subscribe(store, lens.Path(splitPath(path)...), func(v interface{}) error {
			result.Callbacks[path] = append(result.Callbacks[path], v)
			return nil
		})
	}

	actions := make([]conduit.Action, len(scenario.Flow))
	for i, step := range scenario.Flow {
		a, err := stepToAction(step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		actions[i] = a
	}

	store.Enqueue(actions...)

	// Expected failures (fail steps) surface in the joined run error too;
	// the per-step checks below sort expected from unexpected.
	_ = store.Run(context.Background(), true)

	result.Events = rec.Events()
	result.Final = store.CurrentModel()

	checkExpectations(scenario, result)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// stepToAction converts a validated flow step to its document action.
func stepToAction(step FlowStep) (conduit.Action, error) {
	path := splitPath(step.Path)
	switch step.Action {
	case StepSet:
		return document.Set{Path: path, Value: step.Value}, nil
	case StepIncrement:
		delta := step.Delta
		if delta == 0 {
			delta = 1
		}
		return document.Increment{Path: path, Delta: delta}, nil
	case StepTouch:
		return document.Touch{Path: path}, nil
	case StepFail:
		return document.Fail{Message: step.Message}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// checkExpectations matches each flow step's expected outcome against its
// trace event. The loop processes flow actions in order, so event i
// corresponds to flow step i; the trailing drain sentinel is skipped.
func checkExpectations(scenario *Scenario, result *Result) {
	for i, step := range scenario.Flow {
		if i >= len(result.Events) {
			result.AddError(fmt.Sprintf("flow[%d]: no trace event recorded", i))
			continue
		}

		failed := result.Events[i].Error != ""
		switch {
		case step.Expect == ExpectError && !failed:
			result.AddError(fmt.Sprintf("flow[%d] (%s): expected an error, got success", i, step.Action))
		case step.Expect != ExpectError && failed:
			result.AddError(fmt.Sprintf("flow[%d] (%s): unexpected error: %s", i, step.Action, result.Events[i].Error))
		}
	}
}

// splitPath converts a dot-separated scenario path to lens path keys.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
