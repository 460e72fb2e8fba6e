package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios drive a document store through a flow of actions and assert on
// the resulting trace, callback activity, and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is the starting document model. Optional; defaults to empty.
	Initial map[string]interface{} `yaml:"initial,omitempty"`

	// Subscriptions lists the document paths to watch during the run.
	// Each gets a counting callback whose observations feed the
	// callback_count assertion.
	Subscriptions []SubscriptionSpec `yaml:"subscriptions,omitempty"`

	// Flow contains the main test flow - document actions with expected
	// outcomes, processed in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace, callbacks, and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// callback_count, final_state
	Assertions []Assertion `yaml:"assertions"`

	// Token is an optional fixed correlation token for deterministic tests.
	// If empty, defaults to "test-token" for golden file comparison.
	Token string `yaml:"token,omitempty"`
}

// SubscriptionSpec declares one watched document path.
type SubscriptionSpec struct {
	// Path is the dot-separated document path (e.g., "user.score").
	Path string `yaml:"path"`
}

// FlowStep represents one document action in the flow.
type FlowStep struct {
	// Action is the action kind: "set", "increment", "touch", or "fail".
	Action string `yaml:"action"`

	// Path is the dot-separated document path the action targets.
	// Required for set, increment, and touch.
	Path string `yaml:"path,omitempty"`

	// Value is the value to store (set only).
	Value interface{} `yaml:"value,omitempty"`

	// Delta is the amount to add (increment only; defaults to 1).
	Delta int64 `yaml:"delta,omitempty"`

	// Message is the failure message (fail only).
	Message string `yaml:"message,omitempty"`

	// Expect is the expected outcome: "ok" or "error". Empty means "ok".
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates trace, callbacks, or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check action appears in trace
	// - "trace_order": Check actions appear in order
	// - "trace_count": Check action appears exactly N times
	// - "callback_count": Check a subscription's callback fired N times
	// - "final_state": Check the value at a document path
	Type string `yaml:"type"`

	// Action is the trace action name, e.g. "doc.set"
	// (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of occurrences
	// (trace_count, callback_count).
	Count int `yaml:"count,omitempty"`

	// Path is the document path (callback_count, final_state).
	Path string `yaml:"path,omitempty"`

	// Value is the expected value (final_state).
	Value interface{} `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertCallbackCount = "callback_count"
	AssertFinalState    = "final_state"
)

// Flow step action kinds.
const (
	StepSet       = "set"
	StepIncrement = "increment"
	StepTouch     = "touch"
	StepFail      = "fail"
)

// Expected outcome values.
const (
	ExpectOK    = "ok"
	ExpectError = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, sub := range s.Subscriptions {
		if sub.Path == "" {
			return fmt.Errorf("subscriptions[%d]: path is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single flow step based on its action kind.
func validateStep(index int, step *FlowStep) error {
	switch step.Action {
	case StepSet:
		if step.Path == "" {
			return fmt.Errorf("flow[%d]: path is required for set", index)
		}
		if step.Value == nil {
			return fmt.Errorf("flow[%d]: value is required for set", index)
		}
	case StepIncrement, StepTouch:
		if step.Path == "" {
			return fmt.Errorf("flow[%d]: path is required for %s", index, step.Action)
		}
	case StepFail:
		if step.Message == "" {
			return fmt.Errorf("flow[%d]: message is required for fail", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: action is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", index, step.Action)
	}

	switch step.Expect {
	case "", ExpectOK, ExpectError:
	default:
		return fmt.Errorf("flow[%d]: expect must be %q or %q, got %q",
			index, ExpectOK, ExpectError, step.Expect)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertCallbackCount:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for callback_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for callback_count", index)
		}
	case AssertFinalState:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
