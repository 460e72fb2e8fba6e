// Package document provides a dynamic document model for driving a conduit
// store from scenario files and the CLI.
//
// The model is a nested map[string]any document; actions address values by
// key path and go through copy-on-write path lenses, so every transition
// produces a new document sharing untouched structure with the old one.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/conduit"
	"github.com/roach88/conduit/lens"
)

// Doc is the document model: a nested string-keyed tree of scalars, maps,
// and slices.
type Doc = map[string]any

// Set replaces the value at Path, creating intermediate maps as needed.
type Set struct {
	Path  []string
	Value any
}

// Action implements conduit.Action.
func (Set) Action() {}

// String names the action in logs and traces.
func (Set) String() string { return "doc.set" }

// TraceArgs exposes the action's arguments to the trace layer.
func (a Set) TraceArgs() map[string]any {
	return map[string]any{"path": strings.Join(a.Path, "."), "value": a.Value}
}

// Increment adds Delta to the integer at Path. An absent value counts as 0;
// a non-integer value is a domain error.
type Increment struct {
	Path  []string
	Delta int64
}

// Action implements conduit.Action.
func (Increment) Action() {}

// String names the action in logs and traces.
func (Increment) String() string { return "doc.increment" }

// TraceArgs exposes the action's arguments to the trace layer.
func (a Increment) TraceArgs() map[string]any {
	return map[string]any{"path": strings.Join(a.Path, "."), "delta": a.Delta}
}

// Touch re-reads the value at Path and returns the document unchanged,
// with the clean hint set: the store skips change detection and listener
// fan-out entirely. Useful for exercising the fast path and for keep-alive
// style no-ops that should still appear in traces.
type Touch struct {
	Path []string
}

// Action implements conduit.Action.
func (Touch) Action() {}

// String names the action in logs and traces.
func (Touch) String() string { return "doc.touch" }

// TraceArgs exposes the action's arguments to the trace layer.
func (a Touch) TraceArgs() map[string]any {
	return map[string]any{"path": strings.Join(a.Path, ".")}
}

// Fail always fails with a domain error carrying Message. It exists so
// scenarios can exercise the error path of the dispatch loop.
type Fail struct {
	Message string
}

// Action implements conduit.Action.
func (Fail) Action() {}

// String names the action in logs and traces.
func (Fail) String() string { return "doc.fail" }

// TraceArgs exposes the action's arguments to the trace layer.
func (a Fail) TraceArgs() map[string]any {
	return map[string]any{"message": a.Message}
}

// Error is the document domain error. The core propagates it unchanged.
type Error struct {
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("document: %s", e.Message)
}

// Handler returns the document action handler: a left-biased composition of
// one partial handler per action type.
func Handler() conduit.Handler[Doc] {
	return conduit.OrElse(
		setHandler(),
		incrementHandler(),
		touchHandler(),
		failHandler(),
	)
}

func setHandler() conduit.Handler[Doc] {
	return conduit.HandlerFunc[Doc](func(_ context.Context, a conduit.Action, m Doc) (conduit.Result[Doc], error) {
		act, ok := a.(Set)
		if !ok {
			return conduit.Result[Doc]{}, conduit.Unhandled(a)
		}
		if len(act.Path) == 0 {
			return conduit.Result[Doc]{}, &Error{Message: "set: empty path"}
		}
		cursor := lens.Path(act.Path...)
		return conduit.Result[Doc]{Model: cursor.Set(m, act.Value)}, nil
	})
}

func incrementHandler() conduit.Handler[Doc] {
	return conduit.HandlerFunc[Doc](func(_ context.Context, a conduit.Action, m Doc) (conduit.Result[Doc], error) {
		act, ok := a.(Increment)
		if !ok {
			return conduit.Result[Doc]{}, conduit.Unhandled(a)
		}
		if len(act.Path) == 0 {
			return conduit.Result[Doc]{}, &Error{Message: "increment: empty path"}
		}

		cursor := lens.Path(act.Path...)
		cur, err := asInt64(cursor.Get(m))
		if err != nil {
			return conduit.Result[Doc]{}, &Error{
				Message: fmt.Sprintf("increment %s: %v", strings.Join(act.Path, "."), err),
			}
		}

		return conduit.Result[Doc]{Model: cursor.Set(m, cur+act.Delta)}, nil
	})
}

func touchHandler() conduit.Handler[Doc] {
	return conduit.HandlerFunc[Doc](func(_ context.Context, a conduit.Action, m Doc) (conduit.Result[Doc], error) {
		act, ok := a.(Touch)
		if !ok {
			return conduit.Result[Doc]{}, conduit.Unhandled(a)
		}
		// Reading keeps the lens path honest even though nothing changes.
		_ = lens.Path(act.Path...).Get(m)
		return conduit.Result[Doc]{Model: m, Clean: true}, nil
	})
}

func failHandler() conduit.Handler[Doc] {
	return conduit.HandlerFunc[Doc](func(_ context.Context, a conduit.Action, m Doc) (conduit.Result[Doc], error) {
		act, ok := a.(Fail)
		if !ok {
			return conduit.Result[Doc]{}, conduit.Unhandled(a)
		}
		return conduit.Result[Doc]{}, &Error{Message: act.Message}
	})
}

// asInt64 reads a document value as an integer. Absent values (nil) count
// as zero so counters need no initialization step.
func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("value is %T, not an integer", v)
	}
}
