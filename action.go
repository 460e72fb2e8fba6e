package conduit

import (
	"fmt"
	"reflect"
)

// Action is a discrete request to transition the model.
//
// Concrete actions are domain-defined marker types:
//
//	type Increment struct{ By int }
//	func (Increment) Action() {}
//
// Two sentinel actions are reserved by the store: NoAction and Done.
type Action interface {
	Action()
}

type noAction struct{}

func (noAction) Action()        {}
func (noAction) String() string { return "conduit.NoAction" }

type doneAction struct{}

func (doneAction) Action()        {}
func (doneAction) String() string { return "conduit.Done" }

// NoAction is an explicit no-op. It always succeeds, never reaches the
// handler, mutates no state, and notifies no listeners.
var NoAction Action = noAction{}

// Done is the termination sentinel. When the dispatch loop dequeues Done it
// consumes it and stops; Done is never re-enqueued or forwarded. Actions
// already queued ahead of Done are processed first (cooperative shutdown).
var Done Action = doneAction{}

// Result is the outcome of a successful transition.
//
// Model always replaces the store's current model, even when it is
// observationally identical to the old one. FollowUps are dispatched
// depth-first, in order, before the next queued action.
//
// Clean is an optional hint that the producer already knows no meaningful
// change occurred; it lets the store skip the whole-model equality check
// and suppress listener fan-out entirely. The zero value (false) means
// "unknown, check".
type Result[M any] struct {
	Model     M
	FollowUps []Action
	Clean     bool
}

// ActionName returns a diagnostic name for an action: its fmt.Stringer
// output if it has one, otherwise its Go type.
func ActionName(a Action) string {
	if a == nil {
		return "<nil>"
	}
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return reflect.TypeOf(a).String()
}
