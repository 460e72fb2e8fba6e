package conduit

import (
	"errors"
	"fmt"
)

// UnhandledActionError reports that no branch of a handler (or any composed
// sub-handler) matched the dispatched action. It carries the action for
// diagnostics.
//
// Handlers return this error (via Unhandled) to decline an action; the
// combinators OrElse and Fold use it to route between alternatives.
type UnhandledActionError struct {
	Action Action
}

// Error implements the error interface.
func (e *UnhandledActionError) Error() string {
	return fmt.Sprintf("unhandled action: %s", ActionName(e.Action))
}

// Unhandled creates the error a partial handler returns to decline an action.
func Unhandled(a Action) error {
	return &UnhandledActionError{Action: a}
}

// IsUnhandled returns true if the error is an unhandled-action error.
// Uses errors.As to handle wrapped errors.
func IsUnhandled(err error) bool {
	var ue *UnhandledActionError
	return errors.As(err, &ue)
}

// ListenerError reports a subscriber callback failure during notification
// fan-out. One listener's failure never blocks other listeners or rolls
// back the already-committed model; the failures are collected and joined.
type ListenerError struct {
	ListenerID string
	Err        error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s: callback failed: %v", e.ListenerID, e.Err)
}

// Unwrap returns the underlying callback error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// IsListenerError returns true if the error is (or wraps) a listener
// callback failure.
func IsListenerError(err error) bool {
	var le *ListenerError
	return errors.As(err, &le)
}

// FollowUpLimitError reports that one dequeued action spawned more
// follow-up actions, transitively, than the store's budget allows. The
// remaining follow-ups are dropped; everything dispatched up to the limit
// stays committed.
type FollowUpLimitError struct {
	Token string
	Limit int
}

// Error implements the error interface.
func (e *FollowUpLimitError) Error() string {
	return fmt.Sprintf("follow-up limit exceeded (limit=%d, token=%s)", e.Limit, e.Token)
}

// IsFollowUpLimit returns true if the error is a follow-up budget
// violation.
func IsFollowUpLimit(err error) bool {
	var fe *FollowUpLimitError
	return errors.As(err, &fe)
}
