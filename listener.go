package conduit

import (
	"github.com/roach88/conduit/fasteq"
	"github.com/roach88/conduit/lens"
)

// notifier is the type-erased view of a listener held by the store; the
// slice type parameter is private to each subscription.
type notifier[M any] interface {
	notify(model M) error
	ListenerID() string
}

// Subscription identifies a registered listener for removal.
type Subscription interface {
	ListenerID() string
}

// Listener binds a lens to a callback and privately owns the last part
// value it observed. On each notification it re-derives its slice of the
// model and invokes the callback only when the slice's value actually
// changed according to its equivalence check.
//
// A Listener belongs to exactly one store and is mutated only during that
// store's notification fan-out.
type Listener[M, S any] struct {
	id       string
	cursor   lens.Lens[M, S]
	callback func(S) error
	eq       fasteq.Eq[S]
	last     *S // nil until a value has been observed
}

// ListenerID returns the listener's unique identity.
func (l *Listener[M, S]) ListenerID() string {
	return l.id
}

// notify re-derives the listener's slice from the new model and invokes the
// callback if the value changed (or nothing was observed yet).
//
// The last-observed value is updated on every notification, including ones
// that skip the callback - EXCEPT when the callback fails. On failure the
// old value is kept, so the next notification still sees "changed" and
// attempts the callback again. The failure is surfaced to the caller; no
// retry is scheduled here.
func (l *Listener[M, S]) notify(model M) error {
	part := l.cursor.Get(model)

	if l.last != nil && l.eq(*l.last, part) {
		l.last = &part
		return nil
	}

	if l.callback != nil {
		if err := l.callback(part); err != nil {
			return err
		}
	}

	l.last = &part
	return nil
}

// ListenerOption configures a subscription.
type ListenerOption[S any] func(*listenerConfig[S])

type listenerConfig[S any] struct {
	eq fasteq.Eq[S]
}

// WithListenerEqual substitutes the equivalence check used to decide
// whether the listener's slice changed. Default: fasteq.Structural.
func WithListenerEqual[S any](eq fasteq.Eq[S]) ListenerOption[S] {
	return func(c *listenerConfig[S]) {
		c.eq = eq
	}
}
