package conduit

import (
	"context"

	"github.com/roach88/conduit/lens"
)

// Handler is a partial mapping from actions to state transitions.
//
// Handle consumes an action and the current model and produces the new
// model plus zero or more follow-up actions, or fails. A handler that does
// not match the action declines by returning Unhandled(action); the
// combinators below route between alternatives on that signal. Any other
// error is a domain error and is propagated to the dispatcher unchanged.
//
// Handlers must not retain or mutate the model they are given; every
// transition produces a new value.
type Handler[M any] interface {
	Handle(ctx context.Context, a Action, model M) (Result[M], error)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc[M any] func(ctx context.Context, a Action, model M) (Result[M], error)

// Handle implements Handler.
func (f HandlerFunc[M]) Handle(ctx context.Context, a Action, model M) (Result[M], error) {
	return f(ctx, a, model)
}

// OrElse composes handlers as left-biased alternatives: each handler is
// tried in order and the first one that matches the action wins. If every
// handler declines, the composed handler fails with *UnhandledActionError
// naming the action.
func OrElse[M any](handlers ...Handler[M]) Handler[M] {
	return HandlerFunc[M](func(ctx context.Context, a Action, model M) (Result[M], error) {
		for _, h := range handlers {
			res, err := h.Handle(ctx, a, model)
			if err == nil {
				return res, nil
			}
			if IsUnhandled(err) {
				continue
			}
			return Result[M]{}, err
		}
		return Result[M]{}, Unhandled(a)
	})
}

// Fold composes two handlers that are both consulted for every action.
//
// If exactly one matches, its result is used. If both match, they are
// applied sequentially: a's output model feeds b's input, and the follow-up
// actions are concatenated a's-first. The combined result is clean only
// when both halves declared their result clean. If neither matches, the
// composed handler fails with *UnhandledActionError.
func Fold[M any](a, b Handler[M]) Handler[M] {
	return HandlerFunc[M](func(ctx context.Context, act Action, model M) (Result[M], error) {
		resA, errA := a.Handle(ctx, act, model)
		if errA != nil && !IsUnhandled(errA) {
			return Result[M]{}, errA
		}

		if errA != nil {
			// Only b can match.
			resB, errB := b.Handle(ctx, act, model)
			if errB != nil {
				if IsUnhandled(errB) {
					return Result[M]{}, Unhandled(act)
				}
				return Result[M]{}, errB
			}
			return resB, nil
		}

		// a matched; feed its model into b.
		resB, errB := b.Handle(ctx, act, resA.Model)
		if errB != nil {
			if IsUnhandled(errB) {
				return resA, nil
			}
			return Result[M]{}, errB
		}

		followUps := make([]Action, 0, len(resA.FollowUps)+len(resB.FollowUps))
		followUps = append(followUps, resA.FollowUps...)
		followUps = append(followUps, resB.FollowUps...)

		return Result[M]{
			Model:     resB.Model,
			FollowUps: followUps,
			Clean:     resA.Clean && resB.Clean,
		}, nil
	})
}

// Focused scopes a handler to a sub-view of the model through a lens.
//
// The inner handler sees only the focused part; its output part is set
// back into the whole, leaving all other structure unchanged. Follow-ups
// and the clean hint pass through untouched, as does an unhandled decline.
func Focused[M, V any](cursor lens.Lens[M, V], inner Handler[V]) Handler[M] {
	return HandlerFunc[M](func(ctx context.Context, a Action, model M) (Result[M], error) {
		res, err := inner.Handle(ctx, a, cursor.Get(model))
		if err != nil {
			return Result[M]{}, err
		}
		return Result[M]{
			Model:     cursor.Set(model, res.Model),
			FollowUps: res.FollowUps,
			Clean:     res.Clean,
		}, nil
	})
}
