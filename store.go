package conduit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/conduit/fasteq"
	"github.com/roach88/conduit/lens"
)

// DefaultMaxFollowUps caps the follow-up actions one dequeued action may
// spawn, transitively. This prevents a handler that keeps emitting
// follow-ups from wedging the loop forever.
const DefaultMaxFollowUps = 1000

// Step describes one processed action, emitted to observers in processing
// order. Seq comes from the store's logical clock; Token correlates an
// action with the follow-up tree it belongs to. Changed reports whether the
// whole-model check concluded "not equivalent" (and listener fan-out ran);
// Notified is the number of listeners the fan-out reached. Err carries the
// handler or listener failure for this action, if any.
type Step struct {
	Seq      int64
	Token    string
	Action   Action
	Changed  bool
	Notified int
	Err      error
}

// Observer receives a Step for every processed action, including the
// NoAction and Done sentinels. Observers run on the dispatch goroutine and
// must be fast; anything slow belongs behind a channel.
type Observer func(Step)

// Store owns the current model, the set of active listeners, and an
// unbounded ordered action queue, and runs the single serialized dispatch
// loop that ties them together.
//
// CRITICAL: at most one action transition is in flight per Store. Every
// transition, whether dequeued by Run or submitted through DispatchOne,
// runs under the dispatch mutex, so the single-writer guarantee holds for
// the full public surface rather than by caller convention.
//
// Thread-safety model:
//   - Enqueue, Subscribe, Unsubscribe, CurrentModel: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - DispatchOne: synchronous single-shot path; safe from any goroutine,
//     including alongside a running loop - it simply waits its turn
type Store[M any] struct {
	mu        sync.Mutex // guards model and listeners
	model     M
	listeners []notifier[M]

	dispatchMu sync.Mutex // serializes whole transitions (Run loop and DispatchOne)

	queue   *actionQueue
	handler Handler[M]
	eq      fasteq.Eq[M]
	clock   *Clock
	tokens  TokenGenerator
	logger  *slog.Logger

	observers    []Observer
	maxFollowUps int
}

// Option configures a Store.
type Option[M any] func(*Store[M])

// WithEqual substitutes the whole-model equivalence check that gates
// listener fan-out. Default: fasteq.Structural.
func WithEqual[M any](eq fasteq.Eq[M]) Option[M] {
	return func(s *Store[M]) {
		s.eq = eq
	}
}

// WithLogger sets the structured logger for the dispatch loop.
// Default: slog.Default().
func WithLogger[M any](logger *slog.Logger) Option[M] {
	return func(s *Store[M]) {
		s.logger = logger
	}
}

// WithTokenGenerator sets the correlation token source.
// Default: UUIDv7Generator.
func WithTokenGenerator[M any](gen TokenGenerator) Option[M] {
	return func(s *Store[M]) {
		s.tokens = gen
	}
}

// WithObserver registers an observer of processed actions. Observers are
// called in registration order.
func WithObserver[M any](obs Observer) Option[M] {
	return func(s *Store[M]) {
		s.observers = append(s.observers, obs)
	}
}

// WithMaxFollowUps sets the follow-up budget per dequeued action.
// Default: DefaultMaxFollowUps.
func WithMaxFollowUps[M any](n int) Option[M] {
	return func(s *Store[M]) {
		s.maxFollowUps = n
	}
}

// New creates a Store holding the initial model, dispatching through the
// given handler.
func New[M any](initial M, handler Handler[M], opts ...Option[M]) *Store[M] {
	s := &Store[M]{
		model:        initial,
		queue:        newActionQueue(),
		handler:      handler,
		eq:           fasteq.Structural[M](),
		clock:        NewClock(),
		tokens:       UUIDv7Generator{},
		logger:       slog.Default(),
		maxFollowUps: DefaultMaxFollowUps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentModel returns a point-in-time snapshot of the model. The snapshot
// is never stale relative to committed transitions: state advances on every
// handled action, even ones the change check found equivalent.
func (s *Store[M]) CurrentModel() M {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Enqueue appends actions to the tail of the queue, in the order given, and
// returns without waiting for processing. It cannot fail; enqueueing after
// Stop is a logged no-op.
//
// Thread-safe: any number of producers may enqueue concurrently. FIFO order
// holds per the single consumer; racing producers order by whichever
// Enqueue call completes first.
func (s *Store[M]) Enqueue(actions ...Action) {
	if !s.queue.Enqueue(actions...) {
		s.logger.Debug("enqueue after stop, dropping", "count", len(actions))
	}
}

// QueueLen returns the number of pending actions. Useful for monitoring
// and tests.
func (s *Store[M]) QueueLen() int {
	return s.queue.Len()
}

// Stop closes the action queue, which causes Run to return once the queue
// drains. Cooperative, not preemptive: an in-flight transition completes.
func (s *Store[M]) Stop() {
	s.queue.Close()
}

// Clock returns the store's logical clock, for stamping external records
// against the processing order.
func (s *Store[M]) Clock() *Clock {
	return s.clock
}

// Subscribe registers a listener deriving slice S from the model through
// cursor. The callback fires on the first notification after a model
// change, and afterwards only when the derived value differs from the last
// one observed. Registration always succeeds; a nil callback yields a
// no-op listener that tracks its slice without side effects.
//
// Subscribe is a package-level function because Go methods cannot introduce
// the slice type parameter.
func Subscribe[M, S any](s *Store[M], cursor lens.Lens[M, S], callback func(S) error, opts ...ListenerOption[S]) *Listener[M, S] {
	cfg := listenerConfig[S]{eq: fasteq.Structural[S]()}
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &Listener[M, S]{
		id:       uuid.NewString(),
		cursor:   cursor,
		callback: callback,
		eq:       cfg.eq,
	}

	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	return l
}

// Unsubscribe removes a listener. A listener removed concurrently with an
// in-flight notification round either fully participates in that round or
// not at all; rounds never see a torn listener set. Unknown subscriptions
// are ignored.
func (s *Store[M]) Unsubscribe(sub Subscription) {
	if sub == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners {
		if l.ListenerID() == sub.ListenerID() {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// DispatchOne runs exactly one action through the transition logic,
// bypassing the queue, and returns the action processed or the handler's
// error. It participates in the same unconditional-commit and
// change-detection rules as loop-driven dispatch, and takes the dispatch
// mutex, so it is safe to call while a Run loop is processing: the two
// never interleave within a transition.
func (s *Store[M]) DispatchOne(ctx context.Context, a Action) (Action, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if err := s.dispatchTree(ctx, a, s.tokens.Generate(), s.newBudget()); err != nil {
		return nil, err
	}
	return a, nil
}

// Run starts the dispatch loop and blocks until it stops.
//
// With drain set, Done is enqueued first: the loop processes everything
// already queued ahead of it, then stops. Without it, the loop runs until
// the context is cancelled or Stop is called, suspending (not busy-waiting)
// while the queue is empty.
//
// Per-action failures do not stop the loop: each is logged with full
// context and collected; Run returns them joined when it exits. Retrying
// here would make processing order non-deterministic, so it is left to the
// caller.
//
// CRITICAL: must be called from exactly one goroutine.
func (s *Store[M]) Run(ctx context.Context, drain bool) error {
	if drain {
		s.queue.Enqueue(Done)
	}

	s.logger.Info("dispatch loop starting", "drain", drain)

	var errs []error
	for {
		a, ok := s.queue.TryDequeue()
		if ok {
			s.dispatchMu.Lock()
			if _, terminal := a.(doneAction); terminal {
				s.observe(Step{Seq: s.clock.Next(), Action: a})
				s.dispatchMu.Unlock()
				s.logger.Info("dispatch loop stopping: done sentinel")
				return errors.Join(errs...)
			}

			token := s.tokens.Generate()
			err := s.dispatchTree(ctx, a, token, s.newBudget())
			s.dispatchMu.Unlock()
			if err != nil {
				s.logger.Error("action processing failed",
					"action", ActionName(a),
					"token", token,
					"error", err,
				)
				errs = append(errs, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("dispatch loop stopping: context cancelled")
			s.queue.Close()
			errs = append(errs, ctx.Err())
			return errors.Join(errs...)

		case <-s.queue.Wait():
			// Signal received; loop back to TryDequeue. The signal channel
			// closes when the queue closes, so this case then fires
			// immediately with an empty queue.
			if s.queue.Len() == 0 {
				s.logger.Info("dispatch loop stopping: queue closed")
				return errors.Join(errs...)
			}
		}
	}
}

func (s *Store[M]) newBudget() *int {
	budget := s.maxFollowUps
	return &budget
}

// dispatchTree processes one action and, depth-first, the follow-up tree
// it spawns. The whole tree shares one correlation token and one follow-up
// budget.
//
// CRITICAL: called only with dispatchMu held (by Run or DispatchOne) -
// single-writer guarantee.
func (s *Store[M]) dispatchTree(ctx context.Context, a Action, token string, budget *int) error {
	seq := s.clock.Next()

	// Sentinels never reach the handler: no commit, no fan-out. A Done
	// arriving as a follow-up is inert; only a dequeued Done stops the loop.
	switch a.(type) {
	case noAction, doneAction:
		s.observe(Step{Seq: seq, Token: token, Action: a})
		return nil
	}

	old := s.CurrentModel()

	res, err := s.handler.Handle(ctx, a, old)
	if err != nil {
		// No result was produced, so nothing is committed for this action.
		s.observe(Step{Seq: seq, Token: token, Action: a, Err: err})
		return fmt.Errorf("handle %s: %w", ActionName(a), err)
	}

	// Commit unconditionally: state advances even when the new model is
	// observationally identical to the old one.
	s.mu.Lock()
	s.model = res.Model
	round := make([]notifier[M], len(s.listeners))
	copy(round, s.listeners)
	s.mu.Unlock()

	// Clean is an explicit promise; only otherwise is the whole-model
	// equivalence evaluated, once, gating the entire fan-out.
	changed := !res.Clean && !s.eq(old, res.Model)

	var errs []error
	notified := 0
	if changed {
		for _, l := range round {
			notified++
			if err := l.notify(res.Model); err != nil {
				// Best-effort fan-out: surface the failure, keep notifying.
				errs = append(errs, &ListenerError{ListenerID: l.ListenerID(), Err: err})
			}
		}
	}

	s.observe(Step{
		Seq:      seq,
		Token:    token,
		Action:   a,
		Changed:  changed,
		Notified: notified,
		Err:      errors.Join(errs...),
	})

	s.logger.Debug("action processed",
		"action", ActionName(a),
		"token", token,
		"seq", seq,
		"changed", changed,
		"follow_ups", len(res.FollowUps),
	)

	// Follow-ups preempt queued siblings: the whole tree is processed
	// before control returns to drain the next queued action.
	for _, f := range res.FollowUps {
		if *budget <= 0 {
			errs = append(errs, &FollowUpLimitError{Token: token, Limit: s.maxFollowUps})
			break
		}
		*budget--
		if err := s.dispatchTree(ctx, f, token, budget); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Store[M]) observe(step Step) {
	for _, obs := range s.observers {
		obs(step)
	}
}
