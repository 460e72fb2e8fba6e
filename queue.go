package conduit

import "sync"

// actionQueue is a thread-safe FIFO queue of pending actions.
//
// The queue is unbounded so that producers never block and cascading
// follow-up chains can enqueue freely. FIFO order is strict from the
// perspective of the single consumer; between racing producers the only
// guarantee is whichever Enqueue completes first is dequeued first.
//
// A 1-buffered signal channel coalesces wake-ups so the dispatch loop can
// suspend on empty via select (TryDequeue + Wait) instead of busy-waiting,
// and still observe context cancellation.
type actionQueue struct {
	mu      sync.Mutex
	actions []Action
	closed  bool
	signal  chan struct{}
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]Action, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends actions to the tail of the queue in the order given.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue has been closed (the actions are dropped).
func (q *actionQueue) Enqueue(actions ...Action) bool {
	if len(actions) == 0 {
		return true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.actions = append(q.actions, actions...)

	// Non-blocking send; the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front action without blocking.
// Returns (nil, false) if the queue is empty.
func (q *actionQueue) TryDequeue() (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return nil, false
	}

	a := q.actions[0]

	// Nil out the slot so the backing array does not retain the action
	// until reallocation.
	q.actions[0] = nil

	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}

	return a, true
}

// Wait returns a channel that signals when actions may be available.
// Use with select alongside ctx.Done(); after a receive, call TryDequeue.
// The channel closes when the queue closes, waking all waiters.
func (q *actionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Close marks the queue closed and wakes any blocked waiters. Further
// enqueues are rejected; already-queued actions remain dequeueable.
func (q *actionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
