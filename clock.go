package conduit

import "sync/atomic"

// Clock is a monotonic logical clock stamping processed actions with a
// strictly increasing seq number. Because dispatch is single-threaded the
// seq order is exactly the processing order, which makes observer traces
// deterministic and replay-comparable without wall-clock races.
//
// Thread-safety: safe for concurrent use (atomic operations), though the
// single-writer dispatch loop is normally the only caller of Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
