// Package trace turns the store's observer steps into a deterministic,
// canonically-serialized processing trace.
//
// Traces back golden-file conformance tests and the CLI's journal: the
// same scenario, run twice, must produce byte-identical canonical JSON.
// Event IDs are content-addressed so a journal row can be checked for
// tampering or drift without replaying anything.
package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/roach88/conduit"
)

// DomainEvent is the domain-separation prefix for event ID hashing. The
// version suffix enables future algorithm migration.
const DomainEvent = "conduit/event/v1"

// Event is one processed action in trace form. All fields are plain values
// so the event survives canonical JSON and SQL round-trips.
type Event struct {
	Seq      int64          `json:"seq"`
	Token    string         `json:"token,omitempty"`
	Action   string         `json:"action"`
	Args     map[string]any `json:"args,omitempty"`
	Changed  bool           `json:"changed"`
	Notified int            `json:"notified"`
	Error    string         `json:"error,omitempty"`
}

// argProvider is implemented by actions that want their arguments in
// traces (see the document action types).
type argProvider interface {
	TraceArgs() map[string]any
}

// FromStep converts an observer step to a trace event.
func FromStep(step conduit.Step) Event {
	e := Event{
		Seq:      step.Seq,
		Token:    step.Token,
		Action:   conduit.ActionName(step.Action),
		Changed:  step.Changed,
		Notified: step.Notified,
	}
	if p, ok := step.Action.(argProvider); ok {
		e.Args = p.TraceArgs()
	}
	if step.Err != nil {
		e.Error = step.Err.Error()
	}
	return e
}

// canonicalMap renders the event for canonical serialization. Empty args,
// token, and error are omitted so hand-written golden files stay readable.
func (e Event) canonicalMap() map[string]any {
	m := map[string]any{
		"seq":      e.Seq,
		"action":   e.Action,
		"changed":  e.Changed,
		"notified": e.Notified,
	}
	if e.Token != "" {
		m["token"] = e.Token
	}
	if len(e.Args) > 0 {
		m["args"] = e.Args
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}

// MarshalEvent produces the canonical JSON form of one event.
func MarshalEvent(e Event) ([]byte, error) {
	return MarshalCanonical(e.canonicalMap())
}

// EventID computes the content-addressed identity of an event:
// SHA-256 over the domain prefix, a null separator, and the canonical
// JSON. The null byte prevents domain/data boundary ambiguity.
func EventID(e Event) (string, error) {
	canonical, err := MarshalEvent(e)
	if err != nil {
		return "", fmt.Errorf("EventID: %w", err)
	}
	return HashCanonical(canonical), nil
}

// HashCanonical hashes already-canonical JSON bytes under the event
// domain. Used to re-verify stored events without reconstructing them.
func HashCanonical(canonical []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainEvent))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// Snapshot is a complete trace for one scenario run.
type Snapshot struct {
	Scenario string
	Events   []Event
}

// MarshalSnapshot produces the canonical JSON form of a whole trace, the
// format golden files store.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	events := make([]any, len(s.Events))
	for i, e := range s.Events {
		events[i] = e.canonicalMap()
	}
	return MarshalCanonical(map[string]any{
		"scenario": s.Scenario,
		"events":   events,
	})
}

// Recorder collects trace events from a store's observer hook.
//
// Thread-safety: observers run on the dispatch goroutine, but Events may
// be read from elsewhere, so access is mutex-guarded.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe implements the store observer: pass r.Observe to
// conduit.WithObserver.
func (r *Recorder) Observe(step conduit.Step) {
	e := FromStep(step)
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in processing order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
