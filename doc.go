// Package conduit is a single-process, in-memory reactive state container.
//
// A Store owns one immutable model value. The model is mutated exclusively
// through Actions processed by a single-writer dispatch loop, one at a time,
// in FIFO order. Interested parties subscribe to derived slices of the model
// through composable lenses and are called back only when their slice's
// value actually changes.
//
// The moving parts:
//
//   - Action: a discrete request to transition the model. Two sentinels are
//     reserved: NoAction (explicit no-op) and Done (terminates the loop).
//   - Handler: a partial, composable mapping from actions to transitions.
//     Handlers may emit follow-up actions, which are dispatched depth-first
//     before the next queued action.
//   - lens.Lens: a pure get/set pair focusing a sub-part of the model.
//   - fasteq.Eq: a pluggable equivalence check used for change detection.
//   - Listener: a lens-scoped subscription tracking its own last-seen value.
//
// Thread-safety model (mirrors the single-writer engine design):
//
//   - Enqueue() is safe from any goroutine.
//   - Run() must be called from exactly one goroutine; all model and
//     listener mutation happens on that goroutine or under the store mutex.
//   - Subscribe/Unsubscribe/CurrentModel are safe from any goroutine.
//
// Errors are structured: an action with no matching handler branch fails
// with *UnhandledActionError; a subscriber callback failure surfaces as a
// *ListenerError without blocking other listeners or the committed model.
package conduit
