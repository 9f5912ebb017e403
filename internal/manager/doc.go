// Package manager owns the published card set.
//
// A single goroutine, started with Run, applies every change to the set.
// Changes arrive as messages on a bounded channel and are applied in the
// order they were enqueued:
//
//   - completions of aggregate loads started with LoadCards, checked against
//     the load-session guard so stale or slow loads never reach the screen
//   - targeted updates pushed by producers through Notify
//   - synchronous updates applied with OnContextualCardUpdated
//
// Each accepted change runs one pass: the first-launch filter, carry-over
// and merge, ranking, producer set-up for every type in the result and a
// single listener notification carrying the full ordered list under
// card.TypeDefault.
//
// When a Loader is configured, producer pushes are held until the first
// load session completes and are then applied as one pass after it. The
// first pass, and with it the first-launch filter, therefore always belongs
// to the load. Loaded cards of locally owned types are dropped: those types
// are written only by their in-process producers.
//
// The listener is called from the owner goroutine. It must not call back
// into blocking manager operations such as OnContextualCardUpdated.
package manager
