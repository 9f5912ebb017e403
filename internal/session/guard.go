// Package session tracks aggregate load sessions and decides whether a
// completed load may be published.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"deckhand/pkg/logging"
)

// State is the guard's current session state.
type State string

const (
	StateNoSession  State = "NoSession"
	StateActive     State = "Active"
	StateSuperseded State = "Superseded"
)

// Handle identifies one load session. The zero Handle was never begun.
type Handle struct {
	ID    uuid.UUID
	Start time.Time
}

// IsZero reports whether h was never begun.
func (h Handle) IsZero() bool {
	return h.ID == uuid.Nil
}

func (h Handle) String() string {
	if h.IsZero() {
		return "<none>"
	}
	return h.ID.String()
}

// Reason explains a discarded completion.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNoSession  Reason = "no active session"
	ReasonSuperseded Reason = "superseded by a newer session"
	ReasonSlow       Reason = "exceeded slow load threshold"
)

// Decision is the outcome of completing a session.
type Decision struct {
	Accepted bool
	Reason   Reason
	Elapsed  time.Duration
}

func (d Decision) String() string {
	if d.Accepted {
		return fmt.Sprintf("accepted after %v", d.Elapsed)
	}
	return fmt.Sprintf("discarded: %s", d.Reason)
}

// Options configures a Guard.
type Options struct {
	// SlowLoadThreshold discards loads slower than this until the first load
	// has been accepted. Zero disables the check.
	SlowLoadThreshold time.Duration

	// Clock defaults to RealClock.
	Clock Clock
}

// Guard tracks at most one in-flight load session.
//
// State machine: NoSession -> Active -> {Accepted | Discarded} -> NoSession.
// Beginning a session while another is active moves the older one to
// Superseded; completing a superseded handle is always discarded.
type Guard struct {
	mu         sync.Mutex
	opts       Options
	active     Handle
	superseded map[uuid.UUID]bool
	firstLoad  bool
}

// NewGuard creates a guard in the NoSession state.
func NewGuard(opts Options) *Guard {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	return &Guard{
		opts:       opts,
		superseded: make(map[uuid.UUID]bool),
		firstLoad:  true,
	}
}

// Begin starts a new session and returns its handle.
func (g *Guard) Begin() Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active.IsZero() {
		logging.Debug("SessionGuard", "Session %s superseded", g.active)
		g.superseded[g.active.ID] = true
	}

	h := Handle{ID: uuid.New(), Start: g.opts.Clock.Now()}
	g.active = h
	logging.Debug("SessionGuard", "Session %s started", h)
	return h
}

// Complete decides whether the result of session h should be published.
func (g *Guard) Complete(h Handle) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.superseded[h.ID] {
		delete(g.superseded, h.ID)
		logging.Debug("SessionGuard", "Discarding completion for %s: %s", h, ReasonSuperseded)
		return Decision{Reason: ReasonSuperseded}
	}

	if h.IsZero() || h.ID != g.active.ID {
		logging.Debug("SessionGuard", "Discarding completion for %s: %s", h, ReasonNoSession)
		return Decision{Reason: ReasonNoSession}
	}

	elapsed := g.opts.Clock.Now().Sub(h.Start)
	g.active = Handle{}

	threshold := g.opts.SlowLoadThreshold
	if g.firstLoad && threshold > 0 && elapsed > threshold {
		logging.Info("SessionGuard", "Discarding session %s: took %v, threshold %v", h, elapsed, threshold)
		return Decision{Reason: ReasonSlow, Elapsed: elapsed}
	}

	g.firstLoad = false
	return Decision{Accepted: true, Elapsed: elapsed}
}

// State returns StateActive while a session is in flight.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active.IsZero() {
		return StateNoSession
	}
	return StateActive
}

// status reports the state of a specific handle.
func (g *Guard) status(h Handle) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.superseded[h.ID]:
		return StateSuperseded
	case !h.IsZero() && h.ID == g.active.ID:
		return StateActive
	default:
		return StateNoSession
	}
}
