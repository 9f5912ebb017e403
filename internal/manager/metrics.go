package manager

import (
	"sync"
	"time"

	"deckhand/internal/card"
	"deckhand/pkg/logging"
)

// Metrics counts passes and load sessions for diagnostics.
type Metrics struct {
	mu sync.RWMutex

	passes          int64
	notifications   int64
	acceptedLoads   int64
	discardedLoads  int64
	droppedByType   map[card.Type]int64
	lastPassAt      time.Time
	lastPassTook    time.Duration
	lastPublishSize int
}

// Stats is a read-only view of Metrics.
type Stats struct {
	Passes         int64               `json:"passes"`
	Notifications  int64               `json:"notifications"`
	AcceptedLoads  int64               `json:"accepted_loads"`
	DiscardedLoads int64               `json:"discarded_loads"`
	DroppedUpdates map[card.Type]int64 `json:"dropped_updates,omitempty"`
	LastPassAt     time.Time           `json:"last_pass_at,omitempty"`
	LastPassTook   time.Duration       `json:"last_pass_took"`
	Published      int                 `json:"published"`
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{droppedByType: make(map[card.Type]int64)}
}

// RecordPass records an applied pass that published size cards.
func (m *Metrics) RecordPass(size int, notified bool, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passes++
	if notified {
		m.notifications++
	}
	m.lastPassAt = time.Now()
	m.lastPassTook = took
	m.lastPublishSize = size
}

// RecordLoad records the outcome of a load session.
func (m *Metrics) RecordLoad(accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accepted {
		m.acceptedLoads++
		return
	}
	m.discardedLoads++
}

// RecordDroppedUpdate records a producer update that could not be queued.
func (m *Metrics) RecordDroppedUpdate(t card.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.droppedByType[t]++
	logging.Warn("Manager", "Dropped update for %s (dropped: %d)", t, m.droppedByType[t])
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Passes:         m.passes,
		Notifications:  m.notifications,
		AcceptedLoads:  m.acceptedLoads,
		DiscardedLoads: m.discardedLoads,
		LastPassAt:     m.lastPassAt,
		LastPassTook:   m.lastPassTook,
		Published:      m.lastPublishSize,
	}
	if len(m.droppedByType) > 0 {
		s.DroppedUpdates = make(map[card.Type]int64, len(m.droppedByType))
		for t, n := range m.droppedByType {
			s.DroppedUpdates[t] = n
		}
	}
	return s
}
