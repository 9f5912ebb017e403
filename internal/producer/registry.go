package producer

import (
	"fmt"
	"sort"
	"sync"

	"deckhand/internal/card"
	"deckhand/pkg/logging"
)

// registration ties a factory to the types it serves and memoises the
// producer it builds.
type registration struct {
	name      string
	types     []card.Type
	factory   Factory
	producer  Producer
	observing bool
}

func (r *registration) owns(t card.Type) bool {
	for _, owned := range r.types {
		if owned == t {
			return true
		}
	}
	return false
}

// Registry maps card types to producers and builds producers lazily.
type Registry struct {
	mu sync.Mutex

	sink      Sink
	lifecycle Lifecycle

	byType  map[card.Type]*registration
	ordered []*registration

	// missing records types already reported as having no producer
	missing map[card.Type]bool
}

// NewRegistry creates a registry whose producers push to sink. lifecycle may
// be nil when no registered producer needs background evaluation.
func NewRegistry(sink Sink, lifecycle Lifecycle) *Registry {
	return &Registry{
		sink:      sink,
		lifecycle: lifecycle,
		byType:    make(map[card.Type]*registration),
		missing:   make(map[card.Type]bool),
	}
}

// Register declares that factory serves types under the given name.
func (r *Registry) Register(name string, types []card.Type, factory Factory) error {
	if len(types) == 0 {
		return fmt.Errorf("producer %s must own at least one card type", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range types {
		if existing, ok := r.byType[t]; ok {
			return fmt.Errorf("%w: %s is owned by %s", ErrDuplicateOwnership, t, existing.name)
		}
	}

	reg := &registration{
		name:    name,
		types:   append([]card.Type(nil), types...),
		factory: factory,
	}
	for _, t := range types {
		r.byType[t] = reg
		delete(r.missing, t)
	}
	r.ordered = append(r.ordered, reg)

	logging.Debug("Registry", "Registered producer %s for %v", name, types)
	return nil
}

// Get returns the producer for t, building, binding and attaching it on first
// use. It reports false if no producer is configured for t.
func (r *Registry) Get(t card.Type) (Producer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.byType[t]
	if !ok {
		if !r.missing[t] {
			r.missing[t] = true
			logging.Warn("Registry", "Cannot find producer for card type %s", t)
		}
		return nil, false
	}

	if reg.producer == nil {
		p, err := reg.factory()
		if err != nil {
			logging.Error("Registry", err, "Failed to build producer %s", reg.name)
			return nil, false
		}
		if p == nil {
			logging.Warn("Registry", "Factory for %s returned no producer", reg.name)
			return nil, false
		}
		p.Bind(&boundSink{owner: reg.name, owned: reg.owns, next: r.sink})
		reg.producer = p
		logging.Info("Registry", "Created producer %s", reg.name)
	}

	if observer, isObserver := reg.producer.(LifecycleObserver); isObserver && !reg.observing {
		if r.lifecycle == nil {
			logging.Warn("Registry", "Producer %s needs a lifecycle host but none is configured", reg.name)
		} else if err := r.lifecycle.AddObserver(observer); err != nil {
			logging.Error("Registry", err, "Failed to attach producer %s to lifecycle", reg.name)
		} else {
			reg.observing = true
		}
	}

	return reg.producer, true
}

// Ensure resolves the producer for every given type. Types without a
// producer are skipped.
func (r *Registry) Ensure(types ...card.Type) {
	for _, t := range types {
		r.Get(t)
	}
}

// Owner returns the name of the registration owning t.
func (r *Registry) Owner(t card.Type) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.byType[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return reg.name, nil
}

// Active returns the names of producers built so far, sorted.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for _, reg := range r.ordered {
		if reg.producer != nil {
			names = append(names, reg.name)
		}
	}
	sort.Strings(names)
	return names
}

// boundSink is the sink a producer sees. It validates the producer's batches
// before they reach the shared sink.
type boundSink struct {
	owner string
	owned func(card.Type) bool
	next  Sink
}

func (s *boundSink) Notify(t card.Type, cards []card.Card) {
	if !s.owned(t) {
		logging.Warn("Registry", "Dropping update from %s for card type %s it does not own", s.owner, t)
		return
	}
	if err := card.ValidateBatch(t, cards); err != nil {
		logging.Warn("Registry", "Dropping update from %s: %v", s.owner, err)
		return
	}
	s.next.Notify(t, append([]card.Card(nil), cards...))
}
