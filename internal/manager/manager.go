package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"deckhand/internal/card"
	"deckhand/internal/launch"
	"deckhand/internal/loader"
	"deckhand/internal/producer"
	"deckhand/internal/reconciler"
	"deckhand/internal/session"
	"deckhand/pkg/logging"
)

// ErrNotRunning is returned by blocking operations once Run has returned.
var ErrNotRunning = errors.New("card manager is not running")

var errAlreadyRunning = errors.New("card manager is already running")

const defaultUpdateBuffer = 64

// Listener receives the full ordered card list after every accepted pass.
type Listener interface {
	OnCardsUpdated(cards map[card.Type][]card.Card)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(cards map[card.Type][]card.Card)

// OnCardsUpdated calls f.
func (f ListenerFunc) OnCardsUpdated(cards map[card.Type][]card.Card) {
	f(cards)
}

// Registration declares a producer for the registry.
type Registration struct {
	Name    string
	Types   []card.Type
	Factory producer.Factory
}

// Options configures a Manager.
type Options struct {
	// Loader performs aggregate loads. LoadCards fails without one.
	Loader loader.Loader

	Producers []Registration

	// Lifecycle hosts producers that run in the background.
	Lifecycle producer.Lifecycle

	// SavedCards is the allow-list for the first pass. Nil means none is
	// available.
	SavedCards []string

	KeepShownOnReload bool

	SlowLoadThreshold time.Duration

	// UpdateBuffer is the capacity of the pass queue.
	UpdateBuffer int

	Clock session.Clock
}

// message is one queued change.
type message struct {
	update   reconciler.Update
	fromLoad bool

	// handle is set for load completions.
	handle  *session.Handle
	loadErr error

	// barrier messages only wait for the queue ahead of them.
	barrier bool

	// pushed marks producer pushes, which wait for the first load.
	pushed bool

	// done receives the outcome for synchronous callers.
	done chan error
}

// Manager holds the authoritative card set.
type Manager struct {
	opts     Options
	registry *producer.Registry
	guard    *session.Guard
	filter   *launch.Filter
	metrics  *Metrics

	msgs    chan message
	stopped chan struct{}

	// awaitingLoad and held are owned by the Run goroutine. Producer pushes
	// are held while awaitingLoad so that the first pass is always the load.
	awaitingLoad bool
	held         reconciler.Update

	mu       sync.RWMutex
	cards    []card.Card
	listener Listener
	running  bool
}

// New creates a manager, registers its producers and sets up the producers
// of the locally owned types before any card of those types exists.
func New(opts Options) (*Manager, error) {
	if opts.UpdateBuffer <= 0 {
		opts.UpdateBuffer = defaultUpdateBuffer
	}

	m := &Manager{
		opts: opts,
		guard: session.NewGuard(session.Options{
			SlowLoadThreshold: opts.SlowLoadThreshold,
			Clock:             opts.Clock,
		}),
		filter:  launch.NewFilter(opts.SavedCards, launch.Options{KeepShownOnReload: opts.KeepShownOnReload}),
		metrics: NewMetrics(),
		msgs:    make(chan message, opts.UpdateBuffer),
		stopped: make(chan struct{}),

		awaitingLoad: opts.Loader != nil,
	}
	m.registry = producer.NewRegistry(m, opts.Lifecycle)

	for _, reg := range opts.Producers {
		if err := m.registry.Register(reg.Name, reg.Types, reg.Factory); err != nil {
			return nil, fmt.Errorf("failed to register producer %s: %w", reg.Name, err)
		}
	}

	m.registry.Ensure(card.LocallyOwned...)
	return m, nil
}

// Registry returns the producer registry.
func (m *Manager) Registry() *producer.Registry {
	return m.registry
}

// SetListener replaces the listener. A nil listener stops notifications.
func (m *Manager) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// Cards returns a copy of the published card set.
func (m *Manager) Cards() []card.Card {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]card.Card(nil), m.cards...)
}

// Stats returns a snapshot of the pass counters.
func (m *Manager) Stats() Stats {
	return m.metrics.Snapshot()
}

// SessionState reports whether an aggregate load is in flight.
func (m *Manager) SessionState() session.State {
	return m.guard.State()
}

// Run applies queued passes until ctx is done. It may be called once.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()

	defer close(m.stopped)

	logging.Info("Manager", "Started card manager")
	for {
		select {
		case <-ctx.Done():
			logging.Info("Manager", "Stopped card manager")
			return nil
		case msg := <-m.msgs:
			err := m.process(msg)
			if msg.done != nil {
				msg.done <- err
			}
		}
	}
}

// LoadCards starts an aggregate load. The load runs on its own goroutine and
// its result is applied only if no newer load has started by the time it
// completes. A load already in flight is superseded.
func (m *Manager) LoadCards(ctx context.Context) error {
	h, err := m.beginLoad()
	if err != nil {
		return err
	}

	go func() {
		if err := m.finishLoad(ctx, h); err != nil && !errors.Is(err, ErrNotRunning) {
			logging.Debug("Manager", "Session %s ended with %v", h, err)
		}
	}()
	return nil
}

// Reload runs an aggregate load on the calling goroutine and returns once
// its result has been applied or discarded. It returns the loader's error.
func (m *Manager) Reload(ctx context.Context) error {
	h, err := m.beginLoad()
	if err != nil {
		return err
	}
	return m.finishLoad(ctx, h)
}

func (m *Manager) beginLoad() (session.Handle, error) {
	if m.opts.Loader == nil {
		return session.Handle{}, errors.New("no card loader configured")
	}
	if m.isStopped() {
		return session.Handle{}, ErrNotRunning
	}

	h := m.guard.Begin()
	logging.Debug("Manager", "Loading cards in session %s", h)
	return h, nil
}

func (m *Manager) finishLoad(ctx context.Context, h session.Handle) error {
	cards, loadErr := m.opts.Loader.Load(ctx)
	msg := message{update: card.GroupByType(cards), fromLoad: true, handle: &h, loadErr: loadErr}
	if err := m.call(context.WithoutCancel(ctx), msg); err != nil {
		return err
	}
	return loadErr
}

// Sync returns once every change queued before the call has been applied.
func (m *Manager) Sync(ctx context.Context) error {
	return m.call(ctx, message{barrier: true})
}

// OnBatchCompleted applies the result of session h. A stale or slow session
// is discarded without touching the card set; that is not an error. An empty
// list clears every type except the conditional family.
func (m *Manager) OnBatchCompleted(ctx context.Context, h session.Handle, cards []card.Card) error {
	return m.call(ctx, message{update: card.GroupByType(cards), fromLoad: true, handle: &h})
}

// OnContextualCardUpdated applies update and returns once the pass is done.
// Types absent from update keep their cards; a type mapped to an empty
// batch is cleared.
func (m *Manager) OnContextualCardUpdated(ctx context.Context, update map[card.Type][]card.Card) error {
	return m.call(ctx, message{update: copyUpdate(update)})
}

// Notify queues a producer update and returns without waiting for it to be
// applied. Until the first load completes the update is held. It implements
// producer.Sink.
func (m *Manager) Notify(t card.Type, cards []card.Card) {
	msg := message{update: reconciler.Update{t: append([]card.Card(nil), cards...)}, pushed: true}
	if err := m.enqueue(context.Background(), msg); err != nil {
		m.metrics.RecordDroppedUpdate(t)
		logging.Debug("Manager", "Dropping %s update: %v", t, err)
	}
}

func (m *Manager) call(ctx context.Context, msg message) error {
	msg.done = make(chan error, 1)
	if err := m.enqueue(ctx, msg); err != nil {
		return err
	}

	select {
	case err := <-msg.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stopped:
		select {
		case err := <-msg.done:
			return err
		default:
			return ErrNotRunning
		}
	}
}

func (m *Manager) enqueue(ctx context.Context, msg message) error {
	select {
	case m.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stopped:
		return ErrNotRunning
	}
}

func (m *Manager) isStopped() bool {
	select {
	case <-m.stopped:
		return true
	default:
		return false
	}
}

// process runs on the owner goroutine.
func (m *Manager) process(msg message) error {
	if msg.barrier {
		return nil
	}

	if msg.handle == nil {
		if msg.pushed && m.awaitingLoad {
			m.hold(msg.update)
			return nil
		}
		m.apply(msg.update, msg.fromLoad)
		return nil
	}

	decision := m.guard.Complete(*msg.handle)
	m.completeLoad(msg, decision)

	// Any outcome of the awaited session ends the wait, including a slow or
	// failed load; only stale completions keep it.
	if m.awaitingLoad && (decision.Accepted || decision.Reason == session.ReasonSlow) {
		m.awaitingLoad = false
		m.releaseHeld()
	}
	return nil
}

func (m *Manager) completeLoad(msg message, decision session.Decision) {
	if msg.loadErr != nil {
		m.metrics.RecordLoad(false)
		logging.Error("Manager", msg.loadErr, "Card load in session %s failed", msg.handle)
		return
	}
	m.metrics.RecordLoad(decision.Accepted)
	if !decision.Accepted {
		logging.Debug("Manager", "Session %s %s", msg.handle, decision)
		return
	}
	m.apply(m.externalOnly(msg.update), true)
}

// externalOnly drops loaded batches of locally owned types. Those types
// have a single in-process writer, and a load must not replace its cards.
func (m *Manager) externalOnly(update reconciler.Update) reconciler.Update {
	out := make(reconciler.Update, len(update))
	for t, batch := range update {
		if t.IsLocallyOwned() {
			owner, err := m.registry.Owner(t)
			if err != nil {
				owner = "no producer"
			}
			logging.Warn("Manager", "Dropping %d loaded %s cards: the type is owned by %s", len(batch), t, owner)
			m.metrics.RecordDroppedUpdate(t)
			continue
		}
		out[t] = batch
	}
	return out
}

// hold keeps the latest batch per type until the first load completes.
func (m *Manager) hold(update reconciler.Update) {
	if m.held == nil {
		m.held = make(reconciler.Update)
	}
	for t, batch := range update {
		m.held[t] = batch
	}
	logging.Debug("Manager", "Holding update for %v until the first load completes", card.SortedTypes(update))
}

func (m *Manager) releaseHeld() {
	held := m.held
	m.held = nil
	if len(held) == 0 {
		return
	}
	m.apply(held, false)
}

func (m *Manager) apply(update reconciler.Update, fromLoad bool) {
	start := time.Now()

	m.mu.RLock()
	current := m.cards
	m.mu.RUnlock()

	filtered := m.filter.Apply(update, current, fromLoad)
	next := reconciler.Reconcile(current, filtered)

	m.mu.Lock()
	m.cards = next
	listener := m.listener
	m.mu.Unlock()

	m.registry.Ensure(reconciler.Types(next)...)

	notified := false
	if listener != nil {
		listener.OnCardsUpdated(map[card.Type][]card.Card{
			card.TypeDefault: append([]card.Card(nil), next...),
		})
		notified = true
	}

	m.metrics.RecordPass(len(next), notified, time.Since(start))
	logging.Debug("Manager", "Applied update for %v, %d cards published", card.SortedTypes(update), len(next))
}

func copyUpdate(update map[card.Type][]card.Card) reconciler.Update {
	out := make(reconciler.Update, len(update))
	for t, batch := range update {
		out[t] = append([]card.Card(nil), batch...)
	}
	return out
}
