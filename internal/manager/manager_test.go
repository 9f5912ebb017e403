package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckhand/internal/card"
	"deckhand/internal/loader"
	"deckhand/internal/producer"
	"deckhand/internal/session"
)

// recordingListener keeps every notification it receives.
type recordingListener struct {
	mu      sync.Mutex
	updates [][]card.Card
	keys    [][]card.Type
}

func (l *recordingListener) OnCardsUpdated(cards map[card.Type][]card.Card) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, cards[card.TypeDefault])
	l.keys = append(l.keys, card.SortedTypes(cards))
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.updates)
}

func (l *recordingListener) last() []card.Card {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.updates) == 0 {
		return nil
	}
	return l.updates[len(l.updates)-1]
}

// stubProducer owns a fixed set of types.
type stubProducer struct {
	types []card.Type
	sink  producer.Sink
}

func (p *stubProducer) Types() []card.Type {
	return p.types
}

func (p *stubProducer) Bind(sink producer.Sink) {
	p.sink = sink
}

func startManager(t *testing.T, opts Options) (*Manager, *recordingListener) {
	t.Helper()

	m, err := New(opts)
	require.NoError(t, err)

	l := &recordingListener{}
	m.SetListener(l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return m, l
}

func c(t card.Type, name string, score float64) card.Card {
	return card.New(t, name, score)
}

func TestManager_SortsByScoreDescending(t *testing.T) {
	m, l := startManager(t, Options{})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice:            {c(card.TypeSlice, "low", 0.1), c(card.TypeSlice, "tie_a", 0.5), c(card.TypeSlice, "tie_b", 0.5)},
		card.TypeLegacySuggestion: {c(card.TypeLegacySuggestion, "high", 0.9)},
	}))

	assert.Equal(t, []string{"high", "tie_a", "tie_b", "low"}, card.Names(m.Cards()))
	assert.Equal(t, 1, l.count())
	assert.Equal(t, []card.Type{card.TypeDefault}, l.keys[0], "listener receives only the DEFAULT key")
	assert.Equal(t, card.Names(m.Cards()), card.Names(l.last()))
}

func TestManager_TargetedUpdateCarriesOverOtherTypes(t *testing.T) {
	m, _ := startManager(t, Options{})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeConditional: {c(card.TypeConditional, "A", 1)},
		card.TypeSlice:       {c(card.TypeSlice, "B", 2)},
	}))
	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "C", 3)},
	}))

	assert.Equal(t, []string{"C", "A"}, card.Names(m.Cards()))
}

func TestManager_EmptyBatchClearsItsType(t *testing.T) {
	m, _ := startManager(t, Options{})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeConditional: {c(card.TypeConditional, "A", 1)},
		card.TypeSlice:       {c(card.TypeSlice, "B", 2)},
	}))
	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{card.TypeSlice: {}}))

	assert.Equal(t, []string{"A"}, card.Names(m.Cards()))
}

func TestManager_EmptyLoadKeepsConditionalFamily(t *testing.T) {
	m, l := startManager(t, Options{})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeConditional:       {c(card.TypeConditional, "A", 1)},
		card.TypeConditionalHeader: {c(card.TypeConditionalHeader, "H", 5)},
		card.TypeConditionalFooter: {c(card.TypeConditionalFooter, "F", 0)},
		card.TypeSlice:             {c(card.TypeSlice, "B", 2)},
		card.TypeLegacySuggestion:  {c(card.TypeLegacySuggestion, "S", 3)},
	}))

	h := m.guard.Begin()
	require.NoError(t, m.OnBatchCompleted(ctx, h, nil))

	assert.Equal(t, []string{"H", "A", "F"}, card.Names(m.Cards()))
	assert.Equal(t, 2, l.count())
}

func TestManager_StaleCompletionIsDiscarded(t *testing.T) {
	m, l := startManager(t, Options{})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "B", 2)},
	}))

	require.NoError(t, m.OnBatchCompleted(ctx, session.Handle{}, []card.Card{c(card.TypeSlice, "X", 9)}))

	assert.Equal(t, []string{"B"}, card.Names(m.Cards()))
	assert.Equal(t, 1, l.count(), "a discarded session must not notify")
	assert.Equal(t, int64(1), m.Stats().DiscardedLoads)
}

func TestManager_FirstPassRestrictedToSavedCards(t *testing.T) {
	m, _ := startManager(t, Options{SavedCards: []string{"a"}})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "a", 1), c(card.TypeSlice, "b", 2)},
	}))
	assert.Equal(t, []string{"a"}, card.Names(m.Cards()))

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "a", 1), c(card.TypeSlice, "b", 2)},
	}))
	assert.Equal(t, []string{"b", "a"}, card.Names(m.Cards()))
}

func TestManager_NoSavedCardsLeavesFirstPassUnrestricted(t *testing.T) {
	m, _ := startManager(t, Options{})

	require.NoError(t, m.OnContextualCardUpdated(context.Background(), map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "a", 1), c(card.TypeSlice, "b", 2)},
	}))
	assert.Equal(t, []string{"b", "a"}, card.Names(m.Cards()))
}

func TestManager_RepeatedUpdateIsIdempotent(t *testing.T) {
	m, l := startManager(t, Options{})
	ctx := context.Background()
	update := map[card.Type][]card.Card{
		card.TypeConditional: {c(card.TypeConditional, "A", 1)},
		card.TypeSlice:       {c(card.TypeSlice, "B", 2)},
	}

	require.NoError(t, m.OnContextualCardUpdated(ctx, update))
	first := card.Names(m.Cards())
	require.NoError(t, m.OnContextualCardUpdated(ctx, update))

	assert.Equal(t, first, card.Names(m.Cards()))
	assert.Equal(t, 2, l.count())
}

func TestManager_DistinctProducersYieldDistinctNames(t *testing.T) {
	m, _ := startManager(t, Options{})
	ctx := context.Background()

	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "s1", 1), c(card.TypeSlice, "s2", 2)},
	}))
	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeSlice:       {c(card.TypeSlice, "s2", 2), c(card.TypeSlice, "s3", 3)},
		card.TypeConditional: {c(card.TypeConditional, "c1", 1)},
	}))

	assert.Empty(t, card.DuplicateNames(m.Cards()))
	assert.ElementsMatch(t, []string{"s2", "s3", "c1"}, card.Names(m.Cards()))
}

func TestManager_UpdateDoesNotAliasCallerSlices(t *testing.T) {
	m, _ := startManager(t, Options{})
	batch := []card.Card{c(card.TypeSlice, "a", 1)}

	require.NoError(t, m.OnContextualCardUpdated(context.Background(), map[card.Type][]card.Card{card.TypeSlice: batch}))
	batch[0] = c(card.TypeSlice, "changed", 1)

	assert.Equal(t, []string{"a"}, card.Names(m.Cards()))
}

// gatedLoader blocks each Load until the test releases it.
type gatedLoader struct {
	gates chan chan []card.Card
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{gates: make(chan chan []card.Card, 4)}
}

func (g *gatedLoader) Load(ctx context.Context) ([]card.Card, error) {
	gate := make(chan []card.Card)
	g.gates <- gate
	select {
	case cards := <-gate:
		return cards, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestManager_LoadCardsApplies(t *testing.T) {
	ld := newGatedLoader()
	m, l := startManager(t, Options{Loader: ld})

	require.NoError(t, m.LoadCards(context.Background()))
	assert.Equal(t, session.StateActive, m.SessionState())

	gate := <-ld.gates
	gate <- []card.Card{c(card.TypeSlice, "loaded", 1)}

	require.Eventually(t, func() bool { return l.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"loaded"}, card.Names(m.Cards()))
	assert.Equal(t, session.StateNoSession, m.SessionState())
	assert.Equal(t, int64(1), m.Stats().AcceptedLoads)
}

func TestManager_SupersededLoadIsDiscarded(t *testing.T) {
	ld := newGatedLoader()
	m, l := startManager(t, Options{Loader: ld})
	ctx := context.Background()

	require.NoError(t, m.LoadCards(ctx))
	first := <-ld.gates
	require.NoError(t, m.LoadCards(ctx))
	second := <-ld.gates

	first <- []card.Card{c(card.TypeSlice, "old", 1)}
	require.Eventually(t, func() bool { return m.Stats().DiscardedLoads == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, l.count())

	second <- []card.Card{c(card.TypeSlice, "new", 1)}
	require.Eventually(t, func() bool { return l.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"new"}, card.Names(m.Cards()))
}

func TestManager_SlowFirstLoadIsDiscarded(t *testing.T) {
	clock := session.NewManualClock(time.Time{})
	delays := make(chan time.Duration, 2)
	delays <- 3 * time.Second
	delays <- 100 * time.Millisecond
	ld := loader.Func(func(ctx context.Context) ([]card.Card, error) {
		clock.Advance(<-delays)
		return []card.Card{c(card.TypeSlice, "s", 1)}, nil
	})

	m, l := startManager(t, Options{Loader: ld, Clock: clock, SlowLoadThreshold: time.Second})
	ctx := context.Background()

	require.NoError(t, m.LoadCards(ctx))
	require.Eventually(t, func() bool { return m.Stats().DiscardedLoads == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, m.Cards())

	require.NoError(t, m.LoadCards(ctx))
	require.Eventually(t, func() bool { return l.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"s"}, card.Names(m.Cards()))
}

func TestManager_LoaderErrorDiscardsSession(t *testing.T) {
	ld := loader.Func(func(ctx context.Context) ([]card.Card, error) {
		return nil, errors.New("provider unavailable")
	})
	m, l := startManager(t, Options{Loader: ld})

	require.NoError(t, m.OnContextualCardUpdated(context.Background(), map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "kept", 1)},
	}))
	require.NoError(t, m.LoadCards(context.Background()))

	require.Eventually(t, func() bool { return m.Stats().DiscardedLoads == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"kept"}, card.Names(m.Cards()))
	assert.Equal(t, 1, l.count())
	assert.Equal(t, session.StateNoSession, m.SessionState())
}

func TestManager_LoadCardsWithoutLoader(t *testing.T) {
	m, _ := startManager(t, Options{})
	assert.Error(t, m.LoadCards(context.Background()))
}

func TestManager_SetsUpLocallyOwnedProducersEagerly(t *testing.T) {
	builds := map[string]int{}
	factory := func(name string, types ...card.Type) producer.Factory {
		return func() (producer.Producer, error) {
			builds[name]++
			return &stubProducer{types: types}, nil
		}
	}

	m, err := New(Options{Producers: []Registration{
		{Name: "conditional", Types: card.ConditionalFamily, Factory: factory("conditional", card.ConditionalFamily...)},
		{Name: "suggestion", Types: []card.Type{card.TypeLegacySuggestion}, Factory: factory("suggestion", card.TypeLegacySuggestion)},
		{Name: "slice", Types: []card.Type{card.TypeSlice}, Factory: factory("slice", card.TypeSlice)},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"conditional", "suggestion"}, m.Registry().Active())
	assert.Equal(t, map[string]int{"conditional": 1, "suggestion": 1}, builds)
}

func TestManager_EnsuresProducersForResultTypes(t *testing.T) {
	slice := &stubProducer{types: []card.Type{card.TypeSlice}}
	builds := 0
	m, _ := startManager(t, Options{Producers: []Registration{{
		Name:  "slice",
		Types: slice.types,
		Factory: func() (producer.Producer, error) {
			builds++
			return slice, nil
		},
	}}})
	ctx := context.Background()

	assert.Empty(t, m.Registry().Active())
	for i := 0; i < 3; i++ {
		require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
			card.TypeSlice: {c(card.TypeSlice, fmt.Sprintf("s%d", i), 1)},
		}))
	}

	assert.Equal(t, []string{"slice"}, m.Registry().Active())
	assert.Equal(t, 1, builds)

	// The bound sink feeds the manager's queue.
	slice.sink.Notify(card.TypeSlice, []card.Card{c(card.TypeSlice, "pushed", 1)})
	require.Eventually(t, func() bool {
		names := card.Names(m.Cards())
		return len(names) == 1 && names[0] == "pushed"
	}, time.Second, time.Millisecond)
}

func TestManager_DuplicateRegistrationFails(t *testing.T) {
	factory := func() (producer.Producer, error) { return &stubProducer{}, nil }
	_, err := New(Options{Producers: []Registration{
		{Name: "a", Types: []card.Type{card.TypeSlice}, Factory: factory},
		{Name: "b", Types: []card.Type{card.TypeSlice}, Factory: factory},
	}})
	assert.ErrorIs(t, err, producer.ErrDuplicateOwnership)
}

func TestManager_ConcurrentNotifySerialises(t *testing.T) {
	m, l := startManager(t, Options{UpdateBuffer: 4})

	const producers = 8
	const updates = 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			ct := card.TypeSlice
			if p%2 == 1 {
				ct = card.TypeLegacySuggestion
			}
			for i := 0; i < updates; i++ {
				m.Notify(ct, []card.Card{card.New(ct, fmt.Sprintf("%s-%d-%d", ct, p, i), float64(i))})
			}
		}(p)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return m.Stats().Passes == producers*updates
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, producers*updates, l.count())
	cards := m.Cards()
	assert.Len(t, cards, 2, "each type holds only its latest batch")
	assert.Empty(t, m.Stats().DroppedUpdates)
}

func TestManager_ErrNotRunningAfterStop(t *testing.T) {
	m, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.NoError(t, m.OnContextualCardUpdated(context.Background(), map[card.Type][]card.Card{}))
	cancel()
	require.NoError(t, <-done)

	err = m.OnContextualCardUpdated(context.Background(), map[card.Type][]card.Card{})
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, m.Run(context.Background()), errAlreadyRunning)
}

func TestManager_ListenerFunc(t *testing.T) {
	m, _ := startManager(t, Options{})

	got := make(chan []card.Card, 1)
	m.SetListener(ListenerFunc(func(cards map[card.Type][]card.Card) {
		got <- cards[card.TypeDefault]
	}))

	require.NoError(t, m.OnContextualCardUpdated(context.Background(), map[card.Type][]card.Card{
		card.TypeSlice: {c(card.TypeSlice, "a", 1)},
	}))
	assert.Equal(t, []string{"a"}, card.Names(<-got))
}

func TestManager_ReloadIsSynchronous(t *testing.T) {
	ld := loader.Func(func(ctx context.Context) ([]card.Card, error) {
		return []card.Card{c(card.TypeSlice, "a", 1)}, nil
	})
	m, l := startManager(t, Options{Loader: ld})

	require.NoError(t, m.Reload(context.Background()))
	assert.Equal(t, []string{"a"}, card.Names(m.Cards()))
	assert.Equal(t, 1, l.count())
}

func TestManager_ReloadReturnsLoaderError(t *testing.T) {
	boom := errors.New("boom")
	m, _ := startManager(t, Options{Loader: loader.Func(func(ctx context.Context) ([]card.Card, error) {
		return nil, boom
	})})

	assert.ErrorIs(t, m.Reload(context.Background()), boom)
	assert.Equal(t, int64(1), m.Stats().DiscardedLoads)
}

func TestManager_SyncWaitsForQueuedUpdates(t *testing.T) {
	m, _ := startManager(t, Options{})

	for i := 0; i < 10; i++ {
		m.Notify(card.TypeSlice, []card.Card{c(card.TypeSlice, fmt.Sprintf("s%d", i), 1)})
	}
	require.NoError(t, m.Sync(context.Background()))

	assert.Equal(t, []string{"s9"}, card.Names(m.Cards()))
	assert.Equal(t, int64(10), m.Stats().Passes, "a barrier is not a pass")
}

func (l *recordingListener) first() []card.Card {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.updates) == 0 {
		return nil
	}
	return l.updates[0]
}

func TestManager_LoadDropsLocallyOwnedTypes(t *testing.T) {
	ld := loader.Func(func(ctx context.Context) ([]card.Card, error) {
		return []card.Card{
			c(card.TypeSlice, "wifi", 0.5),
			c(card.TypeLegacySuggestion, "storage_tip", 0.3),
			c(card.TypeConditional, "airplane", 0.9),
		}, nil
	})
	m, _ := startManager(t, Options{Loader: ld})
	ctx := context.Background()

	require.NoError(t, m.Reload(ctx))
	require.NoError(t, m.OnContextualCardUpdated(ctx, map[card.Type][]card.Card{
		card.TypeLegacySuggestion: {c(card.TypeLegacySuggestion, "wallpaper", 0.1)},
	}))
	require.NoError(t, m.Reload(ctx))

	assert.Equal(t, []string{"wifi", "wallpaper"}, card.Names(m.Cards()))
	dropped := m.Stats().DroppedUpdates
	assert.Equal(t, int64(2), dropped[card.TypeLegacySuggestion])
	assert.Equal(t, int64(2), dropped[card.TypeConditional])
}

func TestManager_PushesWaitForFirstLoad(t *testing.T) {
	tests := []struct {
		name      string
		pushFirst bool
	}{
		{name: "push before load", pushFirst: true},
		{name: "push after load", pushFirst: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ld := loader.Func(func(ctx context.Context) ([]card.Card, error) {
				return []card.Card{c(card.TypeSlice, "wifi", 0.5), c(card.TypeSlice, "bluetooth", 0.4)}, nil
			})
			m, l := startManager(t, Options{Loader: ld, SavedCards: []string{"wifi"}})
			ctx := context.Background()
			push := func() {
				m.Notify(card.TypeLegacySuggestion, []card.Card{c(card.TypeLegacySuggestion, "wallpaper", 0.1)})
			}

			if tt.pushFirst {
				push()
				require.NoError(t, m.Sync(ctx))
				assert.Empty(t, m.Cards(), "pushes wait for the first load")
				assert.Equal(t, 0, l.count())
			}

			require.NoError(t, m.Reload(ctx))
			if !tt.pushFirst {
				push()
			}
			require.NoError(t, m.Sync(ctx))

			assert.Equal(t, []string{"wifi"}, card.Names(l.first()), "the first page is the saved page")
			assert.Equal(t, []string{"wifi", "wallpaper"}, card.Names(m.Cards()))
			assert.Equal(t, 2, l.count())
		})
	}
}

func TestManager_FailedFirstLoadReleasesPushes(t *testing.T) {
	m, _ := startManager(t, Options{Loader: loader.Func(func(ctx context.Context) ([]card.Card, error) {
		return nil, errors.New("offline")
	})})
	ctx := context.Background()

	m.Notify(card.TypeLegacySuggestion, []card.Card{c(card.TypeLegacySuggestion, "wallpaper", 0.1)})
	require.NoError(t, m.Sync(ctx))
	require.Empty(t, m.Cards())

	assert.Error(t, m.Reload(ctx))
	require.NoError(t, m.Sync(ctx))
	assert.Equal(t, []string{"wallpaper"}, card.Names(m.Cards()))
}

func TestManager_SupersededLoadKeepsPushesHeld(t *testing.T) {
	ld := newGatedLoader()
	m, _ := startManager(t, Options{Loader: ld})
	ctx := context.Background()

	m.Notify(card.TypeLegacySuggestion, []card.Card{c(card.TypeLegacySuggestion, "wallpaper", 0.1)})
	require.NoError(t, m.LoadCards(ctx))
	first := <-ld.gates
	require.NoError(t, m.LoadCards(ctx))
	second := <-ld.gates

	first <- []card.Card{c(card.TypeSlice, "old", 1)}
	require.Eventually(t, func() bool { return m.Stats().DiscardedLoads == 1 }, time.Second, time.Millisecond)
	require.NoError(t, m.Sync(ctx))
	assert.Empty(t, m.Cards())

	second <- []card.Card{c(card.TypeSlice, "new", 1)}
	require.Eventually(t, func() bool { return len(m.Cards()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"new", "wallpaper"}, card.Names(m.Cards()))
}
