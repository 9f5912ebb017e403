package loader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"deckhand/internal/card"
	"deckhand/pkg/logging"
)

// Loader returns the current card list.
type Loader interface {
	Load(ctx context.Context) ([]card.Card, error)
}

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context) ([]card.Card, error)

// Load calls f.
func (f Func) Load(ctx context.Context) ([]card.Card, error) {
	return f(ctx)
}

// Source is a named loader taking part in an aggregate load.
type Source struct {
	Name   string
	Loader Loader
}

// Aggregate loads from every source concurrently and concatenates the
// results in source order. The first failing source fails the whole load.
type Aggregate struct {
	sources []Source
	timeout time.Duration
}

// NewAggregate creates an aggregate loader. A zero timeout leaves the load
// bounded only by the caller's context.
func NewAggregate(timeout time.Duration, sources ...Source) *Aggregate {
	return &Aggregate{sources: sources, timeout: timeout}
}

// Load implements Loader.
func (a *Aggregate) Load(ctx context.Context) ([]card.Card, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	results := make([][]card.Card, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			cards, err := src.Loader.Load(gctx)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name, err)
			}
			results[i] = cards
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []card.Card
	for i, cards := range results {
		logging.Debug("Loader", "Source %s returned %d cards", a.sources[i].Name, len(cards))
		all = append(all, cards...)
	}
	return all, nil
}
