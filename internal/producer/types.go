package producer

import (
	"context"
	"errors"

	"deckhand/internal/card"
)

var (
	// ErrUnknownType is returned for a card type with no registration.
	ErrUnknownType = errors.New("no producer registered for card type")

	// ErrDuplicateOwnership is returned when two registrations claim a type.
	ErrDuplicateOwnership = errors.New("card type already owned by another producer")
)

// Sink receives card updates. Notify replaces every card of type t with cards.
type Sink interface {
	Notify(t card.Type, cards []card.Card)
}

// Producer emits cards for the types it owns.
type Producer interface {
	// Types lists the card types this producer owns.
	Types() []card.Type

	// Bind hands the producer the sink it must push updates to. It is
	// called once, before any lifecycle callback.
	Bind(sink Sink)
}

// LifecycleObserver is implemented by producers that run in the background.
// Start must not block; work happens on goroutines the producer owns.
type LifecycleObserver interface {
	Start(ctx context.Context) error
	Stop() error
}

// Lifecycle hosts observers for the lifetime of the process.
type Lifecycle interface {
	AddObserver(o LifecycleObserver) error
}

// Factory builds a producer.
type Factory func() (Producer, error)
