package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"deckhand/pkg/logging"
)

// Host is the process-lifetime Lifecycle. Observers are started under the
// host context when added and stopped in reverse order on Close.
type Host struct {
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	observers []LifecycleObserver
	closed    bool
}

// NewHost creates a host whose observers run until ctx is done or Close is called.
func NewHost(ctx context.Context) *Host {
	ctx, cancel := context.WithCancel(ctx)
	return &Host{ctx: ctx, cancel: cancel}
}

// AddObserver starts o and keeps it until Close.
func (h *Host) AddObserver(o LifecycleObserver) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.New("lifecycle host is closed")
	}
	for _, existing := range h.observers {
		if existing == o {
			return nil
		}
	}
	if err := o.Start(h.ctx); err != nil {
		return fmt.Errorf("failed to start observer: %w", err)
	}
	h.observers = append(h.observers, o)
	return nil
}

// Len returns the number of attached observers.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close stops every observer. It is safe to call more than once.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	observers := h.observers
	h.observers = nil
	h.mu.Unlock()

	h.cancel()

	var errs []error
	for i := len(observers) - 1; i >= 0; i-- {
		if err := observers[i].Stop(); err != nil {
			logging.Error("Lifecycle", err, "Error stopping observer")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
