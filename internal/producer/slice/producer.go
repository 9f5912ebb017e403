// Package slice keeps SLICE cards live between aggregate loads.
//
// The card directory is watched with fsnotify. Bursts of file events are
// debounced into a single re-read, after which the SLICE cards found in the
// directory replace the previous ones. Cards of other types in the same
// files are left to the next aggregate load.
package slice

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"deckhand/internal/card"
	"deckhand/internal/loader"
	"deckhand/internal/producer"
	"deckhand/pkg/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Producer watches a directory of SLICE card files.
type Producer struct {
	mu sync.Mutex

	// dir is the watched directory
	dir string

	// debounceInterval is how long to wait for additional changes
	debounceInterval time.Duration

	sink    producer.Sink
	watcher *fsnotify.Watcher

	// pending fires the reload once events settle
	pending *time.Timer

	stopCh  chan struct{}
	done    chan struct{}
	running bool
}

// New creates a slice producer for dir.
func New(dir string, debounceInterval time.Duration) *Producer {
	if debounceInterval <= 0 {
		debounceInterval = defaultDebounce
	}
	return &Producer{dir: dir, debounceInterval: debounceInterval}
}

// Types returns SLICE.
func (p *Producer) Types() []card.Type {
	return []card.Type{card.TypeSlice}
}

// Bind sets the sink updates are pushed to.
func (p *Producer) Bind(sink producer.Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Start creates the directory if needed, pushes its current cards and
// begins watching it.
func (p *Producer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(p.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	p.watcher = watcher
	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})

	go p.processEvents(ctx, watcher, p.stopCh, p.done)

	logging.Info("SliceProducer", "Started watching %s for slice cards", p.dir)
	return nil
}

// processEvents reloads once at startup and then after each settled burst
// of file events.
func (p *Producer) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer p.cancelPending()

	p.Reload(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			p.handleFsEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("SliceProducer", err, "Filesystem watcher error")
		}
	}
}

func (p *Producer) handleFsEvent(ctx context.Context, event fsnotify.Event) {
	if !loader.IsCardFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	logging.Debug("SliceProducer", "Card file %s changed (%s)", event.Name, event.Op)
	p.debounce(ctx)
}

// debounce restarts the reload timer.
func (p *Producer) debounce(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		p.pending.Stop()
	}
	p.pending = time.AfterFunc(p.debounceInterval, func() {
		p.mu.Lock()
		running := p.running
		p.pending = nil
		p.mu.Unlock()

		if running {
			p.Reload(ctx)
		}
	})
}

func (p *Producer) cancelPending() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

// Reload reads the directory and pushes its SLICE cards.
func (p *Producer) Reload(ctx context.Context) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink == nil {
		return
	}

	cards, err := loader.DirectorySource{Dir: p.dir, Types: p.Types()}.Load(ctx)
	if err != nil {
		logging.Error("SliceProducer", err, "Failed to read slice cards from %s", p.dir)
		return
	}

	sink.Notify(card.TypeSlice, cards)
	logging.Debug("SliceProducer", "Pushed %d slice cards", len(cards))
}

// Stop gracefully stops watching.
func (p *Producer) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}

	p.running = false
	close(p.stopCh)
	done := p.done
	watcher := p.watcher
	p.watcher = nil
	p.mu.Unlock()

	<-done

	if err := watcher.Close(); err != nil {
		logging.Error("SliceProducer", err, "Error closing filesystem watcher")
		return err
	}

	logging.Info("SliceProducer", "Stopped slice producer")
	return nil
}
