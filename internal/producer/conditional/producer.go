// Package conditional produces cards for device conditions that need the
// user's attention, such as an enabled airplane mode or a paused sync.
//
// A condition is active while the file it points at exists. The producer
// re-evaluates its conditions on a fixed interval and pushes the conditional
// family only when the set of active conditions changes.
package conditional

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"deckhand/internal/card"
	"deckhand/internal/producer"
	"deckhand/internal/template"
	"deckhand/pkg/logging"
)

const (
	// HeaderName and FooterName are the names of the collapsed cards.
	HeaderName = "conditional_header"
	FooterName = "conditional_footer"

	defaultPollInterval = 30 * time.Second

	headerTitle   = `{{ .count }} {{ plural "condition" "conditions" .count }} active`
	headerSummary = `{{ join ", " .titles }}`
)

// Condition describes one watched condition.
type Condition struct {
	Name    string
	Path    string
	Score   float64
	Title   string
	Summary string
}

// Options configures the producer.
type Options struct {
	Conditions []Condition

	// PollInterval is how often conditions are re-evaluated.
	PollInterval time.Duration

	// CollapseThreshold is the number of active conditions above which they
	// are shown as a single header with a footer. Zero never collapses.
	CollapseThreshold int

	// Exists reports whether a condition path is present. Defaults to a stat
	// of the filesystem.
	Exists func(path string) bool

	Templates *template.Engine
}

// Producer evaluates conditions and emits the conditional card family.
type Producer struct {
	opts Options

	mu      sync.Mutex
	sink    producer.Sink
	last    string
	emitted bool

	stopCh  chan struct{}
	done    chan struct{}
	running bool
}

// New creates a conditional producer.
func New(opts Options) *Producer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Exists == nil {
		opts.Exists = fileExists
	}
	if opts.Templates == nil {
		opts.Templates = template.New()
	}
	return &Producer{opts: opts}
}

// Types returns the conditional family.
func (p *Producer) Types() []card.Type {
	return []card.Type{card.TypeConditional, card.TypeConditionalHeader, card.TypeConditionalFooter}
}

// Bind sets the sink updates are pushed to.
func (p *Producer) Bind(sink producer.Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Start evaluates the conditions on a background goroutine until Stop is
// called or ctx is done.
func (p *Producer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.sink == nil {
		return errors.New("conditional producer is not bound to a sink")
	}

	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.poll(ctx, p.stopCh, p.done)

	logging.Info("ConditionalProducer", "Started polling %d conditions every %s", len(p.opts.Conditions), p.opts.PollInterval)
	return nil
}

// Stop halts polling and waits for the polling goroutine to exit.
func (p *Producer) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()

	<-done
	logging.Info("ConditionalProducer", "Stopped polling conditions")
	return nil
}

func (p *Producer) poll(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	p.Evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.Evaluate()
		}
	}
}

// Evaluate checks every condition once, pushes the resulting cards if the
// active set changed since the last push and reports whether it pushed.
func (p *Producer) Evaluate() bool {
	var active []Condition
	for _, c := range p.opts.Conditions {
		if p.opts.Exists(c.Path) {
			active = append(active, c)
		}
	}

	key := activeKey(active)

	p.mu.Lock()
	if p.emitted && key == p.last {
		p.mu.Unlock()
		return false
	}
	sink := p.sink
	p.mu.Unlock()

	if sink == nil {
		return false
	}

	if !p.emitted && len(active) == 0 {
		// Nothing shown yet and nothing to show.
		p.mu.Lock()
		p.last = key
		p.emitted = true
		p.mu.Unlock()
		return false
	}

	cards := p.build(active)

	if len(active) > 0 && len(cards) == 0 {
		// Rendering failed for every condition; keep the last pushed state.
		return false
	}

	// The whole family is replaced so a collapse or expand removes the
	// previous representation.
	for _, t := range p.Types() {
		var batch []card.Card
		for _, c := range cards {
			if c.Type() == t {
				batch = append(batch, c)
			}
		}
		sink.Notify(t, batch)
	}

	p.mu.Lock()
	p.last = key
	p.emitted = true
	p.mu.Unlock()

	logging.Debug("ConditionalProducer", "Pushed %d conditional cards for %d active conditions", len(cards), len(active))
	return true
}

func (p *Producer) collapsed(active int) bool {
	return p.opts.CollapseThreshold > 0 && active > p.opts.CollapseThreshold
}

func (p *Producer) build(active []Condition) []card.Card {
	if len(active) == 0 {
		return nil
	}

	var cards []card.Card
	var titles []string
	for _, c := range active {
		title, summary, err := p.render(c)
		if err != nil {
			logging.Warn("ConditionalProducer", "Skipping condition %s: %v", c.Name, err)
			continue
		}
		titles = append(titles, title)
		cards = append(cards, card.NewBuilder().
			Type(card.TypeConditional).
			Name(c.Name).
			Score(c.Score).
			Set(card.PayloadTitle, title).
			Set(card.PayloadSummary, summary).
			Set(card.PayloadURI, c.Path).
			Build())
	}

	if !p.collapsed(len(cards)) {
		return cards
	}

	data := map[string]interface{}{"count": len(titles), "titles": titles}
	title, err := p.opts.Templates.Render(headerTitle, data)
	if err != nil {
		logging.Warn("ConditionalProducer", "Failed to render header title: %v", err)
	}
	summary, err := p.opts.Templates.Render(headerSummary, data)
	if err != nil {
		logging.Warn("ConditionalProducer", "Failed to render header summary: %v", err)
	}

	high, low := cards[0].RankingScore(), cards[0].RankingScore()
	for _, c := range cards[1:] {
		if c.RankingScore() > high {
			high = c.RankingScore()
		}
		if c.RankingScore() < low {
			low = c.RankingScore()
		}
	}

	return []card.Card{
		card.NewBuilder().
			Type(card.TypeConditionalHeader).
			Name(HeaderName).
			Score(high).
			Set(card.PayloadTitle, title).
			Set(card.PayloadSummary, summary).
			Build(),
		card.New(card.TypeConditionalFooter, FooterName, low),
	}
}

func (p *Producer) render(c Condition) (string, string, error) {
	data := map[string]interface{}{"name": c.Name, "path": c.Path}

	title := c.Title
	if title == "" {
		title = c.Name
	}
	title, err := p.opts.Templates.Render(title, data)
	if err != nil {
		return "", "", err
	}
	summary, err := p.opts.Templates.Render(c.Summary, data)
	if err != nil {
		return "", "", err
	}
	return title, summary, nil
}

func activeKey(active []Condition) string {
	names := make([]string, len(active))
	for i, c := range active {
		names[i] = c.Name
	}
	return strings.Join(names, "\x00")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
