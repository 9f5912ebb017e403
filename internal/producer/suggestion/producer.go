// Package suggestion produces the legacy suggestion cards listed in the
// configuration.
package suggestion

import (
	"context"
	"sync"

	"deckhand/internal/card"
	"deckhand/internal/producer"
	"deckhand/internal/template"
	"deckhand/pkg/logging"
)

// Suggestion is one configured suggestion.
type Suggestion struct {
	Name    string
	Score   float64
	Title   string
	Summary string
	URI     string
}

// Producer pushes its suggestions once when started.
type Producer struct {
	suggestions []Suggestion
	templates   *template.Engine

	mu      sync.Mutex
	sink    producer.Sink
	started bool
}

// New creates a suggestion producer.
func New(suggestions []Suggestion, templates *template.Engine) *Producer {
	if templates == nil {
		templates = template.New()
	}
	return &Producer{
		suggestions: append([]Suggestion(nil), suggestions...),
		templates:   templates,
	}
}

// Types returns LEGACY_SUGGESTION.
func (p *Producer) Types() []card.Type {
	return []card.Type{card.TypeLegacySuggestion}
}

// Bind sets the sink updates are pushed to.
func (p *Producer) Bind(sink producer.Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Start pushes the suggestions from a new goroutine. Nothing is pushed when
// there are none to show. Later calls do nothing.
func (p *Producer) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started || p.sink == nil {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	sink := p.sink
	p.mu.Unlock()

	cards := p.Cards()
	if len(cards) == 0 {
		return nil
	}
	go func() {
		sink.Notify(card.TypeLegacySuggestion, cards)
		logging.Debug("SuggestionProducer", "Pushed %d suggestion cards", len(cards))
	}()
	return nil
}

// Stop is a no-op; suggestions have no background work.
func (p *Producer) Stop() error {
	return nil
}

// Cards renders the configured suggestions. Suggestions whose text fails to
// render are left out.
func (p *Producer) Cards() []card.Card {
	cards := make([]card.Card, 0, len(p.suggestions))
	for _, s := range p.suggestions {
		data := map[string]interface{}{"name": s.Name}
		title, err := p.templates.Render(s.Title, data)
		if err != nil {
			logging.Warn("SuggestionProducer", "Skipping suggestion %s: %v", s.Name, err)
			continue
		}
		summary, err := p.templates.Render(s.Summary, data)
		if err != nil {
			logging.Warn("SuggestionProducer", "Skipping suggestion %s: %v", s.Name, err)
			continue
		}

		b := card.NewBuilder().
			Type(card.TypeLegacySuggestion).
			Name(s.Name).
			Score(s.Score).
			Set(card.PayloadTitle, title)
		if summary != "" {
			b.Set(card.PayloadSummary, summary)
		}
		if s.URI != "" {
			b.Set(card.PayloadURI, s.URI)
		}
		cards = append(cards, b.Build())
	}
	return cards
}
