package card

import "maps"

// Card is a unit of content with a type, a name and a ranking score.
type Card struct {
	cardType     Type
	name         string
	rankingScore float64
	payload      map[string]string
}

// New builds a card without a payload.
func New(t Type, name string, score float64) Card {
	return Card{cardType: t, name: name, rankingScore: score}
}

func (c Card) Type() Type {
	return c.cardType
}

// Name is the card's stable identity within a reconciliation pass.
func (c Card) Name() string {
	return c.name
}

// RankingScore orders cards; higher scores are shown first.
func (c Card) RankingScore() float64 {
	return c.rankingScore
}

// Payload returns a copy of the source-specific display data.
func (c Card) Payload() map[string]string {
	return maps.Clone(c.payload)
}

// PayloadValue returns a single payload entry.
func (c Card) PayloadValue(key string) (string, bool) {
	v, ok := c.payload[key]
	return v, ok
}

// Builder assembles a Card. The zero value is ready to use.
type Builder struct {
	c Card
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Type(t Type) *Builder {
	b.c.cardType = t
	return b
}

func (b *Builder) Name(name string) *Builder {
	b.c.name = name
	return b
}

func (b *Builder) Score(score float64) *Builder {
	b.c.rankingScore = score
	return b
}

// Set adds a payload entry.
func (b *Builder) Set(key, value string) *Builder {
	if b.c.payload == nil {
		b.c.payload = make(map[string]string)
	}
	b.c.payload[key] = value
	return b
}

// Build returns the card. Further calls on the builder do not affect cards
// already built.
func (b *Builder) Build() Card {
	c := b.c
	c.payload = maps.Clone(b.c.payload)
	return c
}

// Common payload keys.
const (
	PayloadURI     = "uri"
	PayloadTitle   = "title"
	PayloadSummary = "summary"
)
