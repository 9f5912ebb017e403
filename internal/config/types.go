package config

import "time"

// DeckhandConfig is the top-level configuration structure for deckhand.
type DeckhandConfig struct {
	Manager     ManagerConfig      `yaml:"manager"`
	Sources     SourcesConfig      `yaml:"sources"`
	Conditional ConditionalConfig  `yaml:"conditional"`
	Suggestions []SuggestionConfig `yaml:"suggestions,omitempty"`

	// SavedCards, when set, is used as the first-launch allow-list instead
	// of saved-cards.yaml.
	SavedCards []string `yaml:"savedCards,omitempty"`
}

// ManagerConfig configures the card manager.
type ManagerConfig struct {
	SlowLoadThreshold time.Duration `yaml:"slowLoadThreshold,omitempty"` // Discard first loads slower than this (0 disables)
	UpdateBuffer      int           `yaml:"updateBuffer,omitempty"`      // Capacity of the pass queue (default: 64)
	KeepShownOnReload bool          `yaml:"keepShownOnReload,omitempty"` // Restrict reloads to the cards already shown
}

// SourcesConfig configures where cards are loaded from.
type SourcesConfig struct {
	CardsDir    string        `yaml:"cardsDir,omitempty"`    // Card file directory (default: cards)
	Debounce    time.Duration `yaml:"debounce,omitempty"`    // Quiet period before slice cards are re-read (default: 500ms)
	LoadTimeout time.Duration `yaml:"loadTimeout,omitempty"` // Upper bound for one aggregate load (default: 10s)
}

// ConditionalConfig configures the conditional producer.
type ConditionalConfig struct {
	PollInterval      time.Duration     `yaml:"pollInterval,omitempty"`
	CollapseThreshold int               `yaml:"collapseThreshold,omitempty"`
	Conditions        []ConditionConfig `yaml:"conditions,omitempty"`
}

// ConditionConfig is one watched condition. It is active while Path exists.
type ConditionConfig struct {
	Name    string  `yaml:"name"`
	Path    string  `yaml:"path"`
	Score   float64 `yaml:"score"`
	Title   string  `yaml:"title,omitempty"`
	Summary string  `yaml:"summary,omitempty"`
}

// SuggestionConfig is one legacy suggestion.
type SuggestionConfig struct {
	Name    string  `yaml:"name"`
	Score   float64 `yaml:"score"`
	Title   string  `yaml:"title"`
	Summary string  `yaml:"summary,omitempty"`
	URI     string  `yaml:"uri,omitempty"`
}
