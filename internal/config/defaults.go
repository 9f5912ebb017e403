package config

import "time"

const (
	DefaultUpdateBuffer      = 64
	DefaultCardsDir          = "cards"
	DefaultDebounce          = 500 * time.Millisecond
	DefaultLoadTimeout       = 10 * time.Second
	DefaultPollInterval      = 30 * time.Second
	DefaultCollapseThreshold = 2
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() DeckhandConfig {
	return DeckhandConfig{
		Manager: ManagerConfig{
			UpdateBuffer: DefaultUpdateBuffer,
		},
		Sources: SourcesConfig{
			CardsDir:    DefaultCardsDir,
			Debounce:    DefaultDebounce,
			LoadTimeout: DefaultLoadTimeout,
		},
		Conditional: ConditionalConfig{
			PollInterval:      DefaultPollInterval,
			CollapseThreshold: DefaultCollapseThreshold,
		},
	}
}
