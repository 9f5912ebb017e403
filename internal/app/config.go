package app

import (
	"deckhand/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug     bool
	LogFormat string

	// LogLevel names the minimum level; Debug forces debug
	LogLevel string

	// Silent discards all log output
	Silent bool

	// ConfigPath is the configuration directory
	ConfigPath string

	// SavedCards overrides the saved allow-list when non-nil
	SavedCards []string

	// Loaded configuration, set during bootstrap
	DeckhandConfig *config.DeckhandConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, logFormat, configPath string) *Config {
	return &Config{
		Debug:      debug,
		LogFormat:  logFormat,
		ConfigPath: configPath,
	}
}
