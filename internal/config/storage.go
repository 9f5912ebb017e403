package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"deckhand/pkg/logging"
)

const savedCardsFileName = "saved-cards.yaml"

type savedCardsFile struct {
	Cards []string `yaml:"cards"`
}

// SavedCardsStore persists the names of the cards shown when the process
// stops, so the next start can show the same cards first.
type SavedCardsStore struct {
	mu         sync.Mutex
	configPath string
}

// NewSavedCardsStore creates a store in configPath.
func NewSavedCardsStore(configPath string) *SavedCardsStore {
	return &SavedCardsStore{configPath: configPath}
}

// Path returns the file the store reads and writes.
func (s *SavedCardsStore) Path() string {
	return filepath.Join(s.configPath, savedCardsFileName)
}

// Load returns the saved names. It returns nil, without error, when nothing
// has been saved yet; an empty non-nil slice means an empty page was saved.
func (s *SavedCardsStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path(), err)
	}

	var file savedCardsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path(), err)
	}
	if file.Cards == nil {
		file.Cards = []string{}
	}

	logging.Debug("Storage", "Loaded %d saved cards from %s", len(file.Cards), s.Path())
	return file.Cards, nil
}

// Save replaces the saved names.
func (s *SavedCardsStore) Save(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.configPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.configPath, err)
	}

	data, err := yaml.Marshal(savedCardsFile{Cards: names})
	if err != nil {
		return err
	}

	// Write to a temporary file first so a crash never leaves a truncated list.
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.Path(), err)
	}

	logging.Info("Storage", "Saved %d card names to %s", len(names), s.Path())
	return nil
}
