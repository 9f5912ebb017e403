package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"deckhand/internal/card"
	"deckhand/pkg/logging"
)

type fileCard struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Score   float64           `yaml:"score"`
	Title   string            `yaml:"title,omitempty"`
	Summary string            `yaml:"summary,omitempty"`
	URI     string            `yaml:"uri,omitempty"`
	Payload map[string]string `yaml:"payload,omitempty"`
}

type cardFile struct {
	Cards []fileCard `yaml:"cards"`
}

// DirectorySource loads every card file in a directory.
type DirectorySource struct {
	Dir string

	// Types, when set, keeps only cards of these types.
	Types []card.Type
}

// Load implements Loader. A missing directory yields no cards.
func (d DirectorySource) Load(ctx context.Context) ([]card.Card, error) {
	files, err := ListCardFiles(d.Dir)
	if err != nil {
		return nil, err
	}

	var cards []card.Card
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileCards, err := ReadFile(path)
		if err != nil {
			logging.Warn("Loader", "Skipping card file %s: %v", path, err)
			continue
		}
		cards = append(cards, d.keep(fileCards)...)
	}
	return cards, nil
}

func (d DirectorySource) keep(cards []card.Card) []card.Card {
	if len(d.Types) == 0 {
		return cards
	}
	var kept []card.Card
	for _, c := range cards {
		for _, t := range d.Types {
			if c.Type() == t {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}

// ListCardFiles returns the YAML files directly inside dir, sorted by name.
func ListCardFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Loader", "Card directory %s does not exist", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read card directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsCardFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsCardFile reports whether path has a YAML extension.
func IsCardFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ReadFile parses a card file. Every card in it must be valid.
func ReadFile(path string) ([]card.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes the contents of a card file.
func Parse(data []byte) ([]card.Card, error) {
	var file cardFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("malformed card file: %w", err)
	}

	cards := make([]card.Card, 0, len(file.Cards))
	for i, fc := range file.Cards {
		t, err := card.ParseType(fc.Type)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}

		b := card.NewBuilder().Type(t).Name(fc.Name).Score(fc.Score)
		for k, v := range fc.Payload {
			b.Set(k, v)
		}
		if fc.Title != "" {
			b.Set(card.PayloadTitle, fc.Title)
		}
		if fc.Summary != "" {
			b.Set(card.PayloadSummary, fc.Summary)
		}
		if fc.URI != "" {
			b.Set(card.PayloadURI, fc.URI)
		}

		c := b.Build()
		if err := card.Validate(c); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
