package app

import (
	"context"
	"fmt"

	"deckhand/internal/card"
	"deckhand/internal/config"
	"deckhand/internal/loader"
	"deckhand/internal/manager"
	"deckhand/internal/producer"
	"deckhand/internal/producer/conditional"
	"deckhand/internal/producer/slice"
	"deckhand/internal/producer/suggestion"
	"deckhand/internal/template"
	"deckhand/pkg/logging"
)

// Services holds the long-lived components of a running application.
type Services struct {
	Manager    *manager.Manager
	Host       *producer.Host
	Loader     loader.Loader
	SavedCards *config.SavedCardsStore
}

// InitializeServices builds the producers, loader and manager described by
// cfg.DeckhandConfig. Producers of locally owned types start immediately
// under the returned host; the caller must Close it.
func InitializeServices(cfg *Config) (*Services, error) {
	dc := cfg.DeckhandConfig
	if dc == nil {
		return nil, fmt.Errorf("configuration has not been loaded")
	}

	store := config.NewSavedCardsStore(cfg.ConfigPath)
	saved, err := savedCards(cfg, store)
	if err != nil {
		return nil, err
	}

	templates := template.New()
	host := producer.NewHost(context.Background())

	cardLoader := loader.NewAggregate(dc.Sources.LoadTimeout, loader.Source{
		Name:   "cards",
		Loader: loader.DirectorySource{Dir: dc.Sources.CardsDir, Types: card.ExternalTypes},
	})

	m, err := manager.New(manager.Options{
		Loader:            cardLoader,
		Producers:         registrations(dc, templates),
		Lifecycle:         host,
		SavedCards:        saved,
		KeepShownOnReload: dc.Manager.KeepShownOnReload,
		SlowLoadThreshold: dc.Manager.SlowLoadThreshold,
		UpdateBuffer:      dc.Manager.UpdateBuffer,
	})
	if err != nil {
		_ = host.Close()
		return nil, err
	}

	logging.Info("Bootstrap", "Initialized card manager with producers %v", m.Registry().Active())
	return &Services{Manager: m, Host: host, Loader: cardLoader, SavedCards: store}, nil
}

// savedCards picks the first-launch allow-list: the flag or config value if
// set, else the list saved by the previous run.
func savedCards(cfg *Config, store *config.SavedCardsStore) ([]string, error) {
	if cfg.SavedCards != nil {
		return cfg.SavedCards, nil
	}
	if cfg.DeckhandConfig.SavedCards != nil {
		return cfg.DeckhandConfig.SavedCards, nil
	}
	saved, err := store.Load()
	if err != nil {
		logging.Warn("Bootstrap", "Ignoring saved cards: %v", err)
		return nil, nil
	}
	return saved, nil
}

func registrations(dc *config.DeckhandConfig, templates *template.Engine) []manager.Registration {
	conditions := make([]conditional.Condition, len(dc.Conditional.Conditions))
	for i, c := range dc.Conditional.Conditions {
		conditions[i] = conditional.Condition{Name: c.Name, Path: c.Path, Score: c.Score, Title: c.Title, Summary: c.Summary}
	}

	suggestions := make([]suggestion.Suggestion, len(dc.Suggestions))
	for i, s := range dc.Suggestions {
		suggestions[i] = suggestion.Suggestion{Name: s.Name, Score: s.Score, Title: s.Title, Summary: s.Summary, URI: s.URI}
	}

	return []manager.Registration{
		{
			Name:  "conditional",
			Types: card.ConditionalFamily,
			Factory: func() (producer.Producer, error) {
				return conditional.New(conditional.Options{
					Conditions:        conditions,
					PollInterval:      dc.Conditional.PollInterval,
					CollapseThreshold: dc.Conditional.CollapseThreshold,
					Templates:         templates,
				}), nil
			},
		},
		{
			Name:  "suggestion",
			Types: []card.Type{card.TypeLegacySuggestion},
			Factory: func() (producer.Producer, error) {
				return suggestion.New(suggestions, templates), nil
			},
		},
		{
			Name:  "slice",
			Types: []card.Type{card.TypeSlice},
			Factory: func() (producer.Producer, error) {
				return slice.New(dc.Sources.CardsDir, dc.Sources.Debounce), nil
			},
		},
	}
}
