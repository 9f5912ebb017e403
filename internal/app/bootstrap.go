package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"deckhand/internal/card"
	"deckhand/internal/config"
	"deckhand/internal/manager"
	"deckhand/pkg/logging"
)

// Application represents the main application structure that bootstraps and runs deckhand.
//
// Example usage:
//
//	cfg := app.NewConfig(true, "text", "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication configures logging, loads the configuration and
// initialises the services. An empty cfg.ConfigPath selects the default
// directory.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stderr
	if cfg.Silent {
		logOutput = io.Discard
	}
	format := logging.FormatText
	if strings.EqualFold(cfg.LogFormat, string(logging.FormatJSON)) {
		format = logging.FormatJSON
	}
	logging.Init(logging.Options{Level: appLogLevel, Format: format, Output: logOutput})

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = config.GetDefaultConfigPathOrPanic()
	}

	deckhandCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
		return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
	}
	cfg.DeckhandConfig = &deckhandCfg

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the application's services.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves until ctx is done or the process receives SIGINT or SIGTERM.
// SIGHUP triggers a fresh aggregate load.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := a.services.Manager
	m.SetListener(manager.ListenerFunc(logCards))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(gctx) })

	if err := m.LoadCards(gctx); err != nil {
		stop()
		_ = g.Wait()
		_ = a.services.Host.Close()
		return fmt.Errorf("failed to start first load: %w", err)
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("Bootstrap", "Failed to notify systemd: %v", err)
	} else if sent {
		logging.Debug("Bootstrap", "Notified systemd of readiness")
	}
	logging.Info("Bootstrap", "Serving cards. Press Ctrl+C to stop, send SIGHUP to reload.")

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				logging.Info("Bootstrap", "Reloading cards")
				if err := m.LoadCards(gctx); err != nil {
					logging.Warn("Bootstrap", "Reload failed: %v", err)
				}
			}
		}
	})

	<-gctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	logging.Info("Bootstrap", "Shutting down")

	return a.shutdown(g)
}

func (a *Application) shutdown(g *errgroup.Group) error {
	runErr := g.Wait()

	logging.Info("Bootstrap", "Stopping %d producers", a.services.Host.Len())
	if err := a.services.Host.Close(); err != nil {
		logging.Warn("Bootstrap", "Error stopping producers: %v", err)
	}

	shown := card.Names(a.services.Manager.Cards())
	if err := a.services.SavedCards.Save(shown); err != nil {
		logging.Error("Bootstrap", err, "Failed to save shown cards")
	}
	return runErr
}

// Snapshot performs one aggregate load, waits settle for producers to push
// their first cards and returns the ordered list. The application cannot
// be used after Snapshot returns.
func (a *Application) Snapshot(ctx context.Context, settle time.Duration) ([]card.Card, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := a.services.Manager
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(gctx) })

	defer func() {
		cancel()
		_ = g.Wait()
		_ = a.services.Host.Close()
	}()

	if err := m.Reload(gctx); err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-gctx.Done():
			return nil, gctx.Err()
		}
	}
	if err := m.Sync(gctx); err != nil {
		return nil, err
	}
	return m.Cards(), nil
}

func logCards(cards map[card.Type][]card.Card) {
	shown := cards[card.TypeDefault]
	logging.Info("Manager", "Showing %d cards: %s", len(shown), strings.Join(card.Names(shown), ", "))
}
