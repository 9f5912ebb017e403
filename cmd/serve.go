package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"deckhand/internal/app"
	"deckhand/internal/config"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveLogFormat selects text or json log output.
var serveLogFormat string

// serveLogLevel sets the minimum log level unless --debug is given.
var serveLogLevel string

// serveConfigPath specifies the configuration directory.
var serveConfigPath string

// serveSavedCards overrides the names shown first after start.
var serveSavedCards []string

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the card manager until interrupted",
	Long: `Starts the card manager with its producers and performs the first
aggregate load of the card directory.

While running:
  - conditions are re-evaluated every conditional.pollInterval
  - SLICE cards are re-read whenever a card file changes
  - SIGHUP starts a fresh aggregate load
  - SIGINT or SIGTERM stop the process

On shutdown the names of the shown cards are written to saved-cards.yaml in
the configuration directory. The next start shows only those names on its
first update so the page looks the same as before the restart.

When started by systemd with Type=notify, readiness is reported once the
first load has been started.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveLogFormat, serveConfigPath)
	cfg.LogLevel = serveLogLevel
	if cmd.Flags().Changed("saved-cards") {
		cfg.SavedCards = append([]string{}, serveSavedCards...)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "text", "Log format (text, json)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Minimum log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	serveCmd.Flags().StringSliceVar(&serveSavedCards, "saved-cards", nil, "Card names to show on the first update, replacing saved-cards.yaml")
}
