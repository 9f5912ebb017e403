package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"deckhand/internal/app"
	"deckhand/internal/cli"
	"deckhand/internal/config"
)

var (
	listOutputFormat string
	listNoHeaders    bool
	listQuiet        bool
	listDebug        bool
	listConfigPath   string
	listSettle       time.Duration
	listTimeout      time.Duration
)

// listCmd loads the cards once and prints them in rank order.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Load the cards once and print them in rank order",
	Long: `Performs a single aggregate load, waits for the producers to push
their first cards and prints the resulting page.

Examples:
  deckhand list
  deckhand list -o wide
  deckhand list -o json --config-path ./demo`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(listOutputFormat)
	if err != nil {
		return err
	}

	cfg := app.NewConfig(listDebug, "text", listConfigPath)
	cfg.Silent = !listDebug
	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	showSpinner := !listQuiet && format != cli.OutputFormatJSON && format != cli.OutputFormatYAML
	var s *spinner.Spinner
	if showSpinner {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Loading cards..."
		s.Start()
	}

	cards, err := application.Snapshot(ctx, listSettle)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}

	return cli.NewCardPrinter(cmd.OutOrStdout(), cli.PrintOptions{
		Format:    format,
		NoHeaders: listNoHeaders,
	}).Print(cards)
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format (table, wide, plain, json, yaml)")
	listCmd.Flags().BoolVar(&listNoHeaders, "no-headers", false, "Suppress header row in table output")
	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "Suppress the progress spinner")
	listCmd.Flags().BoolVar(&listDebug, "debug", false, "Enable debug logging")
	listCmd.Flags().StringVar(&listConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	listCmd.Flags().DurationVar(&listSettle, "settle", 300*time.Millisecond, "Time to wait for producers after the load")
	listCmd.Flags().DurationVar(&listTimeout, "timeout", 30*time.Second, "Upper bound for the whole command")
}
