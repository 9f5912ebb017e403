package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the deckhand application.
var rootCmd = &cobra.Command{
	Use:   "deckhand",
	Short: "Aggregate, rank and serve contextual cards",
	Long: `deckhand collects cards from its producers and card files, keeps them
ranked by score and serves the ordered list. Conditions, suggestions and
slice cards are merged into one stable page that only changes when one of
its sources does.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "deckhand version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
