package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	noDB    bool
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "georadar",
	Short: "Geopolitical risk signal scoring and surge detection",
	Long: `georadar scores per-country daily event counts into gated alert
levels and detects weekly surges against long-run baselines.

Usage:
  go run ./cmd/georadar [command]

Examples:
  go run ./cmd/georadar score 2026-08-28
  go run ./cmd/georadar weekly
  go run ./cmd/georadar api
  go run ./cmd/georadar scheduler start`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noDB, "no-db", false, "run without Postgres (file output only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
