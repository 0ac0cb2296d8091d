package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// scoreCmd runs one daily scoring pass
var scoreCmd = &cobra.Command{
	Use:   "score [date]",
	Short: "Run daily scoring for a date (default: yesterday UTC)",
	Long: `Fetches one date's feed export, scores every country through the
jump-gate pipeline and publishes the results.

Example:
  go run ./cmd/georadar score
  go run ./cmd/georadar score 2026-08-28
  go run ./cmd/georadar score 2026-08-28 --no-db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	date := time.Now().UTC().AddDate(0, 0, -1)
	if len(args) == 1 {
		parsed, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
		}
		date = parsed
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	rt, err := initRuntime(!noDB)
	if err != nil {
		return err
	}
	defer rt.close()

	job := rt.newScoringJob(nil)
	if err := job.RunForDate(context.Background(), date); err != nil {
		return fmt.Errorf("daily scoring: %w", err)
	}

	fmt.Printf("Scored %s\n", date.Format("2006-01-02"))
	return nil
}
