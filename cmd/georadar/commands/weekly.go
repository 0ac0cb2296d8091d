package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// weeklyCmd runs one weekly surge aggregation
var weeklyCmd = &cobra.Command{
	Use:   "weekly [end-date]",
	Short: "Aggregate the 7-day window ending at a date (default: yesterday UTC)",
	Long: `Fetches the trailing 7 days of feed exports and computes per-country
weekly surge ratios, gating and rollups.

Example:
  go run ./cmd/georadar weekly
  go run ./cmd/georadar weekly 2026-08-28 --no-db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWeekly,
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(cmd *cobra.Command, args []string) error {
	to := time.Now().UTC().AddDate(0, 0, -1)
	if len(args) == 1 {
		parsed, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
		}
		to = parsed
	}
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	rt, err := initRuntime(!noDB)
	if err != nil {
		return err
	}
	defer rt.close()

	job := rt.newWeeklyJob()
	if err := job.RunForWindow(context.Background(), to.AddDate(0, 0, -6), to); err != nil {
		return fmt.Errorf("weekly aggregation: %w", err)
	}

	fmt.Printf("Aggregated week ending %s\n", to.Format("2006-01-02"))
	return nil
}
