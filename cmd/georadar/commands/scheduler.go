package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCmd manages the job scheduler
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Starts the scheduler daemon or inspects its jobs.

Registered jobs:
  daily_scoring - 05:30 UTC, scores the previous day
  weekly_surge  - 07:00 UTC, aggregates the trailing 7-day window

Example:
  go run ./cmd/georadar scheduler start
  go run ./cmd/georadar scheduler list
  go run ./cmd/georadar scheduler run daily_scoring
  go run ./cmd/georadar scheduler status`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runSchedulerStart,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  runSchedulerList,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  runSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(!noDB)
	if err != nil {
		return err
	}
	defer rt.close()

	sched, err := rt.newScheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("Scheduler started. Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func runSchedulerList(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	sched, err := rt.newScheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(!noDB)
	if err != nil {
		return err
	}
	defer rt.close()

	sched, err := rt.newScheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	jobName := args[0]
	fmt.Printf("Running job: %s\n", jobName)
	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous; block until interrupted so the job can
	// finish and its result lands in the logs.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}

func runSchedulerStatus(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	sched, err := rt.newScheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	for jobName, stat := range sched.GetJobStats() {
		fmt.Printf("%s\n", jobName)
		fmt.Printf("  Schedule: %s\n", stat.Schedule)
		fmt.Printf("  Total runs: %d\n", stat.TotalRuns)
		fmt.Printf("  Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("  Failures: %d\n", stat.FailureCount)
		if stat.LastRun != nil {
			fmt.Printf("  Last run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}
