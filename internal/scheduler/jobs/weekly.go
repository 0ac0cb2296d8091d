package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/weekly"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// RangeSource fetches a span of daily snapshots keyed by date string.
// Days that fail upstream are simply absent from the map.
type RangeSource interface {
	FetchRange(ctx context.Context, from, to time.Time) (map[string][]contracts.DailySnapshot, error)
}

// WeeklySurgeJob aggregates the trailing 7 days into weekly surge
// records and rollups.
type WeeklySurgeJob struct {
	source     RangeSource
	aggregator *weekly.Aggregator
	series     *weekly.Series
	repo       contracts.WeeklyRepository
	seriesFile string
	logger     *logger.Logger
}

// NewWeeklySurgeJob creates the weekly surge job. repo may be nil when
// running without a database.
func NewWeeklySurgeJob(
	source RangeSource,
	aggregator *weekly.Aggregator,
	series *weekly.Series,
	repo contracts.WeeklyRepository,
	seriesFile string,
	log *logger.Logger,
) *WeeklySurgeJob {
	return &WeeklySurgeJob{
		source:     source,
		aggregator: aggregator,
		series:     series,
		repo:       repo,
		seriesFile: seriesFile,
		logger:     log.WithComponent("jobs.weekly_surge"),
	}
}

// Name returns the job name
func (j *WeeklySurgeJob) Name() string {
	return "weekly_surge"
}

// Schedule runs after the daily job has had time to finish
func (j *WeeklySurgeJob) Schedule() string {
	return "0 0 7 * * *" // 07:00 UTC daily, rolling 7-day window
}

// Run aggregates the trailing window ending yesterday
func (j *WeeklySurgeJob) Run(ctx context.Context) error {
	to := time.Now().UTC().AddDate(0, 0, -1)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return j.RunForWindow(ctx, to.AddDate(0, 0, -6), to)
}

// RunForWindow aggregates one explicit 7-day window. The window's week
// ID comes from its last day, so re-running within the same ISO week
// overwrites that week's records.
func (j *WeeklySurgeJob) RunForWindow(ctx context.Context, from, to time.Time) error {
	weekID := contracts.WeekID(to)
	j.logger.WithFields(map[string]interface{}{
		"week": weekID,
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
	}).Info("Starting weekly surge aggregation")

	byDate, err := j.source.FetchRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetch weekly window: %w", err)
	}

	byCountry := make(map[string][]contracts.DailySnapshot)
	for _, snaps := range byDate {
		for _, snap := range snaps {
			byCountry[snap.CountryCode] = append(byCountry[snap.CountryCode], snap)
		}
	}
	if len(byCountry) == 0 {
		return fmt.Errorf("weekly window %s has no feed data", weekID)
	}

	var allRecords []contracts.WeeklyTypeRecord
	aggregates := make([]*contracts.WeeklyAggregate, 0, len(byCountry))
	for country, snaps := range byCountry {
		records := j.aggregator.EvaluateWeek(country, weekID, snaps)
		allRecords = append(allRecords, records...)
		aggregates = append(aggregates, j.aggregator.Aggregate(weekID, country, records))
	}

	j.series.Upsert(allRecords)

	if j.repo != nil {
		if err := j.repo.UpsertRecords(ctx, allRecords); err != nil {
			return fmt.Errorf("persist weekly records: %w", err)
		}
		for _, agg := range aggregates {
			if err := j.repo.UpsertAggregate(ctx, agg); err != nil {
				return fmt.Errorf("persist weekly aggregate %s: %w", agg.CountryCode, err)
			}
		}
	}

	if j.seriesFile != "" {
		if err := j.series.Save(j.seriesFile); err != nil {
			j.logger.WithError(err).Warn("Failed to save weekly series")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"week":      weekID,
		"countries": len(byCountry),
		"records":   len(allRecords),
	}).Info("Weekly surge aggregation completed")

	return nil
}
