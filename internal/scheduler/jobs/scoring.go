// Package jobs holds the scheduled pipelines: daily scoring and the
// weekly surge aggregation.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/history"
	"github.com/halcyonlabs/georadar/internal/scoring"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// Broadcaster pushes freshly published results to live subscribers.
// The websocket hub implements it; a nil broadcaster is skipped.
type Broadcaster interface {
	BroadcastResults(results []*contracts.ScoringResult)
}

// DailyScoringJob fetches the previous day's feed export, runs the
// scoring engine and publishes the results.
type DailyScoringJob struct {
	source      contracts.SnapshotSource
	engine      *scoring.Engine
	store       *history.Store
	repo        contracts.ScoringRepository
	broadcaster Broadcaster
	historyFile string
	logger      *logger.Logger
}

// NewDailyScoringJob creates the daily scoring job. repo and broadcaster
// may be nil when running without a database or API server.
func NewDailyScoringJob(
	source contracts.SnapshotSource,
	engine *scoring.Engine,
	store *history.Store,
	repo contracts.ScoringRepository,
	broadcaster Broadcaster,
	historyFile string,
	log *logger.Logger,
) *DailyScoringJob {
	return &DailyScoringJob{
		source:      source,
		engine:      engine,
		store:       store,
		repo:        repo,
		broadcaster: broadcaster,
		historyFile: historyFile,
		logger:      log.WithComponent("jobs.daily_scoring"),
	}
}

// Name returns the job name
func (j *DailyScoringJob) Name() string {
	return "daily_scoring"
}

// Schedule runs after the feed publishes the previous UTC day
func (j *DailyScoringJob) Schedule() string {
	return "0 30 5 * * *" // 05:30 UTC daily
}

// Run scores the previous UTC day
func (j *DailyScoringJob) Run(ctx context.Context) error {
	date := time.Now().UTC().AddDate(0, 0, -1)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return j.RunForDate(ctx, date)
}

// RunForDate scores one specific date; used by the score command for
// backfills.
func (j *DailyScoringJob) RunForDate(ctx context.Context, date time.Time) error {
	j.logger.WithField("date", date.Format("2006-01-02")).Info("Starting daily scoring pipeline")

	snapshots, err := j.source.FetchDaily(ctx, date)
	if err != nil {
		return fmt.Errorf("fetch daily snapshots: %w", err)
	}

	results, err := j.engine.Run(ctx, date, snapshots)
	if err != nil {
		return fmt.Errorf("scoring run: %w", err)
	}

	if err := j.engine.WriteResults(date, results); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}

	if j.repo != nil {
		if err := j.repo.SaveBatch(ctx, results); err != nil {
			return fmt.Errorf("persist results: %w", err)
		}
	}

	if j.historyFile != "" {
		if err := j.store.Save(j.historyFile); err != nil {
			// History persistence is best effort; next run rebuilds
			// missing days from the feed.
			j.logger.WithError(err).Warn("Failed to save history snapshot")
		}
	}

	if j.broadcaster != nil {
		j.broadcaster.BroadcastResults(results)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"scored": len(results),
	}).Info("Daily scoring pipeline completed")

	return nil
}
