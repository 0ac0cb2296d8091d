package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/halcyonlabs/georadar/internal/baseline"
	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/feed"
	"github.com/halcyonlabs/georadar/internal/history"
	"github.com/halcyonlabs/georadar/internal/repos"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
	"github.com/halcyonlabs/georadar/internal/scheduler"
	"github.com/halcyonlabs/georadar/internal/scheduler/jobs"
	"github.com/halcyonlabs/georadar/internal/scoring"
	"github.com/halcyonlabs/georadar/internal/weekly"
	"github.com/halcyonlabs/georadar/pkg/config"
	"github.com/halcyonlabs/georadar/pkg/database"
	"github.com/halcyonlabs/georadar/pkg/httputil"
	"github.com/halcyonlabs/georadar/pkg/logger"
	"github.com/halcyonlabs/georadar/pkg/redis"
)

// runtime holds the wired application components shared by commands
type runtime struct {
	cfg       *config.Config
	log       *logger.Logger
	risk      *riskconfig.Config
	baselines *baseline.Provider
	store     *history.Store
	series    *weekly.Series
	feed      *feed.Client
	engine    *scoring.Engine
	db        *database.DB
	redis     *redis.Client

	scoringRepo contracts.ScoringRepository
	weeklyRepo  contracts.WeeklyRepository
}

// seriesFile is where the weekly series snapshot lives under the
// history file's directory
func (rt *runtime) seriesFile() string {
	return filepath.Join(filepath.Dir(rt.cfg.Paths.HistoryFile), "weekly.json")
}

// initRuntime loads config and wires the engine with its collaborators.
// withDB controls whether a Postgres pool is opened; commands running
// file-only pass false.
func initRuntime(withDB bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	risk, err := riskconfig.Load(cfg.Paths.RiskConfig)
	if err != nil {
		return nil, fmt.Errorf("load risk config: %w", err)
	}
	hash, _ := riskconfig.Hash(risk)
	log.WithField("config_hash", hash).Info("Risk config loaded")

	baselines, err := baseline.LoadDir(cfg.Paths.BaselineDir, log)
	if err != nil {
		return nil, fmt.Errorf("load baselines: %w", err)
	}

	store := history.NewStore(risk.History.RetentionDays)
	if err := store.Load(cfg.Paths.HistoryFile); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	series := weekly.NewSeries(risk.Weekly.RetentionWeeks)

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without it")
		redisClient = nil
	}

	// The feed export host is shared by every command; when Redis is up
	// the request budget is shared across processes too.
	httpClient := httputil.NewWithTimeout(log, cfg.Feed.Timeout)
	if redisClient != nil && redisClient.Enabled() {
		httpClient = httpClient.WithRateLimiter(
			redis.NewRateLimiter(redisClient, "georadar"),
			redis.RateLimitConfig{
				Key:    "feed",
				Limit:  cfg.Feed.RequestsPerSec,
				Window: time.Second,
			},
		)
	}

	rt := &runtime{
		cfg:       cfg,
		log:       log,
		risk:      risk,
		baselines: baselines,
		store:     store,
		series:    series,
		redis:     redisClient,
		feed:      feed.NewClient(cfg.Feed, httpClient, log),
	}

	if err := rt.series.Load(rt.seriesFile()); err != nil {
		return nil, fmt.Errorf("load weekly series: %w", err)
	}

	rt.engine = scoring.NewEngine(risk, store, baselines, log).
		WithOutputDir(cfg.Paths.OutputDir).
		WithWeeklyLookup(func(country string) map[contracts.SignalType]contracts.WeeklyTypeRecord {
			return series.Week(country, currentWeekID())
		})

	if withDB {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		rt.db = db
		rt.scoringRepo = repos.NewScoringRepository(db.Pool)
		rt.weeklyRepo = repos.NewWeeklyRepository(db.Pool)
	}

	return rt, nil
}

// currentWeekID is the ISO week of the current UTC day
func currentWeekID() string {
	return contracts.WeekID(time.Now().UTC())
}

// close releases held resources
func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}

// newScoringJob builds the daily scoring job over the runtime
func (rt *runtime) newScoringJob(broadcaster jobs.Broadcaster) *jobs.DailyScoringJob {
	return jobs.NewDailyScoringJob(
		rt.feed, rt.engine, rt.store, rt.scoringRepo, broadcaster,
		rt.cfg.Paths.HistoryFile, rt.log,
	)
}

// newWeeklyJob builds the weekly surge job over the runtime
func (rt *runtime) newWeeklyJob() *jobs.WeeklySurgeJob {
	aggregator := weekly.NewAggregator(rt.risk, rt.baselines, rt.log)
	return jobs.NewWeeklySurgeJob(
		rt.feed, aggregator, rt.series, rt.weeklyRepo, rt.seriesFile(), rt.log,
	)
}

// newScheduler builds the scheduler with both jobs registered
func (rt *runtime) newScheduler(broadcaster jobs.Broadcaster) (*scheduler.Scheduler, error) {
	sched := scheduler.New(rt.log)
	if err := sched.AddJob(rt.newScoringJob(broadcaster)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(rt.newWeeklyJob()); err != nil {
		return nil, err
	}
	return sched, nil
}
