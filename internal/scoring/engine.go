package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/history"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// ErrTooFewCountries aborts publication when a run scored fewer
// countries than the safety floor. This is the engine's only fatal
// condition; everything else degrades per country.
var ErrTooFewCountries = errors.New("scored countries below safety floor")

// WeeklyLookup supplies a country's current-week surge records for the
// surge_r display view. May be nil.
type WeeklyLookup func(country string) map[contracts.SignalType]contracts.WeeklyTypeRecord

// Engine runs one scoring batch: one date across N countries.
// Per-country evaluation fans out over a worker pool; the shared
// history store is the only cross-country structure and each country's
// snapshot is ingested before its evaluators read rolling medians.
type Engine struct {
	cfg          *riskconfig.Config
	store        *history.Store
	evaluator    *Evaluator
	aggregator   *Aggregator
	composer     *Composer
	weeklyLookup WeeklyLookup
	outputDir    string
	workers      int
	log          *logger.Logger
}

// NewEngine wires the evaluator, aggregator and composer over a history
// store and baseline source
func NewEngine(cfg *riskconfig.Config, store *history.Store, baselines contracts.BaselineSource, log *logger.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		evaluator:  NewEvaluator(cfg, store, log),
		aggregator: NewAggregator(cfg),
		composer:   NewComposer(cfg, baselines),
		workers:    8,
		log:        log.WithComponent("scoring.engine"),
	}
}

// WithWeeklyLookup attaches a source of current-week surge records
func (e *Engine) WithWeeklyLookup(fn WeeklyLookup) *Engine {
	e.weeklyLookup = fn
	return e
}

// WithOutputDir sets where diagnostic dumps are written
func (e *Engine) WithOutputDir(dir string) *Engine {
	e.outputDir = dir
	return e
}

// WithWorkers sets the per-country fan-out width
func (e *Engine) WithWorkers(n int) *Engine {
	if n > 0 {
		e.workers = n
	}
	return e
}

// Run scores one date across all supplied snapshots. Results are sorted
// by country code. When fewer countries than the configured floor were
// scored, a diagnostic dump is persisted and ErrTooFewCountries is
// returned instead of a publishable result set.
func (e *Engine) Run(ctx context.Context, date time.Time, snapshots []contracts.DailySnapshot) ([]*contracts.ScoringResult, error) {
	e.log.WithFields(map[string]interface{}{
		"date":      date.Format("2006-01-02"),
		"countries": len(snapshots),
	}).Info("Starting scoring run")

	jobs := make(chan contracts.DailySnapshot)
	results := make([]*contracts.ScoringResult, 0, len(snapshots))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for snap := range jobs {
				result := e.scoreCountry(snap)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, snap := range snapshots {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- snap:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].CountryCode < results[j].CountryCode
	})

	if len(results) < e.cfg.Scoring.MinScoredCountries {
		e.dumpDiagnostics(date, len(results))
		e.log.WithFields(map[string]interface{}{
			"scored":   len(results),
			"required": e.cfg.Scoring.MinScoredCountries,
		}).Error("Aborting run: too few scored countries")
		return nil, fmt.Errorf("%w: scored %d, need %d",
			ErrTooFewCountries, len(results), e.cfg.Scoring.MinScoredCountries)
	}

	e.log.WithFields(map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"scored": len(results),
	}).Info("Scoring run completed")

	return results, nil
}

// scoreCountry evaluates a single country. Ingestion happens first so
// evaluators see today's data appended, then the gate reads only prior
// days. Any panic degrades to a valid green result for that country.
func (e *Engine) scoreCountry(snap contracts.DailySnapshot) (result *contracts.ScoringResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(map[string]interface{}{
				"country": snap.CountryCode,
				"panic":   fmt.Sprint(r),
			}).Error("Country scoring failed, degrading to green")
			result = e.aggregator.FloorResult(snap)
		}
	}()

	e.store.IngestSnapshot(snap)

	if snap.EventCount < e.cfg.Scoring.EventCountFloor {
		result = e.aggregator.FloorResult(snap)
		return result
	}

	evals := e.evaluator.EvaluateAll(snap)
	volume := e.evaluator.EvaluateVolume(snap)
	result = e.aggregator.Aggregate(snap, evals, volume)

	var weekly map[contracts.SignalType]contracts.WeeklyTypeRecord
	if e.weeklyLookup != nil {
		weekly = e.weeklyLookup(snap.CountryCode)
	}
	e.composer.Compose(result, weekly)

	return result
}

// WriteResults persists a date's result set to scores_<date>.json in
// the output dir via tmp file and rename, so reprocessing a date
// replaces the file whole or not at all. No-op without an output dir.
func (e *Engine) WriteResults(date time.Time, results []*contracts.ScoringResult) error {
	if e.outputDir == "" {
		return nil
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(e.outputDir, fmt.Sprintf("scores_%s.json", date.Format("2006-01-02")))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace results file: %w", err)
	}
	return nil
}

// runDiagnostics is the dump persisted when a run aborts
type runDiagnostics struct {
	Date       string    `json:"date"`
	Scored     int       `json:"scored"`
	Required   int       `json:"required"`
	ConfigHash string    `json:"config_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// dumpDiagnostics persists the abort context for postmortems. Dump
// failures are logged, not propagated: the abort error matters more.
func (e *Engine) dumpDiagnostics(date time.Time, scored int) {
	if e.outputDir == "" {
		return
	}

	hash, _ := riskconfig.Hash(e.cfg)
	diag := runDiagnostics{
		Date:       date.Format("2006-01-02"),
		Scored:     scored,
		Required:   e.cfg.Scoring.MinScoredCountries,
		ConfigHash: hash,
		CreatedAt:  time.Now(),
	}

	data, err := json.MarshalIndent(diag, "", "  ")
	if err != nil {
		e.log.WithError(err).Error("Failed to marshal diagnostics")
		return
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		e.log.WithError(err).Error("Failed to create output directory")
		return
	}

	path := filepath.Join(e.outputDir, fmt.Sprintf("diagnostics_%s.json", diag.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		e.log.WithError(err).Error("Failed to write diagnostics dump")
	}
}
