// Package weekly computes smoothed 7-day surge ratios per country and
// signal type, independent of the daily bundle logic. A week "surges"
// when its count jumps against the country's long-run weekly baseline
// and survives share/absolute gating and the baseline stability rule.
package weekly

import (
	"math"
	"time"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// Aggregator evaluates one country week at a time
type Aggregator struct {
	cfg       *riskconfig.Config
	baselines contracts.BaselineSource
	log       *logger.Logger
	now       func() time.Time
}

// NewAggregator creates a weekly surge aggregator
func NewAggregator(cfg *riskconfig.Config, baselines contracts.BaselineSource, log *logger.Logger) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		baselines: baselines,
		log:       log.WithComponent("weekly.aggregator"),
		now:       time.Now,
	}
}

// EvaluateWeek sums a country's snapshots for one week and evaluates
// every category type. Snapshots outside the given week are the
// caller's mistake and are summed regardless; pass one week's worth.
func (a *Aggregator) EvaluateWeek(country, weekID string, snaps []contracts.DailySnapshot) []contracts.WeeklyTypeRecord {
	eventCount7 := 0
	today7 := make(map[contracts.SignalType]int, len(contracts.CategoryTypes))
	for _, snap := range snaps {
		eventCount7 += snap.EventCount
		for _, t := range contracts.CategoryTypes {
			today7[t] += snap.Count(t)
		}
	}

	records := make([]contracts.WeeklyTypeRecord, 0, len(contracts.CategoryTypes))
	for _, t := range contracts.CategoryTypes {
		records = append(records, a.EvaluateType(country, weekID, t, today7[t], eventCount7))
	}
	return records
}

// EvaluateType runs the weekly gate chain for one signal type.
//
// ratio7 is smoothed by k against the long-run weekly baseline; the
// absolute floor scales with weekly volume so hub countries need more
// than a fixed count to register. A ratio at or past the red threshold
// overrides every gate: an extreme ratio is self-evidently real.
func (a *Aggregator) EvaluateType(country, weekID string, t contracts.SignalType, today7, eventCount7 int) contracts.WeeklyTypeRecord {
	w := a.cfg.Weekly
	gate := w.Gating.For(t)
	median := a.baselines.Resolve(country, t).Median

	baseline7 := median * 7
	ratio7 := (float64(today7) + w.SmoothingK) / (baseline7 + w.SmoothingK)
	share7 := float64(today7) / math.Max(1, float64(eventCount7))

	rec := contracts.WeeklyTypeRecord{
		WeekID:      weekID,
		CountryCode: country,
		Type:        t,
		Today7:      today7,
		Baseline7:   baseline7,
		Ratio7:      ratio7,
		Share7:      share7,
		EventCount7: eventCount7,
		UpdatedAt:   a.now(),
	}

	dynamicFloor := int(math.Max(float64(gate.Floor), math.Ceil(float64(eventCount7)*gate.ShareFloor)))
	absHit := today7 >= dynamicFloor
	shareHit := share7 >= w.RatioThreshold
	highVolume := eventCount7 >= w.HighVolumeFloor
	redOverride := ratio7 >= w.Thresholds.Red

	triggered := shareHit || (absHit && !highVolume) || redOverride
	stable := median >= w.MinBaselineFor(eventCount7)

	if redOverride {
		rec.IsActive = true
		return rec
	}
	if triggered && stable && ratio7 >= w.Thresholds.Yellow {
		rec.IsActive = true
		return rec
	}

	rec.Reason = a.inactiveReason(triggered, stable, absHit, shareHit, highVolume, today7, gate.Floor)
	return rec
}

// inactiveReason picks the single canonical reason a type is not active
func (a *Aggregator) inactiveReason(triggered, stable, absHit, shareHit, highVolume bool, today7, staticFloor int) contracts.GateReason {
	if !triggered {
		if absHit && highVolume && !shareHit {
			return contracts.GateHighVolume
		}
		if today7 < staticFloor {
			return contracts.GateLowAbsolute
		}
		return contracts.GateLowShare
	}
	if !stable {
		return contracts.GateLowBaseline
	}
	return contracts.GateBelowThreshold
}

// Aggregate derives the country/week rollup from its type records.
// Level is the highest color among active types' ratios, green when no
// type is active.
func (a *Aggregator) Aggregate(weekID, country string, records []contracts.WeeklyTypeRecord) *contracts.WeeklyAggregate {
	agg := &contracts.WeeklyAggregate{
		WeekID:      weekID,
		CountryCode: country,
		Level:       contracts.LevelGreen,
		ActiveTypes: []contracts.SignalType{},
	}

	for _, rec := range records {
		if !rec.IsActive {
			continue
		}
		agg.ActiveTypes = append(agg.ActiveTypes, rec.Type)
		agg.Level = contracts.MaxLevel(agg.Level, a.levelFor(rec.Ratio7))
		if rec.Ratio7 > agg.MaxRatioActive {
			agg.MaxRatioActive = rec.Ratio7
		}
	}

	return agg
}

// levelFor maps a ratio7 onto the surge color thresholds
func (a *Aggregator) levelFor(ratio7 float64) contracts.AlertLevel {
	th := a.cfg.Weekly.Thresholds
	switch {
	case ratio7 >= th.Red:
		return contracts.LevelRed
	case ratio7 >= th.Orange:
		return contracts.LevelOrange
	case ratio7 >= th.Yellow:
		return contracts.LevelYellow
	default:
		return contracts.LevelGreen
	}
}
