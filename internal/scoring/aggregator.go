package scoring

import (
	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
)

// Aggregator combines triggered signals into a bundle count, composite
// score and four-level alert.
type Aggregator struct {
	cfg *riskconfig.Config
}

// NewAggregator creates a bundle/level aggregator
func NewAggregator(cfg *riskconfig.Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate builds the daily result from gate verdicts. The volume
// evaluation counts as one extra bundle when triggered.
func (a *Aggregator) Aggregate(snap contracts.DailySnapshot, evals []contracts.SignalEvaluation, volume contracts.SignalEvaluation) *contracts.ScoringResult {
	result := &contracts.ScoringResult{
		CountryCode:           snap.CountryCode,
		Date:                  snap.Date,
		Signals:               append(evals, volume),
		ExternalPressureNoise: snap.ExternalPressureNoise(),
	}

	bundles := 0
	composite := 0.0
	for _, eval := range evals {
		if eval.Triggered {
			bundles++
			composite += float64(eval.RawValue)
		}
	}
	if volume.Triggered {
		bundles++
		composite += float64(snap.EventCount) / 100
	}

	tone := a.toneModifier(snap.AvgTone)
	composite += tone * 100

	result.BundleCount = bundles
	result.CompositeScore = composite
	result.Level = a.level(bundles, tone)

	return result
}

// FloorResult is the unconditional verdict for countries below the
// absolute event-count floor: too little volume to trust any ratio.
func (a *Aggregator) FloorResult(snap contracts.DailySnapshot) *contracts.ScoringResult {
	return &contracts.ScoringResult{
		CountryCode:           snap.CountryCode,
		Date:                  snap.Date,
		Level:                 contracts.LevelGreen,
		BundleCount:           0,
		ExternalPressureNoise: snap.ExternalPressureNoise(),
	}
}

// toneModifier grades the day's average tone: 1 below the bad
// threshold, 0.5 below the mild threshold, otherwise 0. Tone never
// creates a bundle; it only unlocks yellow for single-bundle days.
func (a *Aggregator) toneModifier(avgTone float64) float64 {
	t := a.cfg.Scoring.Tone
	switch {
	case avgTone < t.BadThreshold:
		return 1
	case avgTone < t.MildThreshold:
		return 0.5
	default:
		return 0
	}
}

// level maps a bundle count and tone modifier onto an alert color
func (a *Aggregator) level(bundles int, tone float64) contracts.AlertLevel {
	al := a.cfg.Scoring.AlertLevels
	switch {
	case bundles >= al.RedBundles:
		return contracts.LevelRed
	case bundles >= al.OrangeBundles:
		return contracts.LevelOrange
	case bundles >= al.YellowMinBundles && tone >= 0.5:
		return contracts.LevelYellow
	default:
		return contracts.LevelGreen
	}
}
