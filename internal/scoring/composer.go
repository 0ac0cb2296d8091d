package scoring

import (
	"math"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
)

// Composer renders the same underlying signals into three display
// scales. Views are pure functions of stored raw fields and are never
// persisted as separate state; recomputing them reproduces the same
// values.
type Composer struct {
	cfg       *riskconfig.Config
	baselines contracts.BaselineSource
}

// NewComposer creates a score composer
func NewComposer(cfg *riskconfig.Config, baselines contracts.BaselineSource) *Composer {
	return &Composer{cfg: cfg, baselines: baselines}
}

// Compose fills the per-type view scores on a result. weekly supplies
// the country's current-week surge records; a nil map zeroes the
// surge_r view.
func (c *Composer) Compose(result *contracts.ScoringResult, weekly map[contracts.SignalType]contracts.WeeklyTypeRecord) {
	scores := make(map[contracts.SignalType]contracts.ViewScores, len(result.Signals))

	for _, eval := range result.Signals {
		view := contracts.ViewScores{
			Raw:   c.RawScore(eval.Type, eval.RawValue),
			Surge: c.SurgeScore(result.CountryCode, eval.Type, eval.RawValue),
		}
		if rec, ok := weekly[eval.Type]; ok {
			view.SurgeR = c.SurgeRScore(rec.Ratio7, rec.IsActive)
		}
		scores[eval.Type] = view
	}

	result.Scores = scores
}

// RawScore normalizes an absolute count by its threshold onto 0-10
func (c *Composer) RawScore(t contracts.SignalType, raw int) float64 {
	threshold, _ := c.gateParams(t)
	if threshold <= 0 {
		return 0
	}
	return clamp10(10 * float64(raw) / float64(threshold))
}

// SurgeScore is the baseline-adjusted view: the raw value scaled by a
// damping factor before normalization. The factor never exceeds 1, so
// high-baseline hub countries are dampened but nothing is amplified.
func (c *Composer) SurgeScore(country string, t contracts.SignalType, raw int) float64 {
	threshold, baselineRef := c.gateParams(t)
	if threshold <= 0 {
		return 0
	}

	median := c.baselines.Resolve(country, t).Median
	damp := math.Min(1.0, baselineRef/math.Max(median, 1))

	return clamp10(10 * float64(raw) * damp / float64(threshold))
}

// SurgeRScore maps a weekly ratio7 through a piecewise-linear curve
// anchored at the surge color thresholds: 0 up to ratio 1, then 0-3 to
// yellow, 3-7 to orange, 7-10 to red, capped at 10. A week that was not
// stable/active displays as 0.
func (c *Composer) SurgeRScore(ratio7 float64, active bool) float64 {
	if !active {
		return 0
	}

	th := c.cfg.Weekly.Thresholds
	switch {
	case ratio7 < 1:
		return 0
	case ratio7 < th.Yellow:
		return 3 * (ratio7 - 1) / (th.Yellow - 1)
	case ratio7 < th.Orange:
		return 3 + 4*(ratio7-th.Yellow)/(th.Orange-th.Yellow)
	case ratio7 < th.Red:
		return 7 + 3*(ratio7-th.Orange)/(th.Red-th.Orange)
	default:
		return 10
	}
}

// gateParams returns the normalization threshold and baseline reference
// for a signal type
func (c *Composer) gateParams(t contracts.SignalType) (int, float64) {
	if t == contracts.SignalEvent {
		v := c.cfg.Scoring.Volume
		return v.Threshold, v.BaselineRef
	}
	g := c.cfg.Scoring.Types.For(t)
	return g.AbsoluteThreshold, g.BaselineRef
}

func clamp10(v float64) float64 {
	if v > 10 {
		return 10
	}
	if v < 0 {
		return 0
	}
	return v
}
