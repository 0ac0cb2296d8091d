package scoring

import (
	"math"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// EvaluateVolume decides the volume-jump bundle on the total event
// count. Same rolling-median logic as the category gate, but the
// cold-start fallback is stricter: with insufficient history the day
// must reach twice the absolute volume threshold. A fail-open there
// would make every newly tracked country fire on day one.
func (e *Evaluator) EvaluateVolume(snap contracts.DailySnapshot) contracts.SignalEvaluation {
	v := e.cfg.Scoring.Volume
	raw := snap.EventCount

	eval := contracts.SignalEvaluation{
		Type:         contracts.SignalEvent,
		RawValue:     raw,
		RatioOfTotal: 1,
	}

	if raw <= v.Threshold {
		return eval
	}

	median, historyDays := e.history.RollingMedian(snap.CountryCode, contracts.SignalEvent, snap.Date, e.cfg.History.WindowDays)
	eval.RollingMedian = median

	if historyDays < v.MinHistoryDays {
		eval.Reason = contracts.ReasonLowHistory
		eval.Triggered = raw >= 2*v.Threshold
		return eval
	}
	if median < v.MinMedianFloor {
		eval.Triggered = true
		eval.Reason = contracts.ReasonLowMedian
		return eval
	}

	eval.JumpRatio = float64(raw) / math.Max(median, 1)
	if eval.JumpRatio >= v.Jump {
		eval.Triggered = true
		return eval
	}

	eval.Reason = contracts.ReasonGateSuppressed
	return eval
}
