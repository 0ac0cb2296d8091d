// Package scoring turns raw daily counts into gated alert levels. The
// jump gate exists because absolute-count spikes in chronically
// high-baseline countries are noise; a genuine jump against the
// country's own recent history is the real signal. When too little
// history exists to trust the baseline the gate fails open rather than
// silently dropping an alert.
package scoring

import (
	"math"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// Evaluator applies the per-type jump-gate decision table.
// The precedence is explicit here, in order, not implicit in branch
// nesting:
//
//  1. neither absolute nor ratio threshold hit     -> not triggered
//  2. external pressure noise, security-class type -> suppressed
//  3. jump gate disabled for the type              -> triggered
//  4. ratio hit without absolute hit               -> triggered (gate bypass)
//  5. history below minimum                        -> triggered (fail open)
//  6. rolling median below floor                   -> triggered (fail open)
//  7. jump ratio >= threshold                      -> triggered
//  8. otherwise                                    -> suppressed
type Evaluator struct {
	cfg     *riskconfig.Config
	history contracts.HistoryReader
	log     *logger.Logger
}

// NewEvaluator creates a jump-gate evaluator
func NewEvaluator(cfg *riskconfig.Config, history contracts.HistoryReader, log *logger.Logger) *Evaluator {
	return &Evaluator{
		cfg:     cfg,
		history: history,
		log:     log.WithComponent("scoring.gate"),
	}
}

// EvaluateType runs the decision table for one category signal
func (e *Evaluator) EvaluateType(snap contracts.DailySnapshot, t contracts.SignalType) contracts.SignalEvaluation {
	gate := e.cfg.Scoring.Types.For(t)
	raw := snap.Count(t)

	eval := contracts.SignalEvaluation{
		Type:     t,
		RawValue: raw,
	}
	if snap.EventCount > 0 {
		eval.RatioOfTotal = float64(raw) / float64(snap.EventCount)
	}

	absHit := raw > gate.AbsoluteThreshold
	ratioHit := eval.RatioOfTotal > gate.RatioThreshold

	if !absHit && !ratioHit {
		return eval
	}

	// External-pressure override: a day dominated by foreign-actor
	// coverage cannot trigger security/governance signals.
	if t.IsSecurityClass() && snap.ExternalPressureNoise() {
		eval.Reason = contracts.ReasonExternalPressure
		return eval
	}

	if !gate.UseJumpGate {
		eval.Triggered = true
		return eval
	}

	// Ratio alone is sufficient and bypasses the gate: concentrated
	// risk in a low-volume country.
	if ratioHit && !absHit {
		eval.Triggered = true
		return eval
	}

	median, historyDays := e.history.RollingMedian(snap.CountryCode, t, snap.Date, e.cfg.History.WindowDays)
	eval.RollingMedian = median

	if historyDays < gate.MinHistoryDays {
		eval.Triggered = true
		eval.Reason = contracts.ReasonLowHistory
		return eval
	}
	if median < gate.MinMedianFloor {
		eval.Triggered = true
		eval.Reason = contracts.ReasonLowMedian
		return eval
	}

	eval.JumpRatio = float64(raw) / math.Max(median, 1)
	if eval.JumpRatio >= gate.JumpThreshold {
		eval.Triggered = true
		return eval
	}

	eval.Reason = contracts.ReasonGateSuppressed
	e.log.WithFields(map[string]interface{}{
		"country":    snap.CountryCode,
		"type":       string(t),
		"raw":        raw,
		"median":     median,
		"jump_ratio": eval.JumpRatio,
	}).Debug("Signal suppressed by jump gate")

	return eval
}

// EvaluateAll evaluates every category signal for a snapshot
func (e *Evaluator) EvaluateAll(snap contracts.DailySnapshot) []contracts.SignalEvaluation {
	evals := make([]contracts.SignalEvaluation, 0, len(contracts.CategoryTypes))
	for _, t := range contracts.CategoryTypes {
		evals = append(evals, e.EvaluateType(snap, t))
	}
	return evals
}
