package scoring

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/history"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

var testDay = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

func testLogger() *logger.Logger {
	return logger.NewWriter(io.Discard)
}

// fillHistory seeds days of flat history strictly before testDay
func fillHistory(s *history.Store, country string, metric contracts.SignalType, days int, value float64) {
	for i := 1; i <= days; i++ {
		s.Append(country, testDay.AddDate(0, 0, -i), metric, value)
	}
}

func newEvaluator(s *history.Store) *Evaluator {
	return NewEvaluator(riskconfig.Default(), s, testLogger())
}

func TestEvaluateType_NotTriggeredBelowThresholds(t *testing.T) {
	e := newEvaluator(history.NewStore(30))

	// R1 default: abs 250, ratio 0.35
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 100, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR1)

	assert.False(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonNone, eval.Reason)
	assert.Equal(t, 100, eval.RawValue)
	assert.InDelta(t, 0.1, eval.RatioOfTotal, 1e-9)
}

func TestEvaluateType_RatioAloneBypassesGate(t *testing.T) {
	s := history.NewStore(30)
	// Plenty of history with a high median: the gate would suppress,
	// but a ratio-only hit never consults it.
	fillHistory(s, "UA", contracts.SignalR1, 14, 200)
	e := newEvaluator(s)

	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 400, R1: 160, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR1)

	assert.True(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonNone, eval.Reason)
}

func TestEvaluateType_FailOpenOnLowHistory(t *testing.T) {
	// Spec scenario: r1=300 over threshold 250, zero history days
	e := newEvaluator(history.NewStore(30))

	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR1)

	assert.True(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonLowHistory, eval.Reason)
}

func TestEvaluateType_FailOpenOnLowMedian(t *testing.T) {
	s := history.NewStore(30)
	fillHistory(s, "UA", contracts.SignalR1, 10, 2) // median 2 < floor 5
	e := newEvaluator(s)

	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR1)

	assert.True(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonLowMedian, eval.Reason)
	assert.Equal(t, 2.0, eval.RollingMedian)
}

func TestEvaluateType_GateSuppressesChronicBaseline(t *testing.T) {
	s := history.NewStore(30)
	fillHistory(s, "UA", contracts.SignalR1, 14, 200)
	e := newEvaluator(s)

	// 300/200 = 1.5 < jump threshold 1.8
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR1)

	assert.False(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonGateSuppressed, eval.Reason)
	assert.InDelta(t, 1.5, eval.JumpRatio, 1e-9)
}

func TestEvaluateType_GatePassesGenuineJump(t *testing.T) {
	s := history.NewStore(30)
	fillHistory(s, "UA", contracts.SignalR1, 14, 100)
	e := newEvaluator(s)

	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR1)

	assert.True(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonNone, eval.Reason)
	assert.InDelta(t, 3.0, eval.JumpRatio, 1e-9)
}

func TestEvaluateType_ExternalPressureSuppressesSecurityClass(t *testing.T) {
	// Spec scenario: domestic_ratio 0.1 with R1 otherwise triggered
	e := newEvaluator(history.NewStore(30))

	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, R2: 300, DomesticRatio: 0.1}

	eval := e.EvaluateType(snap, contracts.SignalR1)
	assert.False(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonExternalPressure, eval.Reason)

	// R2 is not security/governance class; the override does not apply
	eval = e.EvaluateType(snap, contracts.SignalR2)
	assert.True(t, eval.Triggered)
}

func TestEvaluateType_DisabledGateTriggersOnAbsoluteHit(t *testing.T) {
	s := history.NewStore(30)
	fillHistory(s, "UA", contracts.SignalR4, 14, 500) // would suppress if gated
	e := newEvaluator(s)

	// R4 default has use_jump_gate: false
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 2000, R4: 300, DomesticRatio: 0.8}
	eval := e.EvaluateType(snap, contracts.SignalR4)

	assert.True(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonNone, eval.Reason)
}

func TestEvaluateType_SuppressionMonotonicInJumpThreshold(t *testing.T) {
	// Raising jump_threshold must never turn a suppressed signal into
	// a triggered one, all else equal.
	s := history.NewStore(30)
	fillHistory(s, "UA", contracts.SignalR1, 14, 150)
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8}

	prevTriggered := true
	for _, jump := range []float64{1.0, 1.5, 2.0, 2.5, 3.0, 4.0} {
		cfg := riskconfig.Default()
		cfg.Scoring.Types.R1.JumpThreshold = jump
		e := NewEvaluator(cfg, s, testLogger())

		eval := e.EvaluateType(snap, contracts.SignalR1)
		if eval.Triggered {
			assert.True(t, prevTriggered, "jump threshold %.1f re-triggered a suppressed signal", jump)
		}
		prevTriggered = eval.Triggered
	}
}

func TestEvaluateAll_CoversAllCategories(t *testing.T) {
	e := newEvaluator(history.NewStore(30))
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1000, DomesticRatio: 0.8}

	evals := e.EvaluateAll(snap)

	assert.Len(t, evals, len(contracts.CategoryTypes))
	for i, tt := range contracts.CategoryTypes {
		assert.Equal(t, tt, evals[i].Type)
	}
}

func TestEvaluateVolume_BelowThreshold(t *testing.T) {
	e := newEvaluator(history.NewStore(30))

	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 1200, DomesticRatio: 0.8}
	eval := e.EvaluateVolume(snap) // volume threshold 1500

	assert.False(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonNone, eval.Reason)
}

func TestEvaluateVolume_ColdStartNeedsDoubleThreshold(t *testing.T) {
	e := newEvaluator(history.NewStore(30))

	// No history: stricter bar of 2x threshold (3000)
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 2000, DomesticRatio: 0.8}
	eval := e.EvaluateVolume(snap)
	assert.False(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonLowHistory, eval.Reason)

	snap.EventCount = 3000
	eval = e.EvaluateVolume(snap)
	assert.True(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonLowHistory, eval.Reason)
}

func TestEvaluateVolume_JumpGate(t *testing.T) {
	s := history.NewStore(30)
	fillHistory(s, "UA", contracts.SignalEvent, 14, 1000)
	e := newEvaluator(s)

	// 2000/1000 = 2.0 >= 1.8
	snap := contracts.DailySnapshot{CountryCode: "UA", Date: testDay, EventCount: 2000, DomesticRatio: 0.8}
	eval := e.EvaluateVolume(snap)
	assert.True(t, eval.Triggered)
	assert.InDelta(t, 2.0, eval.JumpRatio, 1e-9)

	// 1600/1000 = 1.6 < 1.8
	snap.EventCount = 1600
	eval = e.EvaluateVolume(snap)
	assert.False(t, eval.Triggered)
	assert.Equal(t, contracts.ReasonGateSuppressed, eval.Reason)
}
