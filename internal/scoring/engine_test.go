package scoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/internal/history"
	"github.com/halcyonlabs/georadar/internal/riskconfig"
)

func newTestEngine(store *history.Store, minCountries int) *Engine {
	cfg := riskconfig.Default()
	cfg.Scoring.MinScoredCountries = minCountries
	return NewEngine(cfg, store, &stubBaselines{}, testLogger())
}

func TestRun_FloorCountryScoresGreen(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1)

	snaps := []contracts.DailySnapshot{
		{CountryCode: "LU", Date: testDay, EventCount: 50, R1: 40, DomesticRatio: 0.9},
	}
	results, err := e.Run(context.Background(), testDay, snaps)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, contracts.LevelGreen, results[0].Level)
	assert.Equal(t, 0, results[0].BundleCount)
}

func TestRun_NoHistoryCountryFailsOpen(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1)

	snaps := []contracts.DailySnapshot{
		{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8},
	}
	results, err := e.Run(context.Background(), testDay, snaps)

	require.NoError(t, err)
	require.Len(t, results, 1)

	sig, ok := results[0].Signal(contracts.SignalR1)
	require.True(t, ok)
	assert.True(t, sig.Triggered)
	assert.Equal(t, contracts.ReasonLowHistory, sig.Reason)
}

func TestRun_ResultsSortedByCountry(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1).WithWorkers(4)

	snaps := []contracts.DailySnapshot{
		{CountryCode: "ZW", Date: testDay, EventCount: 500, DomesticRatio: 0.8},
		{CountryCode: "AF", Date: testDay, EventCount: 500, DomesticRatio: 0.8},
		{CountryCode: "MX", Date: testDay, EventCount: 500, DomesticRatio: 0.8},
	}
	results, err := e.Run(context.Background(), testDay, snaps)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "AF", results[0].CountryCode)
	assert.Equal(t, "MX", results[1].CountryCode)
	assert.Equal(t, "ZW", results[2].CountryCode)
}

func TestRun_AbortsBelowSafetyFloor(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(history.NewStore(30), 5).WithOutputDir(dir)

	snaps := []contracts.DailySnapshot{
		{CountryCode: "UA", Date: testDay, EventCount: 500, DomesticRatio: 0.8},
		{CountryCode: "PL", Date: testDay, EventCount: 500, DomesticRatio: 0.8},
	}
	results, err := e.Run(context.Background(), testDay, snaps)

	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrTooFewCountries)

	// Abort leaves a diagnostics dump behind
	path := filepath.Join(dir, "diagnostics_"+testDay.Format("2006-01-02")+".json")
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"scored": 2`)
	assert.Contains(t, string(data), `"required": 5`)
}

func TestRun_IngestsBeforeEvaluating(t *testing.T) {
	store := history.NewStore(30)
	e := newTestEngine(store, 1)

	snaps := []contracts.DailySnapshot{
		{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8},
	}
	_, err := e.Run(context.Background(), testDay, snaps)
	require.NoError(t, err)

	// Today's counts landed in the store but did not feed today's own median
	median, days := store.RollingMedian("UA", contracts.SignalR1, testDay.AddDate(0, 0, 1), 14)
	assert.Equal(t, 1, days)
	assert.Equal(t, 300.0, median)
}

func TestRun_WeeklyLookupFeedsSurgeView(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1).WithWeeklyLookup(
		func(country string) map[contracts.SignalType]contracts.WeeklyTypeRecord {
			return map[contracts.SignalType]contracts.WeeklyTypeRecord{
				contracts.SignalR1: {CountryCode: country, Type: contracts.SignalR1, Ratio7: 3.75, IsActive: true},
			}
		})

	snaps := []contracts.DailySnapshot{
		{CountryCode: "UA", Date: testDay, EventCount: 1000, R1: 300, DomesticRatio: 0.8},
	}
	results, err := e.Run(context.Background(), testDay, snaps)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 10.0, results[0].Scores[contracts.SignalR1].SurgeR, 1e-9)
}

func TestRun_CancelledContextStopsFeeding(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snaps := make([]contracts.DailySnapshot, 50)
	for i := range snaps {
		snaps[i] = contracts.DailySnapshot{CountryCode: "C" + string(rune('A'+i%26)), Date: testDay, EventCount: 500, DomesticRatio: 0.8}
	}
	results, err := e.Run(ctx, testDay, snaps)

	// A cancelled run must return promptly with whatever was already in
	// flight, never more than was supplied.
	if err != nil {
		assert.ErrorIs(t, err, ErrTooFewCountries)
	}
	assert.LessOrEqual(t, len(results), len(snaps))
}

func TestWriteResults_ReplacesFileWhole(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(history.NewStore(30), 1).WithOutputDir(dir)

	results := []*contracts.ScoringResult{
		{CountryCode: "UA", Date: testDay, Level: contracts.LevelOrange, BundleCount: 2},
	}
	require.NoError(t, e.WriteResults(testDay, results))

	path := filepath.Join(dir, "scores_"+testDay.Format("2006-01-02")+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"country_code": "UA"`)

	// Rewriting the same date overwrites, never appends
	results[0].Level = contracts.LevelRed
	require.NoError(t, e.WriteResults(testDay, results))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level": "red"`)
	assert.NotContains(t, string(data), `"level": "orange"`)
}

func TestWriteResults_NoOutputDirIsNoop(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1)
	require.NoError(t, e.WriteResults(testDay, nil))
}

func TestRun_EmptyDayAborts(t *testing.T) {
	e := newTestEngine(history.NewStore(30), 1)

	results, err := e.Run(context.Background(), testDay, nil)

	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrTooFewCountries)
}
