package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_RollingMedian(t *testing.T) {
	s := NewStore(30)

	values := []float64{10, 20, 30, 40, 50}
	for i, v := range values {
		s.Append("UA", day(i+1), contracts.SignalR1, v)
	}

	// Full window before day 6
	median, historyDays := s.RollingMedian("UA", contracts.SignalR1, day(6), 5)
	assert.Equal(t, 30.0, median)
	assert.Equal(t, 5, historyDays)

	// Window larger than available data reports actual days
	median, historyDays = s.RollingMedian("UA", contracts.SignalR1, day(6), 14)
	assert.Equal(t, 30.0, median)
	assert.Equal(t, 5, historyDays)

	// Even-sized window averages the middle pair
	median, historyDays = s.RollingMedian("UA", contracts.SignalR1, day(6), 4)
	assert.Equal(t, 35.0, median)
	assert.Equal(t, 4, historyDays)
}

func TestStore_RollingMedian_ExcludesQueryDay(t *testing.T) {
	s := NewStore(30)

	s.Append("UA", day(1), contracts.SignalR1, 10)
	s.Append("UA", day(2), contracts.SignalR1, 10)
	// Today's spike is appended before evaluation per the ingest barrier
	s.Append("UA", day(3), contracts.SignalR1, 500)

	median, historyDays := s.RollingMedian("UA", contracts.SignalR1, day(3), 14)
	assert.Equal(t, 10.0, median, "query-day value must not feed its own baseline")
	assert.Equal(t, 2, historyDays)
}

func TestStore_RollingMedian_NoHistory(t *testing.T) {
	s := NewStore(30)

	median, historyDays := s.RollingMedian("UA", contracts.SignalR1, day(1), 14)
	assert.Equal(t, 0.0, median)
	assert.Equal(t, 0, historyDays)
}

func TestStore_Append_OverwritesSameDay(t *testing.T) {
	s := NewStore(30)

	s.Append("UA", day(1), contracts.SignalR1, 10)
	s.Append("UA", day(1), contracts.SignalR1, 99)

	assert.Equal(t, 1, s.Len("UA", contracts.SignalR1))

	median, _ := s.RollingMedian("UA", contracts.SignalR1, day(2), 5)
	assert.Equal(t, 99.0, median)
}

func TestStore_Append_OutOfOrderBackfill(t *testing.T) {
	s := NewStore(30)

	s.Append("UA", day(3), contracts.SignalR1, 30)
	s.Append("UA", day(1), contracts.SignalR1, 10)
	s.Append("UA", day(2), contracts.SignalR1, 20)

	// Window of 2 before day 4 must pick days 2 and 3, not insertion order
	median, historyDays := s.RollingMedian("UA", contracts.SignalR1, day(4), 2)
	assert.Equal(t, 25.0, median)
	assert.Equal(t, 2, historyDays)
}

func TestStore_Eviction(t *testing.T) {
	s := NewStore(5)

	for i := 1; i <= 9; i++ {
		s.Append("UA", day(i), contracts.SignalR1, float64(i))
	}

	assert.Equal(t, 5, s.Len("UA", contracts.SignalR1))

	// Oldest entries evicted: only days 5..9 remain
	median, historyDays := s.RollingMedian("UA", contracts.SignalR1, day(10), 30)
	assert.Equal(t, 7.0, median)
	assert.Equal(t, 5, historyDays)
}

func TestStore_SeriesAreIndependent(t *testing.T) {
	s := NewStore(30)

	s.Append("UA", day(1), contracts.SignalR1, 10)
	s.Append("UA", day(1), contracts.SignalR2, 77)
	s.Append("PL", day(1), contracts.SignalR1, 33)

	median, _ := s.RollingMedian("UA", contracts.SignalR1, day(2), 5)
	assert.Equal(t, 10.0, median)
	median, _ = s.RollingMedian("UA", contracts.SignalR2, day(2), 5)
	assert.Equal(t, 77.0, median)
	median, _ = s.RollingMedian("PL", contracts.SignalR1, day(2), 5)
	assert.Equal(t, 33.0, median)
}

func TestStore_IngestSnapshot(t *testing.T) {
	s := NewStore(30)

	s.IngestSnapshot(contracts.DailySnapshot{
		CountryCode: "UA",
		Date:        day(1),
		EventCount:  1000,
		R1:          120,
		R2:          40,
		R3:          85,
		R4:          10,
	})

	median, _ := s.RollingMedian("UA", contracts.SignalEvent, day(2), 5)
	assert.Equal(t, 1000.0, median)
	median, _ = s.RollingMedian("UA", contracts.SignalR3, day(2), 5)
	assert.Equal(t, 85.0, median)
}

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewStore(30)
	for i := 1; i <= 3; i++ {
		s.Append("UA", day(i), contracts.SignalR1, float64(i*10))
	}
	require.NoError(t, s.Save(path))

	restored := NewStore(30)
	require.NoError(t, restored.Load(path))

	assert.Equal(t, 3, restored.Len("UA", contracts.SignalR1))
	median, historyDays := restored.RollingMedian("UA", contracts.SignalR1, day(4), 5)
	assert.Equal(t, 20.0, median)
	assert.Equal(t, 3, historyDays)
}

func TestStore_Load_MissingFileIsFreshStart(t *testing.T) {
	s := NewStore(30)
	require.NoError(t, s.Load(filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, 0, s.Len("UA", contracts.SignalR1))
}

func TestStore_Load_ResortsUnorderedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	// A hand-merged snapshot file may not be date-ordered
	unordered := `{
		"version": "1.0",
		"saved_at": "2026-08-10T00:00:00Z",
		"series": {
			"UA|R1": [
				{"date": "2026-08-03T00:00:00Z", "value": 30},
				{"date": "2026-08-01T00:00:00Z", "value": 10},
				{"date": "2026-08-02T00:00:00Z", "value": 20}
			]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(unordered), 0o644))

	restored := NewStore(30)
	require.NoError(t, restored.Load(path))

	// Trailing window of 2 before day 4 must pick days 2 and 3
	median, historyDays := restored.RollingMedian("UA", contracts.SignalR1, day(4), 2)
	assert.Equal(t, 25.0, median)
	assert.Equal(t, 2, historyDays)

	// Retention trims by date, not file order
	trimmed := NewStore(2)
	require.NoError(t, trimmed.Load(path))
	median, historyDays = trimmed.RollingMedian("UA", contracts.SignalR1, day(4), 30)
	assert.Equal(t, 25.0, median)
	assert.Equal(t, 2, historyDays)
}

func TestStore_Load_TrimsToRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := NewStore(30)
	for i := 1; i <= 10; i++ {
		s.Append("UA", day(i), contracts.SignalR1, float64(i))
	}
	require.NoError(t, s.Save(path))

	restored := NewStore(4)
	require.NoError(t, restored.Load(path))
	assert.Equal(t, 4, restored.Len("UA", contracts.SignalR1))
}
