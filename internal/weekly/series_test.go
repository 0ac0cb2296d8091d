package weekly

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

func rec(country, weekID string, t contracts.SignalType, ratio7 float64) contracts.WeeklyTypeRecord {
	return contracts.WeeklyTypeRecord{
		WeekID:      weekID,
		CountryCode: country,
		Type:        t,
		Ratio7:      ratio7,
		UpdatedAt:   time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
	}
}

func TestSeries_UpsertIsIdempotent(t *testing.T) {
	s := NewSeries(260)

	batch := []contracts.WeeklyTypeRecord{
		rec("UA", "2026-W35", contracts.SignalR1, 2.1),
		rec("UA", "2026-W35", contracts.SignalR2, 1.3),
	}
	s.Upsert(batch)
	s.Upsert(batch) // re-running a week must not duplicate

	got := s.ByCountry("UA")
	require.Len(t, got, 2)
	assert.Equal(t, batch[0], got[0])
	assert.Equal(t, batch[1], got[1])
}

func TestSeries_OverwriteByWeekAndType(t *testing.T) {
	s := NewSeries(260)

	s.Upsert([]contracts.WeeklyTypeRecord{rec("UA", "2026-W35", contracts.SignalR1, 2.1)})
	s.Upsert([]contracts.WeeklyTypeRecord{rec("UA", "2026-W35", contracts.SignalR1, 3.4)})

	got := s.ByCountry("UA")
	require.Len(t, got, 1)
	assert.InDelta(t, 3.4, got[0].Ratio7, 1e-9)
}

func TestSeries_SortedByWeekThenType(t *testing.T) {
	s := NewSeries(260)

	s.Upsert([]contracts.WeeklyTypeRecord{
		rec("UA", "2026-W35", contracts.SignalR2, 1.0),
		rec("UA", "2026-W09", contracts.SignalR1, 1.0),
		rec("UA", "2026-W35", contracts.SignalR1, 1.0),
	})

	got := s.ByCountry("UA")
	require.Len(t, got, 3)
	assert.Equal(t, "2026-W09", got[0].WeekID)
	assert.Equal(t, "2026-W35", got[1].WeekID)
	assert.Equal(t, contracts.SignalR1, got[1].Type)
	assert.Equal(t, contracts.SignalR2, got[2].Type)
}

func TestSeries_RetentionDropsOldestWeeks(t *testing.T) {
	s := NewSeries(2)

	s.Upsert([]contracts.WeeklyTypeRecord{
		rec("UA", "2026-W33", contracts.SignalR1, 1.0),
		rec("UA", "2026-W34", contracts.SignalR1, 1.0),
		rec("UA", "2026-W35", contracts.SignalR1, 1.0),
	})

	got := s.ByCountry("UA")
	require.Len(t, got, 2)
	assert.Equal(t, "2026-W34", got[0].WeekID)
	assert.Equal(t, "2026-W35", got[1].WeekID)
}

func TestSeries_WeekLookup(t *testing.T) {
	s := NewSeries(260)

	s.Upsert([]contracts.WeeklyTypeRecord{
		rec("UA", "2026-W35", contracts.SignalR1, 2.1),
		rec("UA", "2026-W35", contracts.SignalR2, 1.3),
		rec("UA", "2026-W34", contracts.SignalR1, 0.9),
	})

	week := s.Week("UA", "2026-W35")
	require.Len(t, week, 2)
	assert.InDelta(t, 2.1, week[contracts.SignalR1].Ratio7, 1e-9)

	assert.Empty(t, s.Week("UA", "2026-W01"))
	assert.Empty(t, s.Week("XX", "2026-W35"))
}

func TestSeries_Countries(t *testing.T) {
	s := NewSeries(260)

	s.Upsert([]contracts.WeeklyTypeRecord{
		rec("UA", "2026-W35", contracts.SignalR1, 1.0),
		rec("AF", "2026-W35", contracts.SignalR1, 1.0),
	})

	assert.Equal(t, []string{"AF", "UA"}, s.Countries())
}

func TestSeries_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")

	s := NewSeries(260)
	s.Upsert([]contracts.WeeklyTypeRecord{
		rec("UA", "2026-W34", contracts.SignalR1, 0.9),
		rec("UA", "2026-W35", contracts.SignalR1, 2.1),
	})
	require.NoError(t, s.Save(path))

	loaded := NewSeries(260)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, s.ByCountry("UA"), loaded.ByCountry("UA"))
}

func TestSeries_LoadMissingFileIsFreshStart(t *testing.T) {
	s := NewSeries(260)
	require.NoError(t, s.Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Empty(t, s.Countries())
}

func TestSeries_LoadEnforcesRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")

	s := NewSeries(260)
	s.Upsert([]contracts.WeeklyTypeRecord{
		rec("UA", "2026-W33", contracts.SignalR1, 1.0),
		rec("UA", "2026-W34", contracts.SignalR1, 1.0),
		rec("UA", "2026-W35", contracts.SignalR1, 1.0),
	})
	require.NoError(t, s.Save(path))

	loaded := NewSeries(1)
	require.NoError(t, loaded.Load(path))

	got := loaded.ByCountry("UA")
	require.Len(t, got, 1)
	assert.Equal(t, "2026-W35", got[0].WeekID)
}
