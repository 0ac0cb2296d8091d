package baseline

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

func TestProvider_Resolve_FallbackChain(t *testing.T) {
	calmest := []contracts.BaselineRecord{
		{CountryCode: "UA", Type: contracts.SignalR1, Median: 40, Avg: 44, DaysCounted: 90},
	}
	long := []contracts.BaselineRecord{
		{CountryCode: "UA", Type: contracts.SignalR1, Median: 120, Avg: 130, DaysCounted: 1095},
		{CountryCode: "UA", Type: contracts.SignalR2, Median: 15, Avg: 18, DaysCounted: 1095},
	}

	p := NewProvider(calmest, long)

	// Calmest window wins when present
	rec := p.Resolve("UA", contracts.SignalR1)
	assert.Equal(t, 40.0, rec.Median)
	assert.Equal(t, contracts.BaselineCalmestWindow, rec.Source)

	// Long window fills the gap
	rec = p.Resolve("UA", contracts.SignalR2)
	assert.Equal(t, 15.0, rec.Median)
	assert.Equal(t, contracts.BaselineLongWindow, rec.Source)

	// Constant default for everything else; never null
	rec = p.Resolve("UA", contracts.SignalR3)
	assert.Equal(t, 1.0, rec.Median)
	assert.Equal(t, contracts.BaselineDefault, rec.Source)

	rec = p.Resolve("ZZ", contracts.SignalEvent)
	assert.Equal(t, 1.0, rec.Median)
	assert.Equal(t, contracts.BaselineDefault, rec.Source)
}

func TestProvider_Resolve_ZeroMedianFallsThrough(t *testing.T) {
	calmest := []contracts.BaselineRecord{
		{CountryCode: "FR", Type: contracts.SignalR1, Median: 0},
	}
	long := []contracts.BaselineRecord{
		{CountryCode: "FR", Type: contracts.SignalR1, Median: 25},
	}

	p := NewProvider(calmest, long)

	rec := p.Resolve("FR", contracts.SignalR1)
	assert.Equal(t, 25.0, rec.Median)
	assert.Equal(t, contracts.BaselineLongWindow, rec.Source)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewWriter(io.Discard)

	longRecords := []contracts.BaselineRecord{
		{CountryCode: "DE", Type: contracts.SignalR1, Median: 30},
		{CountryCode: "", Type: contracts.SignalR2, Median: 10},               // invalid: no country
		{CountryCode: "DE", Type: contracts.SignalType("bogus"), Median: 10}, // invalid: unknown type
	}
	data, err := json.Marshal(longRecords)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long_window.json"), data, 0o644))

	p, err := LoadDir(dir, log)
	require.NoError(t, err)

	calmestCount, longCount := p.Size()
	assert.Equal(t, 0, calmestCount) // file absent, not an error
	assert.Equal(t, 1, longCount)    // invalid records skipped

	rec := p.Resolve("DE", contracts.SignalR1)
	assert.Equal(t, 30.0, rec.Median)
	assert.Equal(t, contracts.BaselineLongWindow, rec.Source)
}

func TestLoadDir_MalformedTable(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewWriter(io.Discard)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "calmest_window.json"), []byte("{not json"), 0o644))

	p, err := LoadDir(dir, log)
	require.NoError(t, err) // degraded, not fatal

	rec := p.Resolve("DE", contracts.SignalR1)
	assert.Equal(t, contracts.BaselineDefault, rec.Source)
}
