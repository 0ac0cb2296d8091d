package baseline

import (
	"fmt"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// Provider resolves long-run baselines from a fallback hierarchy:
// calmest-window table, then long-window table, then a constant default.
// Resolution never fails; absent data only degrades confidence.
type Provider struct {
	calmest map[string]contracts.BaselineRecord
	long    map[string]contracts.BaselineRecord
}

// NewProvider creates a provider over preloaded tables
func NewProvider(calmest, long []contracts.BaselineRecord) *Provider {
	p := &Provider{
		calmest: make(map[string]contracts.BaselineRecord, len(calmest)),
		long:    make(map[string]contracts.BaselineRecord, len(long)),
	}
	for _, rec := range calmest {
		rec.Source = contracts.BaselineCalmestWindow
		p.calmest[key(rec.CountryCode, rec.Type)] = rec
	}
	for _, rec := range long {
		rec.Source = contracts.BaselineLongWindow
		p.long[key(rec.CountryCode, rec.Type)] = rec
	}
	return p
}

// Resolve returns the baseline for a country and signal type.
// Falls back to {Median: 1, Source: default} so every signal type always
// resolves to a non-null baseline.
func (p *Provider) Resolve(country string, t contracts.SignalType) contracts.BaselineRecord {
	k := key(country, t)

	if rec, ok := p.calmest[k]; ok && rec.Median > 0 {
		return rec
	}
	if rec, ok := p.long[k]; ok && rec.Median > 0 {
		return rec
	}

	return contracts.BaselineRecord{
		CountryCode: country,
		Type:        t,
		Median:      1,
		Avg:         1,
		Source:      contracts.BaselineDefault,
	}
}

// Size returns the number of loaded records per table
func (p *Provider) Size() (calmest, long int) {
	return len(p.calmest), len(p.long)
}

func key(country string, t contracts.SignalType) string {
	return fmt.Sprintf("%s|%s", country, t)
}
