package weekly

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// Series keeps per-country weekly type records, merged by (week, type)
// with overwrite-on-conflict so re-running a week replaces its records
// instead of duplicating them. Records stay sorted by week ID and the
// oldest weeks are dropped past the retention bound.
type Series struct {
	mu             sync.RWMutex
	records        map[string][]contracts.WeeklyTypeRecord
	retentionWeeks int
}

// NewSeries creates an empty weekly series retaining retentionWeeks
// distinct weeks per country
func NewSeries(retentionWeeks int) *Series {
	return &Series{
		records:        make(map[string][]contracts.WeeklyTypeRecord),
		retentionWeeks: retentionWeeks,
	}
}

// Upsert merges records into their countries' series. An existing record
// for the same (week, type) is replaced.
func (s *Series) Upsert(recs []contracts.WeeklyTypeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, rec := range recs {
		existing := s.records[rec.CountryCode]

		replaced := false
		for i := range existing {
			if existing[i].WeekID == rec.WeekID && existing[i].Type == rec.Type {
				existing[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}

		s.records[rec.CountryCode] = existing
		touched[rec.CountryCode] = true
	}

	for country := range touched {
		s.normalize(country)
	}
}

// normalize re-sorts a country's records and enforces week retention.
// Week IDs are zero-padded ISO strings, so lexical order is time order.
func (s *Series) normalize(country string) {
	recs := s.records[country]

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].WeekID != recs[j].WeekID {
			return recs[i].WeekID < recs[j].WeekID
		}
		return recs[i].Type < recs[j].Type
	})

	weeks := make([]string, 0)
	seen := make(map[string]bool)
	for _, rec := range recs {
		if !seen[rec.WeekID] {
			seen[rec.WeekID] = true
			weeks = append(weeks, rec.WeekID)
		}
	}

	if len(weeks) > s.retentionWeeks {
		cutoff := weeks[len(weeks)-s.retentionWeeks]
		kept := recs[:0]
		for _, rec := range recs {
			if rec.WeekID >= cutoff {
				kept = append(kept, rec)
			}
		}
		recs = kept
	}

	s.records[country] = recs
}

// ByCountry returns a copy of a country's records, sorted by week then type
func (s *Series) ByCountry(country string) []contracts.WeeklyTypeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[country]
	out := make([]contracts.WeeklyTypeRecord, len(recs))
	copy(out, recs)
	return out
}

// Week returns one country week keyed by signal type, for the surge_r
// display view. Missing weeks return an empty map.
func (s *Series) Week(country, weekID string) map[contracts.SignalType]contracts.WeeklyTypeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[contracts.SignalType]contracts.WeeklyTypeRecord)
	for _, rec := range s.records[country] {
		if rec.WeekID == weekID {
			out[rec.Type] = rec
		}
	}
	return out
}

// Countries returns every country with at least one record
func (s *Series) Countries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.records))
	for country := range s.records {
		out = append(out, country)
	}
	sort.Strings(out)
	return out
}

// seriesFile is the on-disk shape of a weekly series
type seriesFile struct {
	Version string                                  `json:"version"`
	SavedAt time.Time                               `json:"saved_at"`
	Records map[string][]contracts.WeeklyTypeRecord `json:"records"`
}

const seriesVersion = "1.0"

// Save persists the series to path atomically (write to tmp, then rename)
func (s *Series) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data := seriesFile{
		Version: seriesVersion,
		SavedAt: time.Now(),
		Records: s.records,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weekly series: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write weekly series file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename weekly series file: %w", err)
	}

	return nil
}

// Load restores the series from path. A missing file means a fresh
// start. Loaded countries are re-normalized against current retention.
func (s *Series) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tempPath := path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	jsonData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read weekly series file: %w", err)
	}

	var data seriesFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal weekly series file: %w", err)
	}

	if data.Records == nil {
		data.Records = make(map[string][]contracts.WeeklyTypeRecord)
	}
	s.records = data.Records

	for country := range s.records {
		s.normalize(country)
	}

	return nil
}
