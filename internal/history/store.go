// Package history holds the bounded in-memory time series of daily
// per-country counts backing the rolling-median jump checks. The store is
// an explicit instance with a documented lifecycle: created at run start,
// loaded from a snapshot file, mutated only by snapshot ingestion, saved
// at run end.
package history

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// Point is one (date, value) observation in a country's series
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Store keeps trailing per-(country, metric) series, bounded to the most
// recent retentionDays entries. Single writer per run; reads observe a
// consistent snapshot under the read lock.
type Store struct {
	mu            sync.RWMutex
	series        map[string][]Point
	retentionDays int
}

// NewStore creates an empty store retaining retentionDays entries per
// series. Retention must cover every window evaluators query.
func NewStore(retentionDays int) *Store {
	return &Store{
		series:        make(map[string][]Point),
		retentionDays: retentionDays,
	}
}

// Append records a value for a country, date and metric. A same-date
// append overwrites (reprocessing a day is idempotent); out-of-order
// backfill re-sorts so recency follows dates, not insertion order.
func (s *Store) Append(country string, date time.Time, metric contracts.SignalType, value float64) {
	day := truncateDay(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	k := seriesKey(country, metric)
	points := s.series[k]

	replaced := false
	for i := range points {
		if points[i].Date.Equal(day) {
			points[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		points = append(points, Point{Date: day, Value: value})
		sort.Slice(points, func(i, j int) bool {
			return points[i].Date.Before(points[j].Date)
		})
	}

	// FIFO eviction: keep only the newest retentionDays entries
	if len(points) > s.retentionDays {
		points = points[len(points)-s.retentionDays:]
	}

	s.series[k] = points
}

// RollingMedian returns the median over the most recent windowDays
// observations strictly before the given date, and how many days of the
// window actually had data. Callers apply their fallback policy when
// historyDays is below their minimum.
func (s *Store) RollingMedian(country string, metric contracts.SignalType, before time.Time, windowDays int) (float64, int) {
	day := truncateDay(before)

	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[seriesKey(country, metric)]

	// Series is sorted by date; take the trailing windowDays entries
	// that predate the query day.
	end := len(points)
	for end > 0 && !points[end-1].Date.Before(day) {
		end--
	}
	start := end - windowDays
	if start < 0 {
		start = 0
	}
	window := points[start:end]

	if len(window) == 0 {
		return 0, 0
	}

	values := make([]float64, len(window))
	for i, p := range window {
		values[i] = p.Value
	}
	sort.Float64s(values)

	n := len(values)
	var median float64
	if n%2 == 1 {
		median = values[n/2]
	} else {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return median, n
}

// Len returns the number of stored points for a country and metric
func (s *Store) Len(country string, metric contracts.SignalType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[seriesKey(country, metric)])
}

// IngestSnapshot appends every metric of a daily snapshot. This is the
// only mutation path the engine uses.
func (s *Store) IngestSnapshot(snap contracts.DailySnapshot) {
	for _, t := range contracts.AllTypes {
		s.Append(snap.CountryCode, snap.Date, t, float64(snap.Count(t)))
	}
}

func seriesKey(country string, metric contracts.SignalType) string {
	return fmt.Sprintf("%s|%s", country, metric)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
