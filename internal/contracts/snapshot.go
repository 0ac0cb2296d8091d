package contracts

import "time"

// ExternalPressureCeiling is the domestic-actor share at or below which a
// country's daily volume is treated as foreign-coverage noise.
const ExternalPressureCeiling = 0.20

// DailySnapshot is one country's raw counts for one day as delivered by
// the event feed. Immutable after creation.
type DailySnapshot struct {
	CountryCode   string    `json:"country_code"`
	Date          time.Time `json:"date"`
	EventCount    int       `json:"event_count"`
	AvgTone       float64   `json:"avg_tone"`
	R1            int       `json:"r1"` // security / armed conflict
	R2            int       `json:"r2"` // living conditions / economy
	R3            int       `json:"r3"` // governance / political process
	R4            int       `json:"r4"` // information / society
	DomesticRatio float64   `json:"domestic_ratio"` // share of domestic-actor events, 0..1
}

// Count returns the raw count for a signal type
func (s *DailySnapshot) Count(t SignalType) int {
	switch t {
	case SignalEvent:
		return s.EventCount
	case SignalR1:
		return s.R1
	case SignalR2:
		return s.R2
	case SignalR3:
		return s.R3
	case SignalR4:
		return s.R4
	}
	return 0
}

// ExternalPressureNoise reports whether the day's volume looks dominated by
// foreign-actor coverage. A zero ratio means the feed had no actor data and
// is not treated as noise.
func (s *DailySnapshot) ExternalPressureNoise() bool {
	return s.DomesticRatio > 0 && s.DomesticRatio <= ExternalPressureCeiling
}

// BaselineSourceKind identifies which precomputed table produced a baseline
type BaselineSourceKind string

const (
	BaselineCalmestWindow BaselineSourceKind = "calmest_window"
	BaselineLongWindow    BaselineSourceKind = "long_window"
	BaselineDefault       BaselineSourceKind = "default"
)

// BaselineRecord is a long-run daily median/average for one country and
// signal type. Loaded once per run, read-only afterwards.
type BaselineRecord struct {
	CountryCode string             `json:"country_code"`
	Type        SignalType         `json:"signal_type"`
	Median      float64            `json:"median"`
	Avg         float64            `json:"avg"`
	DaysCounted int                `json:"days_counted"`
	Source      BaselineSourceKind `json:"source"`
}
