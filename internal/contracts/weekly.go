package contracts

import "time"

// WeeklyTypeRecord is the weekly surge verdict for one country, week and
// signal type. The series is append-only, merged by week ID with
// overwrite-on-conflict so re-running a week replaces its record.
type WeeklyTypeRecord struct {
	WeekID      string     `json:"week_id"`
	CountryCode string     `json:"country_code"`
	Type        SignalType `json:"type"`
	Today7      int        `json:"today7"`
	Baseline7   float64    `json:"baseline7"`
	Ratio7      float64    `json:"ratio7"`
	Share7      float64    `json:"share7"`
	EventCount7 int        `json:"event_count7"`
	IsActive    bool       `json:"is_active"`
	Reason      GateReason `json:"reason,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WeeklyAggregate rolls one country/week's type records into a level.
// Invariant: ActiveTypes = {t : record[t].IsActive}, Level = highest color
// among active types' ratios.
type WeeklyAggregate struct {
	WeekID         string       `json:"week_id"`
	CountryCode    string       `json:"country_code"`
	Level          AlertLevel   `json:"level"`
	MaxRatioActive float64      `json:"max_ratio_active"`
	ActiveTypes    []SignalType `json:"active_types"`
}

// HasActiveType reports whether t is in the aggregate's active set
func (a *WeeklyAggregate) HasActiveType(t SignalType) bool {
	for _, at := range a.ActiveTypes {
		if at == t {
			return true
		}
	}
	return false
}
