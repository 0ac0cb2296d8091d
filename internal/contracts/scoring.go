package contracts

import "time"

// SignalEvaluation is the jump-gate verdict for one signal type on one day.
// Derived, recomputed each run, never persisted on its own.
type SignalEvaluation struct {
	Type          SignalType `json:"type"`
	RawValue      int        `json:"raw_value"`
	RatioOfTotal  float64    `json:"ratio_of_total"`
	Triggered     bool       `json:"triggered"`
	JumpRatio     float64    `json:"jump_ratio"`
	RollingMedian float64    `json:"rolling_median"`
	Reason        SkipReason `json:"skip_reason,omitempty"`
}

// ViewScores carries the three parallel 0-10 display scales for one
// signal type. Each view is a pure function of stored raw fields.
type ViewScores struct {
	Raw    float64 `json:"raw"`
	Surge  float64 `json:"surge"`
	SurgeR float64 `json:"surge_r"`
}

// ScoringResult is the engine's daily verdict for one country.
// Immutable once computed; re-running a date overwrites cleanly.
type ScoringResult struct {
	CountryCode           string                    `json:"country_code"`
	Date                  time.Time                 `json:"date"`
	Level                 AlertLevel                `json:"level"`
	BundleCount           int                       `json:"bundle_count"`
	CompositeScore        float64                   `json:"composite_score"`
	Signals               []SignalEvaluation        `json:"signals"`
	ExternalPressureNoise bool                      `json:"external_pressure_noise"`
	Scores                map[SignalType]ViewScores `json:"scores"`
}

// Signal returns the evaluation for a type, if present
func (r *ScoringResult) Signal(t SignalType) (SignalEvaluation, bool) {
	for _, s := range r.Signals {
		if s.Type == t {
			return s, true
		}
	}
	return SignalEvaluation{}, false
}

// TriggeredTypes returns the types that contributed a bundle
func (r *ScoringResult) TriggeredTypes() []SignalType {
	var types []SignalType
	for _, s := range r.Signals {
		if s.Triggered {
			types = append(types, s.Type)
		}
	}
	return types
}
