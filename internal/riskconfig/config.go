package riskconfig

import (
	"github.com/halcyonlabs/georadar/internal/contracts"
)

// Config is the full threshold configuration for the scoring engine.
// Loaded and validated once per run; evaluators receive the validated
// struct and never re-derive defaults inline.
type Config struct {
	Meta    Meta    `yaml:"meta" json:"meta"`
	Scoring Scoring `yaml:"scoring" json:"scoring"`
	Weekly  Weekly  `yaml:"weekly" json:"weekly"`
	History History `yaml:"history" json:"history"`
}

// Meta identifies the threshold profile
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Scoring holds the daily bundle/level thresholds
type Scoring struct {
	// Countries below this daily event count are scored green/0
	// unconditionally: too little volume to trust any ratio.
	EventCountFloor int `yaml:"event_count_floor" json:"event_count_floor"`

	// Minimum scored countries per run; fewer aborts publication.
	MinScoredCountries int `yaml:"min_scored_countries" json:"min_scored_countries"`

	Types       TypeGates   `yaml:"types" json:"types"`
	Volume      VolumeGate  `yaml:"volume" json:"volume"`
	Tone        Tone        `yaml:"tone" json:"tone"`
	AlertLevels AlertLevels `yaml:"alert_levels" json:"alert_levels"`
}

// TypeGate holds one category signal's jump-gate parameters
type TypeGate struct {
	AbsoluteThreshold int     `yaml:"absolute_threshold" json:"absolute_threshold"`
	RatioThreshold    float64 `yaml:"ratio_threshold" json:"ratio_threshold"`
	UseJumpGate       bool    `yaml:"use_jump_gate" json:"use_jump_gate"`
	JumpThreshold     float64 `yaml:"jump_threshold" json:"jump_threshold"`
	MinHistoryDays    int     `yaml:"min_history_days" json:"min_history_days"`
	MinMedianFloor    float64 `yaml:"min_median_floor" json:"min_median_floor"`

	// Reference daily median for the surge display view; baselines above
	// it dampen the score, never amplify.
	BaselineRef float64 `yaml:"baseline_ref" json:"baseline_ref"`
}

// TypeGates is the fixed per-category gate table. A struct rather than a
// map keeps lookups enumerated and hash-stable.
type TypeGates struct {
	R1 TypeGate `yaml:"r1" json:"r1"`
	R2 TypeGate `yaml:"r2" json:"r2"`
	R3 TypeGate `yaml:"r3" json:"r3"`
	R4 TypeGate `yaml:"r4" json:"r4"`
}

// For returns the gate parameters for a category signal type
func (g *TypeGates) For(t contracts.SignalType) TypeGate {
	switch t {
	case contracts.SignalR1:
		return g.R1
	case contracts.SignalR2:
		return g.R2
	case contracts.SignalR3:
		return g.R3
	case contracts.SignalR4:
		return g.R4
	}
	return TypeGate{}
}

// VolumeGate holds the total-volume jump parameters
type VolumeGate struct {
	Threshold int     `yaml:"threshold" json:"threshold"`
	Jump      float64 `yaml:"jump" json:"jump"`

	// Shares the category gates' history requirements
	MinHistoryDays int     `yaml:"min_history_days" json:"min_history_days"`
	MinMedianFloor float64 `yaml:"min_median_floor" json:"min_median_floor"`
	BaselineRef    float64 `yaml:"baseline_ref" json:"baseline_ref"`
}

// Tone holds the avg-tone modifier thresholds. Tone never creates a
// bundle; it only unlocks yellow for single-bundle days.
type Tone struct {
	BadThreshold  float64 `yaml:"bad_threshold" json:"bad_threshold"`
	MildThreshold float64 `yaml:"mild_threshold" json:"mild_threshold"`
}

// AlertLevels maps bundle counts onto colors
type AlertLevels struct {
	RedBundles       int `yaml:"red_bundles" json:"red_bundles"`
	OrangeBundles    int `yaml:"orange_bundles" json:"orange_bundles"`
	YellowMinBundles int `yaml:"yellow_min_bundles" json:"yellow_min_bundles"`
}

// Weekly holds the 7-day surge-ratio parameters
type Weekly struct {
	Thresholds SurgeThresholds `yaml:"thresholds" json:"thresholds"`

	// Smoothing constant k in (today7+k)/(baseline7+k)
	SmoothingK float64 `yaml:"smoothing_k" json:"smoothing_k"`

	// Share of weekly total a type must reach for a ratio-share hit
	RatioThreshold float64 `yaml:"ratio_threshold" json:"ratio_threshold"`

	// At or above this weekly event count, absolute hits alone are
	// suppressed (noisy high-volume countries).
	HighVolumeFloor int `yaml:"high_volume_floor" json:"high_volume_floor"`

	Gating        WeeklyGates    `yaml:"gating" json:"gating"`
	BaselineTiers []BaselineTier `yaml:"baseline_tiers" json:"baseline_tiers"`

	RetentionWeeks int `yaml:"retention_weeks" json:"retention_weeks"`
}

// SurgeThresholds are the ratio7 color cut points
type SurgeThresholds struct {
	Yellow float64 `yaml:"yellow" json:"yellow"`
	Orange float64 `yaml:"orange" json:"orange"`
	Red    float64 `yaml:"red" json:"red"`
}

// WeeklyGate holds one category's low-absolute gating floors
type WeeklyGate struct {
	Floor      int     `yaml:"floor" json:"floor"`
	ShareFloor float64 `yaml:"share_floor" json:"share_floor"`
}

// WeeklyGates is the fixed per-category weekly gate table
type WeeklyGates struct {
	R1 WeeklyGate `yaml:"r1" json:"r1"`
	R2 WeeklyGate `yaml:"r2" json:"r2"`
	R3 WeeklyGate `yaml:"r3" json:"r3"`
	R4 WeeklyGate `yaml:"r4" json:"r4"`
}

// For returns the weekly gate for a category signal type
func (g *WeeklyGates) For(t contracts.SignalType) WeeklyGate {
	switch t {
	case contracts.SignalR1:
		return g.R1
	case contracts.SignalR2:
		return g.R2
	case contracts.SignalR3:
		return g.R3
	case contracts.SignalR4:
		return g.R4
	}
	return WeeklyGate{}
}

// BaselineTier sets the minimum daily baseline median required for a
// stable week, scaled by weekly volume. Tiers are matched in order;
// the first tier whose MaxEventCount7 covers the week applies.
// MaxEventCount7 == 0 marks the open-ended top tier.
type BaselineTier struct {
	MaxEventCount7 int     `yaml:"max_event_count7" json:"max_event_count7"`
	MinMedian      float64 `yaml:"min_median" json:"min_median"`
}

// History holds rolling-history bounds
type History struct {
	// Days of per-country history kept in memory; must cover every
	// evaluator window.
	RetentionDays int `yaml:"retention_days" json:"retention_days"`

	// Trailing window used for rolling-median jump checks
	WindowDays int `yaml:"window_days" json:"window_days"`
}

// MinBaselineFor returns the stability floor for a weekly volume
func (w *Weekly) MinBaselineFor(eventCount7 int) float64 {
	for _, tier := range w.BaselineTiers {
		if tier.MaxEventCount7 == 0 || eventCount7 <= tier.MaxEventCount7 {
			return tier.MinMedian
		}
	}
	return 0
}

// Default returns the full configuration with every default centralized
// in one place. Load() layers file values on top of this.
func Default() *Config {
	return &Config{
		Meta: Meta{
			ProfileID: "georadar_default",
			Version:   "1",
		},
		Scoring: Scoring{
			EventCountFloor:    100,
			MinScoredCountries: 200,
			Types: TypeGates{
				R1: TypeGate{AbsoluteThreshold: 250, RatioThreshold: 0.35, UseJumpGate: true, JumpThreshold: 1.8, MinHistoryDays: 7, MinMedianFloor: 5, BaselineRef: 60},
				R2: TypeGate{AbsoluteThreshold: 200, RatioThreshold: 0.30, UseJumpGate: true, JumpThreshold: 1.8, MinHistoryDays: 7, MinMedianFloor: 5, BaselineRef: 50},
				R3: TypeGate{AbsoluteThreshold: 220, RatioThreshold: 0.30, UseJumpGate: true, JumpThreshold: 1.7, MinHistoryDays: 7, MinMedianFloor: 5, BaselineRef: 55},
				R4: TypeGate{AbsoluteThreshold: 180, RatioThreshold: 0.25, UseJumpGate: false, JumpThreshold: 1.6, MinHistoryDays: 7, MinMedianFloor: 5, BaselineRef: 45},
			},
			Volume: VolumeGate{
				Threshold:      1500,
				Jump:           1.8,
				MinHistoryDays: 7,
				MinMedianFloor: 10,
				BaselineRef:    400,
			},
			Tone: Tone{
				BadThreshold:  -6.0,
				MildThreshold: -4.0,
			},
			AlertLevels: AlertLevels{
				RedBundles:       3,
				OrangeBundles:    2,
				YellowMinBundles: 1,
			},
		},
		Weekly: Weekly{
			Thresholds: SurgeThresholds{
				Yellow: 1.75,
				Orange: 2.75,
				Red:    3.75,
			},
			SmoothingK:      5,
			RatioThreshold:  0.25,
			HighVolumeFloor: 7000,
			Gating: WeeklyGates{
				R1: WeeklyGate{Floor: 60, ShareFloor: 0.02},
				R2: WeeklyGate{Floor: 50, ShareFloor: 0.02},
				R3: WeeklyGate{Floor: 55, ShareFloor: 0.02},
				R4: WeeklyGate{Floor: 40, ShareFloor: 0.015},
			},
			BaselineTiers: []BaselineTier{
				{MaxEventCount7: 700, MinMedian: 1},
				{MaxEventCount7: 3500, MinMedian: 3},
				{MaxEventCount7: 0, MinMedian: 8},
			},
			RetentionWeeks: 260,
		},
		History: History{
			RetentionDays: 30,
			WindowDays:    14,
		},
	}
}
