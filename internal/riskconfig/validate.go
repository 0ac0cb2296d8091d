package riskconfig

import (
	"fmt"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// ValidationError is a config constraint violation. Fatal at load time.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints on a loaded config
func Validate(cfg *Config) error {
	if cfg.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Scoring ===
	s := cfg.Scoring
	if s.EventCountFloor < 0 {
		return ValidationError{"scoring.event_count_floor", "must be >= 0"}
	}
	if s.MinScoredCountries < 1 {
		return ValidationError{"scoring.min_scored_countries", "must be >= 1"}
	}

	for _, t := range contracts.CategoryTypes {
		g := s.Types.For(t)
		field := fmt.Sprintf("scoring.types.%s", t)
		if g.AbsoluteThreshold <= 0 {
			return ValidationError{field + ".absolute_threshold", "must be > 0"}
		}
		if g.RatioThreshold <= 0 || g.RatioThreshold > 1 {
			return ValidationError{field + ".ratio_threshold", "must be in (0, 1]"}
		}
		if g.UseJumpGate {
			if g.JumpThreshold < 1 {
				return ValidationError{field + ".jump_threshold", "must be >= 1"}
			}
			if g.MinHistoryDays < 1 {
				return ValidationError{field + ".min_history_days", "must be >= 1"}
			}
			if g.MinHistoryDays > cfg.History.WindowDays {
				return ValidationError{field + ".min_history_days", "exceeds history.window_days"}
			}
			if g.MinMedianFloor < 0 {
				return ValidationError{field + ".min_median_floor", "must be >= 0"}
			}
		}
		if g.BaselineRef <= 0 {
			return ValidationError{field + ".baseline_ref", "must be > 0"}
		}
	}

	if s.Volume.Threshold <= 0 {
		return ValidationError{"scoring.volume.threshold", "must be > 0"}
	}
	if s.Volume.Jump < 1 {
		return ValidationError{"scoring.volume.jump", "must be >= 1"}
	}
	if s.Volume.MinHistoryDays > cfg.History.WindowDays {
		return ValidationError{"scoring.volume.min_history_days", "exceeds history.window_days"}
	}

	if s.Tone.BadThreshold > s.Tone.MildThreshold {
		return ValidationError{"scoring.tone", "bad_threshold must be <= mild_threshold"}
	}

	al := s.AlertLevels
	if al.YellowMinBundles < 1 {
		return ValidationError{"scoring.alert_levels.yellow_min_bundles", "must be >= 1"}
	}
	if al.OrangeBundles <= al.YellowMinBundles {
		return ValidationError{"scoring.alert_levels.orange_bundles", "must be > yellow_min_bundles"}
	}
	if al.RedBundles <= al.OrangeBundles {
		return ValidationError{"scoring.alert_levels.red_bundles", "must be > orange_bundles"}
	}

	// === Weekly ===
	w := cfg.Weekly
	th := w.Thresholds
	if th.Yellow <= 1 {
		return ValidationError{"weekly.thresholds.yellow", "must be > 1"}
	}
	if th.Orange <= th.Yellow {
		return ValidationError{"weekly.thresholds.orange", "must be > yellow"}
	}
	if th.Red <= th.Orange {
		return ValidationError{"weekly.thresholds.red", "must be > orange"}
	}
	if w.SmoothingK <= 0 {
		return ValidationError{"weekly.smoothing_k", "must be > 0"}
	}
	if w.RatioThreshold <= 0 || w.RatioThreshold > 1 {
		return ValidationError{"weekly.ratio_threshold", "must be in (0, 1]"}
	}
	if w.HighVolumeFloor <= 0 {
		return ValidationError{"weekly.high_volume_floor", "must be > 0"}
	}
	if len(w.BaselineTiers) == 0 {
		return ValidationError{"weekly.baseline_tiers", "at least one tier required"}
	}
	last := len(w.BaselineTiers) - 1
	for i, tier := range w.BaselineTiers {
		field := fmt.Sprintf("weekly.baseline_tiers[%d]", i)
		if tier.MinMedian < 0 {
			return ValidationError{field + ".min_median", "must be >= 0"}
		}
		if i < last && tier.MaxEventCount7 <= 0 {
			return ValidationError{field + ".max_event_count7", "only the last tier may be open-ended"}
		}
		if i > 0 && tier.MaxEventCount7 != 0 && tier.MaxEventCount7 <= w.BaselineTiers[i-1].MaxEventCount7 {
			return ValidationError{field + ".max_event_count7", "tiers must be ascending"}
		}
	}
	if w.BaselineTiers[last].MaxEventCount7 != 0 {
		return ValidationError{"weekly.baseline_tiers", "last tier must be open-ended (max_event_count7: 0)"}
	}
	for _, t := range contracts.CategoryTypes {
		g := w.Gating.For(t)
		field := fmt.Sprintf("weekly.gating.%s", t)
		if g.Floor < 0 {
			return ValidationError{field + ".floor", "must be >= 0"}
		}
		if g.ShareFloor < 0 || g.ShareFloor > 1 {
			return ValidationError{field + ".share_floor", "must be in [0, 1]"}
		}
	}
	if w.RetentionWeeks < 1 {
		return ValidationError{"weekly.retention_weeks", "must be >= 1"}
	}

	// === History ===
	h := cfg.History
	if h.WindowDays < 1 {
		return ValidationError{"history.window_days", "must be >= 1"}
	}
	if h.RetentionDays < h.WindowDays {
		return ValidationError{"history.retention_days", "must cover history.window_days"}
	}

	return nil
}
