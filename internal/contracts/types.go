package contracts

import (
	"fmt"
	"time"
)

// SignalType identifies one scored signal stream for a country.
// The set is fixed; per-type thresholds live in riskconfig.
type SignalType string

const (
	SignalEvent SignalType = "EVENT" // total daily event volume
	SignalR1    SignalType = "R1"    // security / armed conflict
	SignalR2    SignalType = "R2"    // living conditions / economy
	SignalR3    SignalType = "R3"    // governance / political process
	SignalR4    SignalType = "R4"    // information / society
)

// CategoryTypes lists the four category signals evaluated by the jump gate,
// in evaluation order.
var CategoryTypes = []SignalType{SignalR1, SignalR2, SignalR3, SignalR4}

// AllTypes lists every signal type including total volume.
var AllTypes = []SignalType{SignalEvent, SignalR1, SignalR2, SignalR3, SignalR4}

// IsSecurityClass reports whether the type belongs to the security/governance
// class that the external-pressure override can suppress.
func (t SignalType) IsSecurityClass() bool {
	return t == SignalR1 || t == SignalR3
}

// Valid reports whether t is a known signal type
func (t SignalType) Valid() bool {
	switch t {
	case SignalEvent, SignalR1, SignalR2, SignalR3, SignalR4:
		return true
	}
	return false
}

// AlertLevel is the four-step alert color for a country
type AlertLevel string

const (
	LevelGreen  AlertLevel = "green"
	LevelYellow AlertLevel = "yellow"
	LevelOrange AlertLevel = "orange"
	LevelRed    AlertLevel = "red"
)

// Rank returns the ordering of a level: green < yellow < orange < red
func (l AlertLevel) Rank() int {
	switch l {
	case LevelYellow:
		return 1
	case LevelOrange:
		return 2
	case LevelRed:
		return 3
	default:
		return 0
	}
}

// MaxLevel returns the higher of two alert levels
func MaxLevel(a, b AlertLevel) AlertLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// SkipReason annotates a jump-gate decision. Fail-open triggers carry
// low_history/low_median; suppressed signals carry the suppression cause.
type SkipReason string

const (
	ReasonNone             SkipReason = ""
	ReasonLowHistory       SkipReason = "low_history"
	ReasonLowMedian        SkipReason = "low_median"
	ReasonGateSuppressed   SkipReason = "gate_suppressed"
	ReasonExternalPressure SkipReason = "external_pressure_suppressed"
)

// GateReason is the single canonical reason a weekly signal type is not
// active. Empty means the type passed all weekly gates.
type GateReason string

const (
	GateActive         GateReason = ""
	GateHighVolume     GateReason = "high-vol"
	GateLowShare       GateReason = "low-share"
	GateLowAbsolute    GateReason = "low-abs"
	GateLowBaseline    GateReason = "low-baseline"
	GateBelowThreshold GateReason = "below-threshold"
)

// WeekID formats a date as its ISO week identifier, e.g. "2026-W35".
// Weekly records for the same week collapse onto one ID regardless of
// which day of the week a run happens.
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
