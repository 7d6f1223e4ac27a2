// Package safety owns the rover's safety interlock: the tilt/battery
// monitor loop, the Armed/Lockout/EmergencyStop state machine, and the
// manual recovery path. Nothing else in the system may transition the
// interlock state.
package safety

import "time"

// State is the global interlock state.
type State int

const (
	// Armed permits motion.
	Armed State = iota

	// Lockout forcibly zeroes actuation until recovery succeeds.
	Lockout

	// EmergencyStop is the highest-priority lockout, entered on an explicit
	// emergency command or trigger. It pre-empts Lockout.
	EmergencyStop
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Lockout:
		return "lockout"
	case EmergencyStop:
		return "emergency_stop"
	}
	return "unknown"
}

// Lockout reasons surfaced in status snapshots.
const (
	ReasonTilt            = "tilt"
	ReasonBatteryCritical = "battery_critical"
	ReasonManual          = "manual_emergency_stop"
)

// Orientation is one calibrated attitude sample, in degrees.
type Orientation struct {
	Roll      float64
	Pitch     float64
	Yaw       float64
	SampledAt time.Time
}

// Snapshot is a consistent view of the safety subsystem for status queries.
type Snapshot struct {
	State     State
	Reason    string
	EnteredAt time.Time

	Orientation     Orientation
	MaxTiltDetected float64
	SafeStreak      int
	SinceLastSafe   time.Duration

	BatteryVoltage float64
	Calibrated     bool

	// Thresholds, so status consumers can render limits without
	// duplicating configuration.
	TiltThreshold   float64
	BatteryLow      float64
	BatteryCritical float64
}
