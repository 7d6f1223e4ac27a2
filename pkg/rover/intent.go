package rover

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCommand is returned when a command name or kind does not map to
// a known movement intent. Invalid commands are rejected at ingestion and
// never reach the queue.
var ErrInvalidCommand = errors.New("rover: invalid command")

// Kind identifies a movement intent. The set is closed: the kinematics table
// and the dispatch switch are keyed on it, so an unknown kind is rejected
// before it can reach the motors.
type Kind int

const (
	Forward Kind = iota
	Backward
	TurnLeft
	TurnRight
	StrafeLeft
	StrafeRight
	ForwardLeft
	ForwardRight
	BackwardLeft
	BackwardRight
	Stop
	SetSpeedSlow
	SetSpeedNormal
	SetSpeedFast
	EmergencyStop

	numKinds
)

// kindNames carries the wire vocabulary external collaborators use.
var kindNames = [numKinds]string{
	Forward:        "forward",
	Backward:       "backward",
	TurnLeft:       "turn_left",
	TurnRight:      "turn_right",
	StrafeLeft:     "strafe_left",
	StrafeRight:    "strafe_right",
	ForwardLeft:    "forward_left",
	ForwardRight:   "forward_right",
	BackwardLeft:   "backward_left",
	BackwardRight:  "backward_right",
	Stop:           "stop",
	SetSpeedSlow:   "speed_slow",
	SetSpeedNormal: "speed_normal",
	SetSpeedFast:   "speed_fast",
	EmergencyStop:  "emergency_stop",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a known intent kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// IsMovement reports whether k commands wheel motion (including Stop, which
// commands the zero vector).
func (k Kind) IsMovement() bool {
	switch k {
	case SetSpeedSlow, SetSpeedNormal, SetSpeedFast, EmergencyStop:
		return false
	}
	return k.Valid()
}

// AllowedInLockout reports whether k may execute while the safety interlock
// is not armed. Only commands that drive the motors to zero qualify.
func (k Kind) AllowedInLockout() bool {
	return k == Stop || k == EmergencyStop
}

// SpeedPreset returns the PWM preset selected by a speed intent,
// and whether k is one.
func (k Kind) SpeedPreset() (int, bool) {
	switch k {
	case SetSpeedSlow:
		return SpeedSlowPWM, true
	case SetSpeedNormal:
		return SpeedNormalPWM, true
	case SetSpeedFast:
		return SpeedFastPWM, true
	}
	return 0, false
}

// ParseKind maps a wire command name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, ErrInvalidCommand
}

// Intent is one movement command. It is created by an external producer,
// consumed at most once by the motion supervisor, and never mutated after
// creation.
type Intent struct {
	ID         uuid.UUID
	Kind       Kind
	Speed      int           // 0..MaxSpeedPWM; 0 means the current preset
	Duration   time.Duration // auto-stop deadline; 0 means the default timeout
	Continuous bool          // no auto-stop, ends on explicit stop or interlock
	CreatedAt  time.Time
}

// NewIntent builds an intent with a fresh id and creation timestamp.
// Speed outside [0, MaxSpeedPWM] is clamped.
func NewIntent(kind Kind, speed int) Intent {
	if speed < 0 {
		speed = 0
	}
	if speed > MaxSpeedPWM {
		speed = MaxSpeedPWM
	}
	return Intent{
		ID:        uuid.New(),
		Kind:      kind,
		Speed:     speed,
		CreatedAt: time.Now(),
	}
}
