// Package kinematics maps movement demands to mecanum wheel outputs.
// It is pure and stateless: the mixer is arithmetic on the normalized
// (forward, strafe, rotate) demand, and the symbolic intent kinds resolve
// through a static table rather than branching logic.
package kinematics

import (
	"fmt"
	"math"

	"github.com/esp-rover/go-rover/pkg/rover"
)

// axes is the normalized (x forward, y strafe, r rotate) demand for one
// movement kind, each component in [-1, 1].
type axes struct {
	x, y, r float64
}

// table maps each movement kind to its axis demand. Speed presets and
// EmergencyStop have no entry: they never reach the mixer. Adding a movement
// kind is a table edit, not a new code path.
var table = map[rover.Kind]axes{
	rover.Forward:       {1, 0, 0},
	rover.Backward:      {-1, 0, 0},
	rover.StrafeLeft:    {0, -1, 0},
	rover.StrafeRight:   {0, 1, 0},
	rover.TurnLeft:      {0, 0, -1},
	rover.TurnRight:     {0, 0, 1},
	rover.ForwardLeft:   {0.7, -0.7, 0},
	rover.ForwardRight:  {0.7, 0.7, 0},
	rover.BackwardLeft:  {-0.7, -0.7, 0},
	rover.BackwardRight: {-0.7, 0.7, 0},
	rover.Stop:          {0, 0, 0},
}

// Mix computes the four mecanum wheel outputs for the normalized demand
// scaled by speed. When the largest raw magnitude exceeds 1, all four terms
// are rescaled together so the largest equals speed: direction is preserved
// instead of clipping wheels asymmetrically.
func Mix(x, y, r float64, speed int) rover.Wheels {
	fl := x + y + r
	fr := x - y - r
	bl := x - y + r
	br := x + y - r

	m := math.Max(math.Max(math.Abs(fl), math.Abs(fr)), math.Max(math.Abs(bl), math.Abs(br)))
	if m > 1.0 {
		fl /= m
		fr /= m
		bl /= m
		br /= m
	}

	s := float64(speed)
	return rover.Wheels{
		FrontLeft:  int(math.Round(fl * s)),
		FrontRight: int(math.Round(fr * s)),
		BackLeft:   int(math.Round(bl * s)),
		BackRight:  int(math.Round(br * s)),
	}
}

// ForKind resolves a symbolic movement kind through the static table.
// Kinds without kinematics (speed presets, emergency stop) are an error:
// they must be handled before dispatch reaches the mixer.
func ForKind(kind rover.Kind, speed int) (rover.Wheels, error) {
	a, ok := table[kind]
	if !ok {
		return rover.Wheels{}, fmt.Errorf("kinematics: no axes for %q: %w", kind, rover.ErrInvalidCommand)
	}
	return Mix(a.x, a.y, a.r, speed), nil
}
