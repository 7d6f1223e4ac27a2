package kinematics

import (
	"testing"

	"github.com/esp-rover/go-rover/pkg/rover"
)

func TestForKind_Forward(t *testing.T) {
	w, err := ForKind(rover.Forward, 150)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}
	want := rover.Wheels{FrontLeft: 150, FrontRight: 150, BackLeft: 150, BackRight: 150}
	if w != want {
		t.Errorf("forward: got %+v, want %+v", w, want)
	}
}

func TestForKind_StrafeLeft(t *testing.T) {
	w, err := ForKind(rover.StrafeLeft, 100)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}
	want := rover.Wheels{FrontLeft: -100, FrontRight: 100, BackLeft: 100, BackRight: -100}
	if w != want {
		t.Errorf("strafe_left: got %+v, want %+v", w, want)
	}
}

func TestForKind_TurnRight(t *testing.T) {
	w, err := ForKind(rover.TurnRight, 120)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}
	want := rover.Wheels{FrontLeft: 120, FrontRight: -120, BackLeft: 120, BackRight: -120}
	if w != want {
		t.Errorf("turn_right: got %+v, want %+v", w, want)
	}
}

func TestForKind_Stop(t *testing.T) {
	w, err := ForKind(rover.Stop, 200)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}
	if !w.IsZero() {
		t.Errorf("stop: got %+v, want zero vector", w)
	}
}

func TestForKind_DiagonalNormalized(t *testing.T) {
	// (0.7, -0.7, 0) sums to 1.4 on two wheels; the mixer must rescale so
	// the largest output equals the commanded speed.
	w, err := ForKind(rover.ForwardLeft, 100)
	if err != nil {
		t.Fatalf("ForKind: %v", err)
	}
	want := rover.Wheels{FrontLeft: 0, FrontRight: 100, BackLeft: 100, BackRight: 0}
	if w != want {
		t.Errorf("forward_left: got %+v, want %+v", w, want)
	}
}

func TestForKind_NoKinematicsForPresets(t *testing.T) {
	for _, k := range []rover.Kind{rover.SetSpeedSlow, rover.SetSpeedNormal, rover.SetSpeedFast, rover.EmergencyStop} {
		if _, err := ForKind(k, 100); err == nil {
			t.Errorf("%s: expected error, got none", k)
		}
	}
}

func TestTable_CoversAllMovementKinds(t *testing.T) {
	for k := rover.Kind(0); k.Valid(); k++ {
		_, ok := table[k]
		if k.IsMovement() && !ok {
			t.Errorf("movement kind %s has no kinematics entry", k)
		}
		if !k.IsMovement() && ok {
			t.Errorf("non-movement kind %s has a kinematics entry", k)
		}
	}
}

func TestMix_MagnitudeNeverExceedsSpeed(t *testing.T) {
	axes := []float64{-1, -0.7, -0.3, 0, 0.3, 0.7, 1}
	speeds := []int{0, 1, 100, 150, 255}
	for _, x := range axes {
		for _, y := range axes {
			for _, r := range axes {
				for _, speed := range speeds {
					w := Mix(x, y, r, speed)
					if m := w.MaxMagnitude(); m > speed {
						t.Fatalf("Mix(%v, %v, %v, %d): magnitude %d exceeds speed", x, y, r, speed, m)
					}
				}
			}
		}
	}
}

func TestMix_PreservesDirection(t *testing.T) {
	// Rescaling must not flip any wheel's sign.
	w := Mix(1, 1, 1, 200)
	if w.FrontLeft != 200 {
		t.Errorf("front_left: got %d, want 200", w.FrontLeft)
	}
	// Raw mix is (3, -1, 1, 1): rescaled signs must match.
	if w.FrontRight >= 0 || w.BackLeft <= 0 || w.BackRight <= 0 {
		t.Errorf("rescale flipped a sign: %+v", w)
	}
}
