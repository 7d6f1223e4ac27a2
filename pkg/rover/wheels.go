package rover

// Wheels is the signed per-wheel output of one dispatch cycle, in PWM units.
// It is derived per cycle and not retained.
type Wheels struct {
	FrontLeft  int
	FrontRight int
	BackLeft   int
	BackRight  int
}

// IsZero reports whether all four outputs are zero.
func (w Wheels) IsZero() bool {
	return w.FrontLeft == 0 && w.FrontRight == 0 && w.BackLeft == 0 && w.BackRight == 0
}

// MaxMagnitude returns the largest absolute wheel output.
func (w Wheels) MaxMagnitude() int {
	m := absInt(w.FrontLeft)
	if v := absInt(w.FrontRight); v > m {
		m = v
	}
	if v := absInt(w.BackLeft); v > m {
		m = v
	}
	if v := absInt(w.BackRight); v > m {
		m = v
	}
	return m
}

// Clamp returns a copy with every output restricted to [-limit, limit].
func (w Wheels) Clamp(limit int) Wheels {
	return Wheels{
		FrontLeft:  clampInt(w.FrontLeft, limit),
		FrontRight: clampInt(w.FrontRight, limit),
		BackLeft:   clampInt(w.BackLeft, limit),
		BackRight:  clampInt(w.BackRight, limit),
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
