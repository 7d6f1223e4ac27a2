package motor

import (
	"sync"
	"time"
)

// MockBus implements Bus for testing and bench runs without hardware.
// Writes are recorded; WriteMotorFunc, when set, overrides the default
// success behavior (e.g. to fail one wheel).
type MockBus struct {
	// WriteMotorFunc is called when WriteMotor is invoked.
	// If nil, the write succeeds.
	WriteMotorFunc func(wheel Wheel, speed int) error

	// CloseFunc is called when Close is invoked. If nil, returns nil.
	CloseFunc func() error

	// Tracking
	mu     sync.Mutex
	writes []MockWrite
	last   [NumWheels]int
}

// MockWrite records one WriteMotor invocation for verification.
type MockWrite struct {
	Wheel Wheel
	Speed int
	Time  time.Time
}

// WriteMotor records the write and delegates to WriteMotorFunc.
func (m *MockBus) WriteMotor(wheel Wheel, speed int) error {
	m.mu.Lock()
	m.writes = append(m.writes, MockWrite{Wheel: wheel, Speed: speed, Time: time.Now()})
	if wheel >= 0 && wheel < NumWheels {
		m.last[wheel] = speed
	}
	m.mu.Unlock()

	if m.WriteMotorFunc != nil {
		return m.WriteMotorFunc(wheel, speed)
	}
	return nil
}

// Close delegates to CloseFunc.
func (m *MockBus) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Writes returns a copy of all recorded writes.
func (m *MockBus) Writes() []MockWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// LastSpeeds returns the most recent speed written to each wheel.
func (m *MockBus) LastSpeeds() [NumWheels]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// WriteCount returns how many writes the bus has seen.
func (m *MockBus) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

var _ Bus = (*MockBus)(nil)
