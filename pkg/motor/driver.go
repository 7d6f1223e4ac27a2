package motor

import (
	"errors"
	"sync"
	"time"

	"github.com/esp-rover/go-rover/pkg/rover"
)

// Gate reports whether actuation is currently permitted. The driver
// re-checks it on every write: this is the last stop before the peripheral,
// and a cached answer could commit motion after a lockout.
type Gate interface {
	Armed() bool
}

// Status is the operational state of one wheel.
type Status int

const (
	StatusStopped Status = iota
	StatusActive
	StatusError
)

// String returns the status label used in status payloads.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusActive:
		return "active"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// WheelStatus is a point-in-time view of one wheel.
type WheelStatus struct {
	Output  int
	Status  Status
	Runtime time.Duration
}

// Driver owns all motor state and is the only writer to the bus. A wheel
// whose bus write fails is marked StatusError and the driver keeps running
// degraded on the remaining wheels.
type Driver struct {
	bus Bus

	mu      sync.Mutex
	gate    Gate
	wheels  [NumWheels]WheelStatus
	accrued time.Time
}

// NewDriver creates a driver over the given bus. gate may be nil until the
// safety monitor exists; SetGate wires it in.
func NewDriver(bus Bus, gate Gate) *Driver {
	return &Driver{
		bus:     bus,
		gate:    gate,
		accrued: time.Now(),
	}
}

// SetGate installs the safety interlock the driver consults on every write.
func (d *Driver) SetGate(gate Gate) {
	d.mu.Lock()
	d.gate = gate
	d.mu.Unlock()
}

// Write commits one wheel vector to the peripheral. The interlock is
// sampled inside the write lock: any write serialized after a forced stop
// observes the tripped state and commits zero instead. Per-wheel failures
// are joined into the returned error; successful wheels are still written.
func (d *Driver) Write(w rover.Wheels) error {
	return d.write(w.Clamp(rover.MaxSpeedPWM), true)
}

// StopAll writes the zero vector unconditionally and resets wheel statuses
// to stopped. Safe to call repeatedly; a no-op when already stopped except
// for the bus writes.
func (d *Driver) StopAll() error {
	return d.write(rover.Wheels{}, false)
}

func (d *Driver) write(w rover.Wheels, gated bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gated && d.gate != nil && !d.gate.Armed() {
		w = rover.Wheels{}
	}

	speeds := [NumWheels]int{
		FrontLeft:  w.FrontLeft,
		FrontRight: w.FrontRight,
		BackLeft:   w.BackLeft,
		BackRight:  w.BackRight,
	}
	d.accrueLocked(time.Now())

	var errs []error
	for wheel := Wheel(0); wheel < NumWheels; wheel++ {
		speed := speeds[wheel]
		if err := d.bus.WriteMotor(wheel, speed); err != nil {
			d.wheels[wheel].Status = StatusError
			errs = append(errs, &WriteError{Wheel: wheel, Err: err})
			continue
		}
		d.wheels[wheel].Output = speed
		if speed == 0 {
			d.wheels[wheel].Status = StatusStopped
		} else {
			d.wheels[wheel].Status = StatusActive
		}
	}
	return errors.Join(errs...)
}

// Status returns a consistent snapshot of all four wheels.
func (d *Driver) Status() [NumWheels]WheelStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accrueLocked(time.Now())
	return d.wheels
}

// Active reports whether any wheel currently has a non-zero output.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.wheels {
		if w.Output != 0 {
			return true
		}
	}
	return false
}

// accrueLocked adds elapsed time to the runtime of wheels that were
// spinning since the last accrual. Caller holds d.mu.
func (d *Driver) accrueLocked(now time.Time) {
	delta := now.Sub(d.accrued)
	d.accrued = now
	if delta <= 0 {
		return
	}
	for i := range d.wheels {
		if d.wheels[i].Output != 0 {
			d.wheels[i].Runtime += delta
		}
	}
}

// clampSpeed restricts v to [-limit, limit].
func clampSpeed(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
