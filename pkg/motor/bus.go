// Package motor drives the four-wheel motor controller. The peripheral is
// reached through the Bus interface so the Driver runs unchanged against
// I2C hardware, a serial bridge, or a recording mock in tests.
package motor

// Wheel indexes one of the four mecanum wheels.
type Wheel int

const (
	FrontLeft Wheel = iota
	FrontRight
	BackLeft
	BackRight

	// NumWheels is the wheel count; wheel indexes are 0..NumWheels-1.
	NumWheels
)

// String returns the short wheel label used in logs and status payloads.
func (w Wheel) String() string {
	switch w {
	case FrontLeft:
		return "front_left"
	case FrontRight:
		return "front_right"
	case BackLeft:
		return "back_left"
	case BackRight:
		return "back_right"
	}
	return "unknown"
}

// Bus writes raw actuation commands to the motor-controller peripheral.
// Speed is in [-MaxSpeedPWM, MaxSpeedPWM]; implementations narrow it to
// their wire encoding. Implementations must be safe for use from the
// supervisor and safety loops concurrently.
type Bus interface {
	WriteMotor(wheel Wheel, speed int) error
	Close() error
}
