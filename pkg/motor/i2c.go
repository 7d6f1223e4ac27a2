package motor

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"github.com/esp-rover/go-rover/pkg/rover"
)

// RoverC motor controller I2C map. One signed byte per motor register.
const (
	// DefaultI2CAddress is the RoverC base address.
	DefaultI2CAddress uint8 = 0x38

	regFrontLeft  = 0x00
	regFrontRight = 0x01
	regBackLeft   = 0x02
	regBackRight  = 0x03

	// i2cMaxSpeed is the largest magnitude the one-byte register encoding
	// carries; wheel outputs are narrowed into it.
	i2cMaxSpeed = 127
)

// I2CBus drives the RoverC motor controller over an I2C bus. Any
// drivers.I2C implementation works: machine.I2C on hardware, a fake in
// tests.
type I2CBus struct {
	mu   sync.Mutex
	bus  drivers.I2C
	addr uint8
}

// NewI2CBus wraps an I2C bus at the given controller address.
// addr 0 selects DefaultI2CAddress.
func NewI2CBus(bus drivers.I2C, addr uint8) *I2CBus {
	if addr == 0 {
		addr = DefaultI2CAddress
	}
	return &I2CBus{bus: bus, addr: addr}
}

// WriteMotor sets one motor register.
func (b *I2CBus) WriteMotor(wheel Wheel, speed int) error {
	reg, err := wheelRegister(wheel)
	if err != nil {
		return err
	}
	// Scale the 0..255 PWM range into the signed byte the controller takes.
	v := clampSpeed(speed*i2cMaxSpeed/rover.MaxSpeedPWM, i2cMaxSpeed)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.bus.Tx(uint16(b.addr), []byte{reg, byte(int8(v))}, nil); err != nil {
		return fmt.Errorf("motor: i2c write %s: %w", wheel, err)
	}
	return nil
}

// Close is a no-op; the underlying I2C bus is owned by the caller.
func (b *I2CBus) Close() error {
	return nil
}

func wheelRegister(wheel Wheel) (byte, error) {
	switch wheel {
	case FrontLeft:
		return regFrontLeft, nil
	case FrontRight:
		return regFrontRight, nil
	case BackLeft:
		return regBackLeft, nil
	case BackRight:
		return regBackRight, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownWheel, wheel)
}

var _ Bus = (*I2CBus)(nil)
