package motor

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/esp-rover/go-rover/pkg/rover"
)

// Serial bridge framing: sync byte, motor register, signed speed byte,
// XOR checksum over the preceding three.
const (
	serialSync byte = 0xA5

	// DefaultSerialBaud is the bridge link rate.
	DefaultSerialBaud = 115200
)

// SerialBus talks to a motor-controller bridge over a serial link. Used when
// the motor controller hangs off a USB or UART adapter instead of the I2C
// header.
type SerialBus struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

// OpenSerialBus opens the bridge device. baud 0 selects DefaultSerialBaud.
func OpenSerialBus(device string, baud int) (*SerialBus, error) {
	if baud <= 0 {
		baud = DefaultSerialBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("motor: open serial bus %s: %w", device, err)
	}
	return &SerialBus{port: port}, nil
}

// WriteMotor sends one framed speed command.
func (b *SerialBus) WriteMotor(wheel Wheel, speed int) error {
	reg, err := wheelRegister(wheel)
	if err != nil {
		return err
	}
	// Same signed byte encoding the I2C controller takes.
	v := byte(int8(clampSpeed(speed*i2cMaxSpeed/rover.MaxSpeedPWM, i2cMaxSpeed)))
	frame := []byte{serialSync, reg, v, serialSync ^ reg ^ v}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.port.Write(frame); err != nil {
		return fmt.Errorf("motor: serial write %s: %w", wheel, err)
	}
	return nil
}

// Close closes the serial port.
func (b *SerialBus) Close() error {
	return b.port.Close()
}

var _ Bus = (*SerialBus)(nil)
