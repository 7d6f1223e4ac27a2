package motor

import (
	"errors"
	"fmt"
)

// ErrUnknownWheel is returned for a wheel index outside 0..NumWheels-1.
var ErrUnknownWheel = errors.New("motor: unknown wheel")

// WriteError reports a failed actuation write for one wheel. A failed wheel
// does not abort the others: the driver keeps running degraded and the error
// carries which wheel so status consumers can see it.
type WriteError struct {
	Wheel Wheel
	Err   error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("motor: write %s: %v", e.Wheel, e.Err)
}

// Unwrap returns the underlying bus error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
