package safety

import "errors"

// Sentinel errors for recovery refusals. Each failing precondition is
// reported distinctly so the operator knows what is still unsafe.
var (
	// ErrNotLockedOut is returned when recovery is attempted while armed.
	ErrNotLockedOut = errors.New("safety: not locked out")

	// ErrRecoveryNotConfirmed is returned when the explicit confirmation
	// signal is missing. Recovery is never automatic.
	ErrRecoveryNotConfirmed = errors.New("safety: recovery not confirmed")

	// ErrRecoveryTilted is returned when the rover is not upright.
	ErrRecoveryTilted = errors.New("safety: rover not upright")

	// ErrRecoveryUnstable is returned when too few consecutive safe samples
	// have been seen since the last violation.
	ErrRecoveryUnstable = errors.New("safety: not enough consecutive safe samples")

	// ErrRecoveryLowBattery is returned when the battery is below the
	// low-voltage recovery floor.
	ErrRecoveryLowBattery = errors.New("safety: battery below recovery threshold")
)
