package gradient

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned when a configuration value is rejected,
// for example a non-positive sigma.
var ErrInvalidParameter = errors.New("invalid parameter")

// ChainError reports that the filter chain for one axis failed. The zero
// axis chain failing and the computation being cancelled both surface as a
// ChainError; use errors.Is with context.Canceled to distinguish
// cancellation from an upstream pass failure.
type ChainError struct {
	// Axis is the target axis of the chain that failed.
	Axis int

	// Err is the underlying cause.
	Err error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("gradient chain for axis %d failed: %v", e.Axis, e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }
