package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a non-positive timestep or duration.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")

	// ErrDimensionMismatch indicates a state that does not fit the dynamics.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between state and dynamics")

	// ErrCollapsedLayer indicates a boundary layer whose depth reached zero.
	ErrCollapsedLayer = errors.New("sim: mixed layer collapsed (h <= 0)")
)

// SimError wraps a step failure with the time at which it happened.
type SimError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}
