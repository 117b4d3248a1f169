package sim

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Dynamics interface {
	Derivative(x State, t float64) State
	StateDim() int
}

// Guard is implemented by dynamics that can reject a state, e.g. because its
// tendencies would divide by zero. Rejected states are never committed.
type Guard interface {
	Check(x State) error
}

type Integrator interface {
	Step(dyn Dynamics, x State, t, dt float64) State
}

type Observer interface {
	OnStep(step int, t float64, x State)
}

type Config struct {
	Dt       float64
	Duration float64
}

func (c Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	return nil
}

// Steps is the number of updates needed to reach Duration.
func (c Config) Steps() int {
	return int(math.Ceil(c.Duration / c.Dt))
}
