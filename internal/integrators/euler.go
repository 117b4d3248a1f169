package integrators

import "github.com/san-kum/goclass/internal/sim"

// Euler is the explicit forward Euler scheme. All tendencies are evaluated
// once, at the state before the update.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, t, dt float64) sim.State {
	dx := dyn.Derivative(x, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
