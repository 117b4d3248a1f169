package integrators

import "github.com/san-kum/goclass/internal/sim"

// rk4 stage nodes and weights
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6}
)

// RK4 is the classic fourth order Runge-Kutta scheme. It keeps no state
// between steps, so one value can be shared by engines running in parallel.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn sim.Dynamics, x sim.State, t, dt float64) sim.State {
	n := len(x)
	result := x.Clone()
	stage := make(sim.State, n)

	var k sim.State
	for s := range rk4Nodes {
		if s == 0 {
			copy(stage, x)
		} else {
			for i := 0; i < n; i++ {
				stage[i] = x[i] + rk4Nodes[s]*dt*k[i]
			}
		}
		k = dyn.Derivative(stage, t+rk4Nodes[s]*dt)
		for i := 0; i < n; i++ {
			result[i] += rk4Weights[s] * dt * k[i]
		}
	}
	return result
}
