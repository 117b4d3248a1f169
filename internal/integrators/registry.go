package integrators

import (
	"fmt"

	"github.com/san-kum/goclass/internal/sim"
)

// New returns the integrator registered under name.
func New(name string) (sim.Integrator, error) {
	switch name {
	case "", "euler":
		return NewEuler(), nil
	case "rk4":
		return NewRK4(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}
