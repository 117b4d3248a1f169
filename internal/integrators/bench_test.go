package integrators

import (
	"testing"

	"github.com/san-kum/goclass/internal/models"
	"github.com/san-kum/goclass/internal/sim"
)

func benchLayer() (*models.MixedLayer, sim.State) {
	m := &models.MixedLayer{Wtheta: 0.1, Gammatheta: 0.006, Wq: 0.0001, Gammaq: 0, Beta: 0.2}
	x := models.State{H: 200, Theta: 288, Dtheta: 1, Q: 0.008, Dq: -0.001}.Vector(false)
	return m, x
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn, x := benchLayer()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 60)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn, x := benchLayer()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 60)
	}
}
