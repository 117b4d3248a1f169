package models

import (
	"math"

	"github.com/san-kum/goclass/internal/sim"
)

const (
	// RhoAir is the air density used to convert radiative flux divergence [kg m-3].
	RhoAir = 1.2
	// CpAir is the specific heat of dry air used by the slab equations [J kg-1 K-1].
	CpAir = 1005.0
)

// Positions of the prognostic fields in the packed state vector. The wind
// fields are only present when wind is enabled.
const (
	IH = iota
	ITheta
	IDtheta
	IQ
	IDq
	IU
	IV
	IDu
	IDv
)

// State is the prognostic state of the slab in named form.
type State struct {
	H      float64 // boundary layer height [m]
	Theta  float64 // mixed-layer potential temperature [K]
	Dtheta float64 // potential temperature jump at h [K]
	Q      float64 // mixed-layer specific humidity [kg kg-1]
	Dq     float64 // specific humidity jump at h [kg kg-1]
	U      float64
	V      float64
	Du     float64
	Dv     float64
	T      float64 // model time [s], not part of the vector
}

// Vector packs s into a sim.State of the given dimension (5 without wind,
// 9 with).
func (s State) Vector(wind bool) sim.State {
	x := sim.State{s.H, s.Theta, s.Dtheta, s.Q, s.Dq}
	if wind {
		x = append(x, s.U, s.V, s.Du, s.Dv)
	}
	return x
}

func StateFromVector(x sim.State) State {
	s := State{H: x[IH], Theta: x[ITheta], Dtheta: x[IDtheta], Q: x[IQ], Dq: x[IDq]}
	if len(x) > IDv {
		s.U, s.V, s.Du, s.Dv = x[IU], x[IV], x[IDu], x[IDv]
	}
	return s
}

// Diagnostics are the fluxes and velocities derived from a state.
type Diagnostics struct {
	Wthetav  float64 // surface virtual heat flux [K m s-1]
	Wthetave float64 // entrainment virtual heat flux [K m s-1]
	Dthetav  float64 // virtual temperature jump at h [K]
	We       float64 // entrainment velocity [m s-1]
	Ws       float64 // large-scale vertical velocity [m s-1]
	Wf       float64 // radiative growth velocity [m s-1]
	Wthetae  float64 // entrainment heat flux [K m s-1]
	Wqe      float64 // entrainment moisture flux [kg kg-1 m s-1]
	Uw       float64 // surface momentum flux, u component [m2 s-2]
	Vw       float64 // surface momentum flux, v component [m2 s-2]
}

// Tendencies holds the time derivative of every prognostic field together
// with the diagnostics they were computed from.
type Tendencies struct {
	Diagnostics
	H      float64
	Theta  float64
	Dtheta float64
	Q      float64
	Dq     float64
	U      float64
	V      float64
	Du     float64
	Dv     float64
}

// MixedLayer holds the forcing of a single-column slab model of the
// convective boundary layer.
type MixedLayer struct {
	Wtheta     float64
	Advtheta   float64
	Gammatheta float64
	Wq         float64
	Advq       float64
	Gammaq     float64
	DivU       float64
	Beta       float64

	// DFz is the radiative flux divergence at the top of the layer [W m-2].
	DFz float64

	Wind   bool
	Advu   float64
	Advv   float64
	GammaU float64
	GammaV float64
	Ustar  float64
	Fc     float64
}

func (m *MixedLayer) StateDim() int {
	if m.Wind {
		return 9
	}
	return 5
}

// Diagnose evaluates the fluxes for s. The entrainment velocity is clamped at
// zero so the layer never shrinks through entrainment.
func (m *MixedLayer) Diagnose(s State) Diagnostics {
	var d Diagnostics
	d.Wthetav = m.Wtheta + 0.61*s.Theta*m.Wq
	d.Wthetave = -m.Beta * d.Wthetav
	d.Dthetav = (s.Theta+s.Dtheta)*(1+0.61*(s.Q+s.Dq)) - s.Theta*(1+0.61*s.Q)
	d.We = math.Max(0, -d.Wthetave/d.Dthetav)
	d.Ws = -m.DivU * s.H
	if m.DFz != 0 {
		d.Wf = m.DFz / (RhoAir * CpAir * s.Dtheta)
	}
	d.Wthetae = -d.We * s.Dtheta
	d.Wqe = -d.We * s.Dq

	if m.Wind {
		d.Uw = momentumFlux(s.U, s.V, m.Ustar)
		d.Vw = momentumFlux(s.V, s.U, m.Ustar)
	}
	return d
}

// momentumFlux splits ustar^2 over the component a of the wind vector (a, b).
func momentumFlux(a, b, ustar float64) float64 {
	if a == 0 {
		return 0
	}
	u4 := math.Pow(ustar, 4)
	return -math.Copysign(1, a) * math.Sqrt(u4/(b*b/(a*a)+1))
}

// Tendencies evaluates every derivative once at s.
func (m *MixedLayer) Tendencies(s State) Tendencies {
	d := m.Diagnose(s)
	tend := Tendencies{Diagnostics: d}

	tend.Theta = (m.Wtheta-d.Wthetae)/s.H + m.Advtheta
	tend.Q = (m.Wq-d.Wqe)/s.H + m.Advq
	tend.Dtheta = m.Gammatheta*d.We - tend.Theta
	tend.Dq = m.Gammaq*d.We - tend.Q
	tend.H = d.We + d.Ws + d.Wf

	if m.Wind {
		tend.U = -m.Fc*s.Dv + (d.Uw+d.We*s.Du)/s.H + m.Advu
		tend.V = m.Fc*s.Du + (d.Vw+d.We*s.Dv)/s.H + m.Advv
		tend.Du = m.GammaU*d.We - tend.U
		tend.Dv = m.GammaV*d.We - tend.V
	}
	return tend
}

func (m *MixedLayer) Derivative(x sim.State, t float64) sim.State {
	tend := m.Tendencies(StateFromVector(x))
	dx := sim.State{tend.H, tend.Theta, tend.Dtheta, tend.Q, tend.Dq}
	if m.Wind {
		dx = append(dx, tend.U, tend.V, tend.Du, tend.Dv)
	}
	return dx
}

// Check rejects a collapsed layer, for which the tendencies divide by zero.
func (m *MixedLayer) Check(x sim.State) error {
	if !(x[IH] > 0) {
		return sim.ErrCollapsedLayer
	}
	return nil
}
