package models

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/goclass/internal/sim"
)

func defaultLayer() *MixedLayer {
	return &MixedLayer{
		Wtheta:     0.1,
		Gammatheta: 0.006,
		Wq:         0.0001,
		Beta:       0.2,
	}
}

func defaultState() State {
	return State{H: 200, Theta: 288, Dtheta: 1, Q: 0.008, Dq: -0.001}
}

func TestMixedLayerDiagnostics(t *testing.T) {
	m := defaultLayer()
	d := m.Diagnose(defaultState())

	wthetav := 0.1 + 0.61*288*0.0001
	if math.Abs(d.Wthetav-wthetav) > 1e-12 {
		t.Errorf("wthetav = %g, want %g", d.Wthetav, wthetav)
	}
	if math.Abs(d.Wthetave+0.2*wthetav) > 1e-12 {
		t.Errorf("wthetave = %g, want %g", d.Wthetave, -0.2*wthetav)
	}

	dthetav := 289*(1+0.61*0.007) - 288*(1+0.61*0.008)
	if math.Abs(d.Dthetav-dthetav) > 1e-12 {
		t.Errorf("dthetav = %g, want %g", d.Dthetav, dthetav)
	}

	we := 0.2 * wthetav / dthetav
	if math.Abs(d.We-we) > 1e-12 {
		t.Errorf("we = %g, want %g", d.We, we)
	}
	if d.Ws != 0 || d.Wf != 0 {
		t.Errorf("expected no subsidence or radiative growth, got ws=%g wf=%g", d.Ws, d.Wf)
	}
}

func TestMixedLayerTendencies(t *testing.T) {
	m := defaultLayer()
	s := defaultState()
	tend := m.Tendencies(s)

	if tend.H != tend.We {
		t.Errorf("htend = %g, want we = %g", tend.H, tend.We)
	}

	thetatend := (0.1 + tend.We*s.Dtheta) / s.H
	if math.Abs(tend.Theta-thetatend) > 1e-12 {
		t.Errorf("thetatend = %g, want %g", tend.Theta, thetatend)
	}
	if math.Abs(tend.Dtheta-(0.006*tend.We-thetatend)) > 1e-12 {
		t.Errorf("dthetatend = %g", tend.Dtheta)
	}

	qtend := (0.0001 + tend.We*s.Dq) / s.H
	if math.Abs(tend.Q-qtend) > 1e-15 {
		t.Errorf("qtend = %g, want %g", tend.Q, qtend)
	}
	if math.Abs(tend.Dq+qtend) > 1e-15 {
		t.Errorf("dqtend = %g, want %g", tend.Dq, -qtend)
	}
}

func TestMixedLayerNoShrinking(t *testing.T) {
	m := defaultLayer()
	m.Wtheta = -0.1
	m.Wq = 0

	tend := m.Tendencies(defaultState())
	if tend.We != 0 {
		t.Errorf("expected clamped entrainment, got %g", tend.We)
	}
	if tend.H != 0 {
		t.Errorf("expected zero growth, got %g", tend.H)
	}
}

func TestMixedLayerSubsidenceAndRadiation(t *testing.T) {
	m := defaultLayer()
	m.DivU = 1e-5
	m.DFz = 10

	s := defaultState()
	tend := m.Tendencies(s)

	if math.Abs(tend.Ws+1e-5*200) > 1e-15 {
		t.Errorf("ws = %g, want %g", tend.Ws, -2e-3)
	}
	wf := 10 / (RhoAir * CpAir * 1)
	if math.Abs(tend.Wf-wf) > 1e-15 {
		t.Errorf("wf = %g, want %g", tend.Wf, wf)
	}
	if math.Abs(tend.H-(tend.We+tend.Ws+tend.Wf)) > 1e-15 {
		t.Errorf("htend = %g", tend.H)
	}
}

func TestMixedLayerWind(t *testing.T) {
	m := defaultLayer()
	m.Wind = true
	m.Ustar = 0.3
	m.Fc = 1e-4

	s := defaultState()
	s.U, s.V, s.Du, s.Dv = 6, -4, 4, 4

	d := m.Diagnose(s)
	if d.Uw >= 0 || d.Vw <= 0 {
		t.Errorf("momentum flux should oppose the wind: uw=%g vw=%g", d.Uw, d.Vw)
	}
	if got := d.Uw*d.Uw + d.Vw*d.Vw; math.Abs(got-math.Pow(0.3, 4)) > 1e-12 {
		t.Errorf("uw^2 + vw^2 = %g, want ustar^4", got)
	}

	tend := m.Tendencies(s)
	utend := -1e-4*4 + (d.Uw+d.We*4)/200
	if math.Abs(tend.U-utend) > 1e-12 {
		t.Errorf("utend = %g, want %g", tend.U, utend)
	}
	if math.Abs(tend.Du+utend) > 1e-12 {
		t.Errorf("dutend = %g, want %g", tend.Du, -utend)
	}

	s.U = 0
	if d := m.Diagnose(s); d.Uw != 0 {
		t.Errorf("expected no u flux without u wind, got %g", d.Uw)
	}
}

func TestMixedLayerDimensions(t *testing.T) {
	m := defaultLayer()
	s := defaultState()

	if dx := m.Derivative(s.Vector(false), 0); len(dx) != 5 || m.StateDim() != 5 {
		t.Errorf("expected 5 fields without wind, got %d", len(dx))
	}

	m.Wind = true
	x := s.Vector(true)
	if dx := m.Derivative(x, 0); len(dx) != 9 || m.StateDim() != 9 {
		t.Errorf("expected 9 fields with wind, got %d", len(dx))
	}
	if StateFromVector(x) != s {
		t.Errorf("state did not survive packing: %+v", StateFromVector(x))
	}
}

func TestMixedLayerCheck(t *testing.T) {
	m := defaultLayer()

	if err := m.Check(defaultState().Vector(false)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, h := range []float64{0, -1, math.NaN()} {
		x := sim.State{h, 288, 1, 0.008, -0.001}
		if err := m.Check(x); !errors.Is(err, sim.ErrCollapsedLayer) {
			t.Errorf("h=%g: expected ErrCollapsedLayer, got %v", h, err)
		}
	}
}
