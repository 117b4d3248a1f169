package thermo

import (
	"errors"
	"math"
	"testing"
)

func TestVirtualTemperature(t *testing.T) {
	tests := []struct {
		name       string
		theta      float64
		qt, ql     float64
		expected   float64
		toleration float64
	}{
		{"dry", 300, 0, 0, 300, 1e-12},
		{"moist", 300, 0.01, 0, 300 * (1 + (Rv/Rd-1)*0.01), 1e-9},
		{"cloudy", 300, 0.01, 0.001, 300 * (1 + (Rv/Rd-1)*0.01 - Rv/Rd*0.001), 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VirtualTemperature(tt.theta, tt.qt, tt.ql)
			if math.Abs(got-tt.expected) > tt.toleration {
				t.Errorf("VirtualTemperature() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEsatLiq(t *testing.T) {
	if got := EsatLiq(T0); math.Abs(got-611.21) > 1e-9 {
		t.Errorf("EsatLiq(T0) = %v, want 611.21", got)
	}

	if EsatLiq(300) <= EsatLiq(290) {
		t.Error("saturation vapour pressure should increase with temperature")
	}

	if EsatLiq(400) != EsatLiq(T0+50) {
		t.Error("temperatures above 50 degC should be clipped")
	}
}

func TestQsatLiqDerivative(t *testing.T) {
	p, temp, h := 1e5, 290.0, 1e-3
	numeric := (QsatLiq(p, temp+h) - QsatLiq(p, temp-h)) / (2 * h)
	analytic := DqsatdTLiq(p, temp)
	// Rv in the Clausius-Clapeyron factor differs slightly from the Tetens fit
	if math.Abs(numeric-analytic)/numeric > 0.05 {
		t.Errorf("DqsatdTLiq = %v, finite difference %v", analytic, numeric)
	}
}

func TestSaturationAdjustment_Unsaturated(t *testing.T) {
	got, err := SaturationAdjustment(300, 0.001, 1e5, 0.98)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.98*300 {
		t.Errorf("expected dry temperature %v, got %v", 0.98*300, got)
	}
}

func TestSaturationAdjustment_Saturated(t *testing.T) {
	thl, qt, p := 280.0, 0.02, 1e5

	got, err := SaturationAdjustment(thl, qt, p, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got <= thl {
		t.Errorf("condensation should warm the parcel: got %v", got)
	}

	residual := got - thl - Lv/Cp*(qt-QsatLiq(p, got))
	if math.Abs(residual) > 0.05 {
		t.Errorf("residual too large: %v", residual)
	}
}

func TestSaturationAdjustment_NoConvergenceIsWrapped(t *testing.T) {
	// an infinite humidity drives the iterate to NaN
	_, err := SaturationAdjustment(280, math.Inf(1), 1e5, 1)
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
}

func TestDewpoint(t *testing.T) {
	tests := []struct {
		tc, p float64
	}{
		{20, 1000},
		{5, 850},
		{-10, 500},
	}

	for _, tt := range tests {
		es := 6.112 * math.Exp(17.62*tt.tc/(243.12+tt.tc))
		w := 0.622 * es / (tt.p - es)
		q := w / (1 + w)

		got := Dewpoint(q, tt.p)
		if math.Abs(got-(tt.tc+T0)) > 1e-6 {
			t.Errorf("Dewpoint(%v, %v) = %v, want %v", q, tt.p, got, tt.tc+T0)
		}
	}
}
