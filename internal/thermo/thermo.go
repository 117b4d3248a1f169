package thermo

import (
	"errors"
	"fmt"
	"math"
)

const (
	Rd = 287.0   // gas constant for dry air [J kg-1 K-1]
	Rv = 461.0   // gas constant for water vapour [J kg-1 K-1]
	Cp = 1004.0  // specific heat of dry air at constant pressure [J kg-1 K-1]
	Lv = 2.5e6   // latent heat of vaporisation [J kg-1]
	Ep = Rd / Rv // ratio of gas constants

	// T0 is the melting point of water in kelvin.
	T0 = 273.15

	// MaxIterations bounds the Newton-Raphson loop in SaturationAdjustment.
	MaxIterations = 100
	// Tolerance is the relative change below which the iteration stops.
	Tolerance = 1e-5
)

// ErrNoConvergence is returned together with a best estimate when the
// saturation adjustment did not reach Tolerance within MaxIterations.
var ErrNoConvergence = errors.New("thermo: saturation adjustment did not converge")

// VirtualTemperature returns the virtual (potential) temperature for
// theta, total specific humidity qt and liquid water ql. theta is the
// potential temperature, not the liquid water potential temperature.
func VirtualTemperature(theta, qt, ql float64) float64 {
	return theta * (1.0 - (1.0-Rv/Rd)*qt - (Rv/Rd)*ql)
}

// EsatLiq is the saturation vapour pressure over liquid water [Pa] at
// temperature t [K]. Temperatures above 50 degC are clipped.
func EsatLiq(t float64) float64 {
	tc := math.Min(t-T0, 50)
	return 611.21 * math.Exp(17.502*tc/(240.97+tc))
}

// QsatLiq is the saturation specific humidity [kg kg-1] at pressure p [Pa]
// and temperature t [K].
func QsatLiq(p, t float64) float64 {
	e := EsatLiq(t)
	return Ep * e / (p - (1.0-Ep)*e)
}

// DqsatdTLiq is the derivative of QsatLiq with respect to temperature.
func DqsatdTLiq(p, t float64) float64 {
	e := EsatLiq(t)
	den := p - e*(1.0-Ep)
	return (Ep/den + (1.0-Ep)*Ep*e/(den*den)) * Lv * e / (Rv * t * t)
}

// SaturationAdjustment returns the absolute temperature of a parcel with
// liquid water potential temperature thl and total specific humidity qt at
// pressure p [Pa] and Exner value exner.
//
// Unsaturated parcels return exner*thl directly. Otherwise
// T - tl - Lv/cp*(qt - qsat(T)) = 0 is solved by Newton-Raphson. When the
// iteration does not converge the last iterate is returned together with
// an error wrapping ErrNoConvergence.
func SaturationAdjustment(thl, qt, p, exner float64) (float64, error) {
	tl := exner * thl
	if qt <= QsatLiq(p, tl) {
		return tl, nil
	}

	tnr := tl
	tnrOld := 1e9
	// written as !(x <= tol) so that a NaN iterate counts as unconverged
	for iter := 0; !(math.Abs(tnr-tnrOld)/tnrOld <= Tolerance); iter++ {
		if iter == MaxIterations {
			return tnr, fmt.Errorf("%w: %d iterations (thl=%g qt=%g p=%g)", ErrNoConvergence, iter, thl, qt, p)
		}
		tnrOld = tnr
		qsat := QsatLiq(p, tnr)
		f := tnr - tl - Lv/Cp*(qt-qsat)
		fPrime := 1 + Lv/Cp*DqsatdTLiq(p, tnr)
		tnr -= f / fPrime
	}
	return tnr, nil
}

// Dewpoint returns the dew point [K] for specific humidity q [kg kg-1] at
// pressure p [hPa], using the Magnus form with the Sonntag (1990) fit.
func Dewpoint(q, p float64) float64 {
	const (
		a = 6.112
		b = 17.62
		c = 243.12
	)
	w := q / (1 - q)         // mixing ratio
	e := w * p / (w + 0.622) // vapour pressure [hPa]
	l := math.Log(e / a)
	return c*l/(b-l) + T0
}
