// Package profile reconstructs vertical profiles of the atmosphere from the
// slab state at one instant.
//
// Below the boundary layer height every variable takes its mixed-layer value.
// Directly above it jumps by the inversion strength and then follows the
// piecewise linear free troposphere. Pressure follows from hydrostatic
// balance, integrated on half levels.
package profile

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/thermo"
)

const (
	G  = 9.81
	Cp = 1004.0
	Rd = 287.0

	DefaultDz = 1.0
)

var ErrInvalidSpacing = errors.New("profile: dz must be positive")

// Profile holds per-level values ordered by increasing height. U and V are
// nil when the run has no wind.
type Profile struct {
	Z      []float64 `json:"z"`
	Theta  []float64 `json:"theta"`
	Thetav []float64 `json:"thetav"`
	Qt     []float64 `json:"qt"`
	U      []float64 `json:"u"`
	V      []float64 `json:"v"`
	P      []float64 `json:"p"`
	Exner  []float64 `json:"exner"`
	T      []float64 `json:"T"`
	Td     []float64 `json:"Td"`
	Rho    []float64 `json:"rho"`
}

func (p *Profile) Len() int { return len(p.Z) }

// Generate builds the profile for the sample snap of a run with cfg on
// levels dz/2, 3dz/2, ... below the lowest theta and q segment top.
func Generate(cfg *config.Config, snap output.Snapshot, dz float64) (*Profile, error) {
	if !(dz > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidSpacing, dz)
	}
	for _, key := range []string{"h", "theta", "dtheta", "q", "dq"} {
		if _, ok := snap[key]; !ok {
			return nil, fmt.Errorf("%w: %s", output.ErrMissingVariable, key)
		}
	}
	zTheta, gTheta := cfg.ThetaSegments()
	zQ, gQ := cfg.QSegments()
	if len(zTheta) == 0 || len(zQ) == 0 {
		return nil, fmt.Errorf("%w: no segments", config.ErrInvalidProfile)
	}

	h := snap["h"]
	p0 := cfg.Atmosphere.P0
	zTop := math.Min(zTheta[len(zTheta)-1], zQ[len(zQ)-1])

	z := arange(dz/2, zTop, dz)
	theta := Piecewise(z, h, snap["theta"], snap["dtheta"], zTheta, gTheta)
	qt := Piecewise(z, h, snap["q"], snap["dq"], zQ, gQ)

	// half levels bracket every full level
	zh := make([]float64, len(z)+1)
	for i := range zh {
		zh[i] = float64(i) * dz
	}
	thetah := Piecewise(zh, h, snap["theta"], snap["dtheta"], zTheta, gTheta)
	qth := Piecewise(zh, h, snap["q"], snap["dq"], zQ, gQ)

	n := len(z)
	prof := &Profile{
		Z:      z,
		Theta:  theta,
		Qt:     qt,
		Thetav: make([]float64, n),
		Exner:  make([]float64, n),
		T:      make([]float64, n),
		Td:     make([]float64, n),
		Rho:    make([]float64, n),
	}

	// the base state is assumed unsaturated
	thetavh := make([]float64, len(zh))
	for i := range zh {
		thetavh[i] = thermo.VirtualTemperature(thetah[i], qth[i], 0)
	}
	prof.P = pressure(p0, thetavh, dz, n)

	for i := 0; i < n; i++ {
		prof.Thetav[i] = thermo.VirtualTemperature(theta[i], qt[i], 0)
		prof.Exner[i] = math.Pow(prof.P[i]/p0, Rd/Cp)
		prof.T[i] = prof.Exner[i] * theta[i]
		prof.Td[i] = thermo.Dewpoint(qt[i], prof.P[i]/100)
		prof.Rho[i] = prof.P[i] / (Rd * prof.Exner[i] * prof.Thetav[i])
	}

	if w := cfg.Wind; w != nil {
		zu, gu := config.Segments(w.ZU, w.GammasU, w.GammaU)
		zv, gv := config.Segments(w.ZV, w.GammasV, w.GammaV)
		prof.U = Piecewise(z, h, snap["u"], snap["du"], zu, gu)
		prof.V = Piecewise(z, h, snap["v"], snap["dv"], zv, gv)
	}
	return prof, nil
}

// arange returns start, start+step, ... below stop. Levels are computed
// from their index so they do not accumulate rounding errors.
func arange(start, stop, step float64) []float64 {
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return []float64{}
	}
	z := make([]float64, n)
	for i := range z {
		z[i] = start + float64(i)*step
	}
	for n > 0 && z[n-1] >= stop {
		n--
	}
	return z[:n]
}

// pressure integrates the hydrostatic equation in p^(Rd/cp) over the half
// levels and returns the geometric mean of adjacent half levels for the n
// full levels.
func pressure(p0 float64, thetavh []float64, dz float64, n int) []float64 {
	kappa := Rd / Cp
	p0k := math.Pow(p0, kappa)

	ph := make([]float64, len(thetavh))
	pk := p0k
	for i := range ph {
		if i > 0 {
			pk -= G / Cp * p0k / thetavh[i-1] * dz
		}
		ph[i] = math.Pow(pk, 1/kappa)
	}

	p := make([]float64, n)
	for i := range p {
		p[i] = math.Exp(0.5 * (math.Log(ph[i]) + math.Log(ph[i+1])))
	}
	return p
}

// Piecewise evaluates a mixed-layer profile at heights z: mlValue up to h,
// then mlValue+jump plus the lapse rate of each segment above h. Segments
// whose top lies below h no longer exist. Above the last segment top the
// last lapse rate continues.
func Piecewise(z []float64, h, mlValue, jump float64, zSegments, gammas []float64) []float64 {
	prof := make([]float64, len(z))
	last := len(zSegments) - 1

	for i, zi := range z {
		if zi <= h {
			prof[i] = mlValue
			continue
		}

		value := mlValue + jump
		anchor := h
		inside := false
		for j, top := range zSegments {
			if top < h {
				continue
			}
			if zi >= top {
				value += gammas[j] * (top - anchor)
				anchor = top
				continue
			}
			value += gammas[j] * (zi - anchor)
			inside = true
			break
		}

		if !inside && last >= 0 && zi > zSegments[last] {
			value += gammas[len(gammas)-1] * (zi - zSegments[last])
		}
		prof[i] = value
	}
	return prof
}
