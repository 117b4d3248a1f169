// Package plume models the rise of a fire plume through a background
// profile as an entraining parcel.
package plume

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/profile"
	"github.com/san-kum/goclass/internal/thermo"
)

const (
	G  = 9.81
	Cp = 1004.0
	Lv = 2.5e6
)

var (
	ErrEmptyProfile = errors.New("plume: background profile has no levels")
	ErrNoFire       = errors.New("plume: no fire configured")
	ErrNoUpdraft    = errors.New("plume: fire produces no updraft")
)

// Config tunes the entrainment closure.
type Config struct {
	FacEnt  float64 // fractional entrainment factor
	Beta    float64 // entrainment over detrainment above the surface layer
	AW      float64 // buoyancy acceleration factor
	BW      float64 // entrainment drag factor
	FacArea float64 // prescribed area growth over the surface layer
}

func DefaultConfig() Config {
	return Config{FacEnt: 0.8, Beta: 1.0, AW: 1.0, BW: 0.2, FacArea: 10}
}

// Parcel holds the plume properties at one height.
type Parcel struct {
	Z      float64 `json:"z"`      // [m]
	W      float64 `json:"w"`      // vertical velocity [m s-1]
	Thetal float64 `json:"thetal"` // liquid water potential temperature [K]
	Theta  float64 `json:"theta"`  // [K]
	Qt     float64 `json:"qt"`     // total specific humidity [kg kg-1]
	Thetav float64 `json:"thetav"` // [K]
	Qsat   float64 `json:"qsat"`   // [kg kg-1]
	B      float64 `json:"b"`      // buoyancy [m s-2]
	M      float64 `json:"m"`      // mass flux [kg s-1]
	Area   float64 `json:"area"`   // [m2]
	E      float64 `json:"e"`      // entrainment [kg m-1 s-1]
	D      float64 `json:"d"`      // detrainment [kg m-1 s-1]
	T      float64 `json:"T"`      // [K]
	Td     float64 `json:"Td"`     // [K]
	P      float64 `json:"p"`      // [hPa]
	RH     float64 `json:"rh"`     // [%]
}

// thermodynamics fills the derived parcel fields from thetal and qt.
func (pc *Parcel) thermodynamics(p, exner float64) error {
	t, err := thermo.SaturationAdjustment(pc.Thetal, pc.Qt, p, exner)
	pc.T = t
	pc.Qsat = thermo.QsatLiq(p, t)
	ql := math.Max(pc.Qt-pc.Qsat, 0)
	pc.Theta = pc.Thetal + Lv/Cp/exner*ql
	pc.Thetav = thermo.VirtualTemperature(pc.Theta, pc.Qt, ql)
	pc.RH = (pc.Qt - ql) / pc.Qsat * 100
	pc.Td = thermo.Dewpoint(pc.Qt, p/100)
	pc.P = p / 100
	return err
}

// initial starts the parcel from the lowest background level, heated and
// moistened by the fire.
func initial(fire *config.Fire, bg *profile.Profile, c Config) (Parcel, error) {
	rho := bg.Rho[0]
	thetavEnv := bg.Thetav[0]

	area := fire.L * fire.D
	flux := fire.Omega * fire.C * fire.Spread / fire.D * (1 - fire.RadiativeLoss)
	fluxQ := fire.Omega * fire.Cq * fire.Spread / fire.D
	fluxV := flux * (1 + 0.61*bg.Theta[0]*fluxQ)

	// cube root keeps the sign for a cooling fire
	facW := 3 * G * c.AW * fluxV / (2 * rho * Cp * thetavEnv * (1 + c.BW))
	w := math.Cbrt(facW * fire.H0)
	if !(w > 0) {
		return Parcel{}, fmt.Errorf("%w: initial w=%g", ErrNoUpdraft, w)
	}

	pc := Parcel{
		Z:      bg.Z[0],
		W:      w,
		Thetal: bg.Theta[0] + flux/(rho*Cp*w),
		Qt:     bg.Qt[0] + fluxQ/(rho*w),
		Area:   area,
	}
	err := pc.thermodynamics(bg.P[0], bg.Exner[0])

	pc.B = G / thetavEnv * (pc.Thetav - thetavEnv)
	pc.M = rho * area * w
	// constant area over the surface layer plus prescribed growth
	pc.E = rho*area/(2*w)*pc.B + rho*w*area*(1+c.FacArea)/fire.H0
	return pc, err
}

// Calculate lifts a fire parcel through bg until it stops rising. Saturation
// adjustment failures do not stop the plume; they are returned joined
// together with the complete plume. The parcel equations are stepped
// explicitly from level to level, so bg needs a fine spacing such as
// profile.DefaultDz.
func Calculate(fire *config.Fire, bg *profile.Profile, c Config) ([]Parcel, error) {
	if fire == nil {
		return nil, ErrNoFire
	}
	if bg.Len() == 0 {
		return nil, ErrEmptyProfile
	}

	var warnings []error
	pc, err := initial(fire, bg, c)
	if errors.Is(err, ErrNoUpdraft) {
		return nil, err
	}
	if err != nil {
		warnings = append(warnings, fmt.Errorf("z=%g: %w", pc.Z, err))
	}
	plume := []Parcel{pc}

	// constant fractional entrainment and detrainment above the surface layer
	epsi := c.FacEnt / math.Sqrt(pc.Area)
	delta := epsi / c.Beta

	for i := 1; i < bg.Len(); i++ {
		dz := bg.Z[i] - bg.Z[i-1]
		prev := pc

		m := prev.M + (prev.E-prev.D)*dz
		emz := prev.E / prev.M * dz

		// assumes an unsaturated background
		next := Parcel{
			Z:      bg.Z[i],
			Thetal: prev.Thetal - emz*(prev.Thetal-bg.Theta[i-1]),
			Qt:     prev.Qt - emz*(prev.Qt-bg.Qt[i-1]),
			M:      m,
		}
		if err := next.thermodynamics(bg.P[i], bg.Exner[i]); err != nil {
			warnings = append(warnings, fmt.Errorf("z=%g: %w", next.Z, err))
		}
		next.B = G / bg.Thetav[i] * (next.Thetav - bg.Thetav[i])

		w2 := prev.W*prev.W + 2*(c.AW*next.B-c.BW*epsi*prev.W*prev.W)*dz
		next.W = math.Sqrt(math.Max(w2, 0))
		next.E = epsi * m
		next.D = delta * m
		next.Area = m / (bg.Rho[i] * next.W)

		if next.W <= 0 || next.Area <= 0 {
			break
		}
		plume = append(plume, next)
		pc = next
	}
	return plume, errors.Join(warnings...)
}

// Top is the height of the last level the plume reached.
func Top(plume []Parcel) float64 {
	if len(plume) == 0 {
		return 0
	}
	return plume[len(plume)-1].Z
}
