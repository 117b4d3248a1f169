package config

import (
	"sort"

	"github.com/brunoga/deep"
)

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"hot": with(func(c *Config) {
		c.Name = "Hot"
		c.Description = "Strong surface heating over a warm mixed layer"
		c.InitialState.Theta = 300
		c.MixedLayer.Wtheta = 0.25
	}),
	"humid": with(func(c *Config) {
		c.Name = "Humid"
		c.Description = "Moist mixed layer under a dry free troposphere"
		c.InitialState.Q = 0.014
		c.InitialState.Dq = -0.004
		c.MixedLayer.Wq = 0.0002
	}),
	"windy": with(func(c *Config) {
		c.Name = "Windy"
		c.Description = "Default case with mixed-layer wind and surface friction"
		c.Wind = DefaultWind()
	}),
	"smoke": with(func(c *Config) {
		c.Name = "Smoke"
		c.Description = "Line fire below a moist boundary layer"
		c.InitialState.Q = 0.01
		c.Atmosphere.ZTheta = []float64{1500, 5000}
		c.Atmosphere.GammasTheta = []float64{0.006, 0.004}
		c.Fire = DefaultFire()
	}),
}

func with(modify func(c *Config)) *Config {
	c := DefaultConfig()
	modify(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil if there is none.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return deep.MustCopy(p)
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
