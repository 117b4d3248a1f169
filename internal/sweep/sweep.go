// Package sweep generates factorial parameter studies.
package sweep

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/goclass/internal/confdiff"
	"github.com/san-kum/goclass/internal/config"
)

var ErrInvalidSweep = errors.New("sweep: invalid sweep")

// Sweep varies one parameter over Steps evenly spaced values.
type Sweep struct {
	Section   string  `yaml:"section" json:"section"`
	Parameter string  `yaml:"parameter" json:"parameter"`
	Start     float64 `yaml:"start" json:"start"`
	Step      float64 `yaml:"step" json:"step"`
	Steps     int     `yaml:"steps" json:"steps"`
}

// Permutation is one combination of swept values as a partial config.
type Permutation struct {
	Name   string        `yaml:"name" json:"name"`
	Config confdiff.Tree `yaml:"config" json:"config"`
}

// Values lists the swept values rounded to four decimals.
func (s Sweep) Values() []float64 {
	values := make([]float64, 0, max(s.Steps, 0))
	for i := 0; i < s.Steps; i++ {
		v := s.Start + float64(i)*s.Step
		values = append(values, math.Round(v*1e4)/1e4)
	}
	return values
}

func (s Sweep) label(v float64) string {
	return s.Parameter + "=" + strconv.FormatFloat(v, 'f', -1, 64)
}

// Perform returns the cartesian product of all sweeps. The first sweep
// varies slowest. No sweeps give no permutations.
func Perform(sweeps []Sweep) []Permutation {
	perms := []Permutation{}
	if len(sweeps) == 0 {
		return perms
	}
	perform(sweeps, 0, confdiff.Tree{}, nil, &perms)
	return perms
}

func perform(sweeps []Sweep, depth int, current confdiff.Tree, labels []string, perms *[]Permutation) {
	if depth == len(sweeps) {
		*perms = append(*perms, Permutation{
			Name:   strings.Join(labels, ","),
			Config: current,
		})
		return
	}

	s := sweeps[depth]
	for _, v := range s.Values() {
		next := confdiff.Merge(current, confdiff.Tree{
			s.Section: map[string]any{s.Parameter: v},
		})
		nextLabels := append(labels[:len(labels):len(labels)], s.label(v))
		perform(sweeps, depth+1, next, nextLabels, perms)
	}
}

// Apply merges every permutation onto base. Each resulting config is named
// after its permutation.
func Apply(base *config.Config, perms []Permutation) ([]*config.Config, error) {
	configs := make([]*config.Config, 0, len(perms))
	for _, p := range perms {
		cfg, err := config.Merge(base, p.Config)
		if err != nil {
			return nil, fmt.Errorf("sweep: permutation %q: %w", p.Name, err)
		}
		cfg.Name = p.Name
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Parse reads a sweep written as "section.parameter=start:step:steps",
// e.g. "initialState.h_0=100:100:5".
func Parse(s string) (Sweep, error) {
	path, rng, ok := strings.Cut(s, "=")
	if !ok {
		return Sweep{}, fmt.Errorf("%w: %q has no '='", ErrInvalidSweep, s)
	}
	section, param, ok := strings.Cut(path, ".")
	if !ok || section == "" || param == "" {
		return Sweep{}, fmt.Errorf("%w: %q is not section.parameter", ErrInvalidSweep, path)
	}

	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return Sweep{}, fmt.Errorf("%w: %q is not start:step:steps", ErrInvalidSweep, rng)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Sweep{}, fmt.Errorf("%w: start: %v", ErrInvalidSweep, err)
	}
	step, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Sweep{}, fmt.Errorf("%w: step: %v", ErrInvalidSweep, err)
	}
	steps, err := strconv.Atoi(parts[2])
	if err != nil || steps < 0 {
		return Sweep{}, fmt.Errorf("%w: steps must be a non-negative integer, got %q", ErrInvalidSweep, parts[2])
	}

	return Sweep{Section: section, Parameter: param, Start: start, Step: step, Steps: steps}, nil
}

// LoadFile reads a list of sweeps from a yaml or json file.
func LoadFile(path string) ([]Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sweeps []Sweep
	if err := yaml.Unmarshal(data, &sweeps); err != nil {
		return nil, fmt.Errorf("sweep: %s: %w", path, err)
	}
	return sweeps, nil
}
