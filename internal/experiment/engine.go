// Package experiment runs the mixed-layer model: single engines, and
// experiments made of a reference run plus permutations executed in
// parallel.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brunoga/deep"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/integrators"
	"github.com/san-kum/goclass/internal/log"
	"github.com/san-kum/goclass/internal/models"
	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/sim"
)

const ComponentName = "Chemistry Land-surface Atmosphere Soil Slab model"

var ErrUnknownVariable = errors.New("experiment: unknown variable")

type Option func(*Engine)

// WithIntegrator replaces the default forward Euler scheme.
func WithIntegrator(i sim.Integrator) Option {
	return func(e *Engine) { e.integrator = i }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine integrates one configuration forward in time and samples it.
type Engine struct {
	cfg        *config.Config
	model      *models.MixedLayer
	integrator sim.Integrator
	sim        *sim.Simulator
	sampler    *output.Sampler
	log        *log.Logger
}

// NewMixedLayer builds the slab dynamics for cfg.
func NewMixedLayer(cfg *config.Config) *models.MixedLayer {
	ml := cfg.MixedLayer
	m := &models.MixedLayer{
		Wtheta:     ml.Wtheta,
		Advtheta:   ml.Advtheta,
		Gammatheta: ml.Gammatheta,
		Wq:         ml.Wq,
		Advq:       ml.Advq,
		Gammaq:     ml.Gammaq,
		DivU:       ml.DivU,
		Beta:       ml.Beta,
	}
	if r := cfg.Radiation; r != nil {
		m.DFz = r.DFz
	}
	if w := cfg.Wind; w != nil {
		m.Wind = true
		m.Advu, m.Advv = w.Advu, w.Advv
		m.GammaU, m.GammaV = w.GammaU, w.GammaV
		m.Ustar = w.Ustar
		m.Fc = w.Coriolis
	}
	return m
}

// InitialState is the state at t=0.
func InitialState(cfg *config.Config) models.State {
	is := cfg.InitialState
	s := models.State{H: is.H, Theta: is.Theta, Dtheta: is.Dtheta, Q: is.Q, Dq: is.Dq}
	if w := cfg.Wind; w != nil {
		s.U, s.V, s.Du, s.Dv = w.U, w.V, w.Du, w.Dv
	}
	return s
}

func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        deep.MustCopy(cfg),
		integrator: integrators.NewEuler(),
	}
	for _, opt := range opts {
		opt(e)
	}

	tc := e.cfg.TimeControl
	e.model = NewMixedLayer(e.cfg)
	e.sim = sim.New(e.model, e.integrator)
	e.sampler = output.NewSampler(e.model, tc.Dt, tc.SampleInterval)
	e.sim.AddObserver(e.sampler)

	x0 := InitialState(e.cfg).Vector(e.model.Wind)
	if err := e.sim.Reset(x0, sim.Config{Dt: tc.Dt, Duration: tc.Runtime}); err != nil {
		return nil, err
	}
	return e, nil
}

// Subscribe registers fn to be called with every sample.
func (e *Engine) Subscribe(fn func(output.Snapshot)) { e.sampler.Subscribe(fn) }

// Update advances the model by one timestep.
func (e *Engine) Update() error {
	err := e.sim.Update()
	if err != nil {
		e.log.Warn("update failed", slog.Float64("t", e.sim.Time()), slog.Any("error", err))
	}
	return err
}

// Run updates the model until the end time and returns what was sampled.
// On failure the samples taken so far are returned with the error.
func (e *Engine) Run(ctx context.Context) (*output.Output, error) {
	e.log.Debug("run", slog.String("name", e.cfg.Name), slog.Int("steps", e.sim.Config().Steps()))

	err := e.sim.Run(ctx)
	var serr *sim.SimError
	if errors.As(err, &serr) {
		e.log.Warn("run stopped", slog.String("name", e.cfg.Name),
			slog.Int("step", serr.Step), slog.Float64("t", serr.Time), slog.Any("error", serr.Wrapped))
	}
	return e.sampler.Output(), err
}

func (e *Engine) Output() *output.Output { return e.sampler.Output() }

func (e *Engine) Config() *config.Config { return e.cfg }

func (e *Engine) State() models.State {
	s := models.StateFromVector(e.sim.State())
	s.T = e.sim.Time()
	return s
}

func (e *Engine) ComponentName() string { return ComponentName }

// OutputVarNames lists the prognostic variables.
func (e *Engine) OutputVarNames() []string {
	names := []string{"h", "theta", "dtheta", "q", "dq"}
	if e.model.Wind {
		names = append(names, "u", "v", "du", "dv")
	}
	return names
}

func (e *Engine) CurrentTime() float64 { return e.sim.Time() }

func (e *Engine) EndTime() float64 { return e.cfg.TimeControl.Runtime }

func (e *Engine) TimeStep() float64 { return e.cfg.TimeControl.Dt }

func (e *Engine) TimeUnits() string { return "s" }

// Value returns the current value of any output variable.
func (e *Engine) Value(name string) (float64, error) {
	snap := output.Sample(e.model, e.sim.Time(), e.sim.State())
	v, ok := snap[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return v, nil
}

// RunEngine integrates cfg from start to end.
func RunEngine(ctx context.Context, cfg *config.Config, opts ...Option) (*output.Output, error) {
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}
