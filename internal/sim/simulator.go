package sim

import (
	"context"
	"fmt"
)

type Simulator struct {
	dyn        Dynamics
	integrator Integrator
	observers  []Observer

	cfg  Config
	x    State
	step int
}

func New(dyn Dynamics, integrator Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Reset installs x0 as the current state and rewinds time to zero.
func (s *Simulator) Reset(x0 State, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	s.cfg = cfg
	s.x = x0.Clone()
	s.step = 0
	return nil
}

// Time is recomputed from the step count so that it never drifts.
func (s *Simulator) Time() float64 { return float64(s.step) * s.cfg.Dt }

func (s *Simulator) StepCount() int { return s.step }

func (s *Simulator) Config() Config { return s.cfg }

// State returns a copy of the current state.
func (s *Simulator) State() State { return s.x.Clone() }

func (s *Simulator) Done() bool { return s.Time() >= s.cfg.Duration }

// Update advances the state by exactly one step and notifies observers.
// The state is left untouched when an error is returned. A Guard sees both
// the current state and the candidate; a rejected candidate is reported at
// the step that produced it.
func (s *Simulator) Update() error {
	if s.x == nil {
		return fmt.Errorf("%w: simulator not reset", ErrInvalidConfig)
	}
	t := s.Time()
	g, guarded := s.dyn.(Guard)
	if guarded {
		if err := g.Check(s.x); err != nil {
			return &SimError{Step: s.step, Time: t, State: s.x.Clone(), Wrapped: err}
		}
	}

	next := s.integrator.Step(s.dyn, s.x, t, s.cfg.Dt)
	if !next.IsValid() {
		return &SimError{Step: s.step, Time: t, State: s.x.Clone(), Wrapped: ErrInvalidState}
	}
	if guarded {
		if err := g.Check(next); err != nil {
			return &SimError{Step: s.step + 1, Time: float64(s.step+1) * s.cfg.Dt, State: next, Wrapped: err}
		}
	}

	s.x = next
	s.step++
	for _, o := range s.observers {
		o.OnStep(s.step, s.Time(), s.x)
	}
	return nil
}

// Run calls Update until the end time is reached. Cancellation is only
// observed between steps.
func (s *Simulator) Run(ctx context.Context) error {
	for !s.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Update(); err != nil {
			return err
		}
	}
	return nil
}
