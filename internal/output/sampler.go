package output

import (
	"math"

	"github.com/san-kum/goclass/internal/models"
	"github.com/san-kum/goclass/internal/sim"
)

// Sampler records the model state and its diagnostics every interval
// seconds of model time. The initial state is not recorded.
type Sampler struct {
	model    *models.MixedLayer
	out      *Output
	interval float64
	every    int

	listeners []func(Snapshot)
}

// NewSampler samples every interval seconds of a run with timestep dt. When
// interval is a whole multiple of dt samples are picked by step count,
// otherwise by the model time.
func NewSampler(model *models.MixedLayer, dt, interval float64) *Sampler {
	s := &Sampler{
		model:    model,
		out:      New(Names(model.Wind)...),
		interval: interval,
	}
	if n := math.Round(interval / dt); n >= 1 && math.Abs(n*dt-interval) <= 1e-9*interval {
		s.every = int(n)
	}
	return s
}

// Subscribe registers fn to be called with every recorded sample.
func (s *Sampler) Subscribe(fn func(Snapshot)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Sampler) Output() *Output { return s.out }

func (s *Sampler) due(step int, t float64) bool {
	if s.every > 0 {
		return step%s.every == 0
	}
	rem := math.Mod(t, s.interval)
	tol := 1e-9 * s.interval
	return rem <= tol || s.interval-rem <= tol
}

func (s *Sampler) OnStep(step int, t float64, x sim.State) {
	if !s.due(step, t) {
		return
	}
	snap := Sample(s.model, t, x)
	// Append cannot fail: snap carries every series of Names(model.Wind).
	_ = s.out.Append(snap)
	for _, fn := range s.listeners {
		fn(snap)
	}
}

// Sample evaluates every output variable at state x.
func Sample(m *models.MixedLayer, t float64, x sim.State) Snapshot {
	st := models.StateFromVector(x)
	d := m.Diagnose(st)

	snap := Snapshot{
		"t":        t,
		"h":        st.H,
		"theta":    st.Theta,
		"dtheta":   st.Dtheta,
		"q":        st.Q,
		"dq":       st.Dq,
		"dthetav":  d.Dthetav,
		"we":       d.We,
		"ws":       d.Ws,
		"wf":       d.Wf,
		"wthetave": d.Wthetave,
		"wthetav":  d.Wthetav,
		"wtheta":   m.Wtheta,
		"wq":       m.Wq,
	}
	if m.Wind {
		snap["u"] = st.U
		snap["v"] = st.V
		snap["du"] = st.Du
		snap["dv"] = st.Dv
	}
	return snap
}
