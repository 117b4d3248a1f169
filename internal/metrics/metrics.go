// Package metrics summarises a run from its samples.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/goclass/internal/output"
)

type Metric interface {
	Name() string
	Observe(s output.Snapshot)
	Value() float64
	Reset()
}

// Max tracks the largest value of one variable.
type Max struct {
	name string
	key  string
	max  float64
	seen bool
}

func NewMax(key string) *Max {
	return &Max{name: "max_" + key, key: key}
}

func (m *Max) Name() string { return m.name }

func (m *Max) Observe(s output.Snapshot) {
	v, ok := s[m.key]
	if !ok {
		return
	}
	if !m.seen || v > m.max {
		m.max = v
		m.seen = true
	}
}

func (m *Max) Value() float64 {
	if !m.seen {
		return math.NaN()
	}
	return m.max
}

func (m *Max) Reset() {
	m.max = 0
	m.seen = false
}

// Mean averages one variable over the samples.
type Mean struct {
	name   string
	key    string
	values []float64
}

func NewMean(key string) *Mean {
	return &Mean{name: "mean_" + key, key: key}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(s output.Snapshot) {
	if v, ok := s[m.key]; ok {
		m.values = append(m.values, v)
	}
}

func (m *Mean) Value() float64 {
	if len(m.values) == 0 {
		return math.NaN()
	}
	return stat.Mean(m.values, nil)
}

func (m *Mean) Reset() { m.values = m.values[:0] }

// Final keeps the last observed value of one variable.
type Final struct {
	name  string
	key   string
	value float64
	seen  bool
}

func NewFinal(key string) *Final {
	return &Final{name: "final_" + key, key: key}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(s output.Snapshot) {
	if v, ok := s[f.key]; ok {
		f.value = v
		f.seen = true
	}
}

func (f *Final) Value() float64 {
	if !f.seen {
		return math.NaN()
	}
	return f.value
}

func (f *Final) Reset() { f.seen = false }

// Default is the set of metrics stored with every run.
func Default() []Metric {
	return []Metric{
		NewMax("h"),
		NewMean("we"),
		NewFinal("h"),
		NewFinal("theta"),
		NewFinal("q"),
	}
}

// Collect reads the value of every metric.
func Collect(ms []Metric) map[string]float64 {
	values := make(map[string]float64, len(ms))
	for _, m := range ms {
		values[m.Name()] = m.Value()
	}
	return values
}

// Summary describes the distribution of one series.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{nan, nan, nan, nan}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Summary{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
	}
}
