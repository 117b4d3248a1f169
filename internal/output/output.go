// Package output holds sampled model time series.
package output

import (
	"errors"
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
	"github.com/spf13/cast"
)

var (
	ErrMissingVariable = errors.New("output: missing variable")
	ErrDuplicateSeries = errors.New("output: series already exists")
)

// Snapshot is the value of every series at one sample.
type Snapshot map[string]float64

// Output is an ordered set of equally long series, aligned by sample index.
// The first series is always "t".
type Output struct {
	names  []string
	series map[string][]float64
}

func New(names ...string) *Output {
	o := &Output{series: make(map[string][]float64)}
	o.add("t")
	for _, n := range names {
		o.add(n)
	}
	return o
}

func (o *Output) add(name string) {
	if _, ok := o.series[name]; ok {
		return
	}
	o.names = append(o.names, name)
	o.series[name] = []float64{}
}

// Append records one sample. Every series must have a value in s.
func (o *Output) Append(s Snapshot) error {
	for _, n := range o.names {
		if _, ok := s[n]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingVariable, n)
		}
	}
	for _, n := range o.names {
		o.series[n] = append(o.series[n], s[n])
	}
	return nil
}

func (o *Output) Len() int { return len(o.series["t"]) }

func (o *Output) Names() []string {
	names := make([]string, len(o.names))
	copy(names, o.names)
	return names
}

// Series returns the values of one variable. The slice is shared with o.
func (o *Output) Series(name string) ([]float64, bool) {
	s, ok := o.series[name]
	return s, ok
}

// At returns sample i, or false when i is out of range.
func (o *Output) At(i int) (Snapshot, bool) {
	if i < 0 || i >= o.Len() {
		return nil, false
	}
	s := make(Snapshot, len(o.names))
	for _, n := range o.names {
		s[n] = o.series[n][i]
	}
	return s, true
}

func (o *Output) Last() (Snapshot, bool) {
	return o.At(o.Len() - 1)
}

var expressionFuncs = map[string]govaluate.ExpressionFunction{
	"exp":  unary(math.Exp),
	"log":  unary(math.Log),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, err := cast.ToFloat64E(args[0])
		if err != nil {
			return nil, err
		}
		return f(x), nil
	}
}

// Derive adds a series computed from the others at each sample, e.g.
//
//	o.Derive("hkm", "h / 1000")
func (o *Output) Derive(name, expr string) error {
	if _, ok := o.series[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSeries, name)
	}
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, expressionFuncs)
	if err != nil {
		return fmt.Errorf("output: parsing %q: %w", expr, err)
	}
	for _, v := range expression.Vars() {
		if _, ok := o.series[v]; !ok {
			return fmt.Errorf("%w: %s in %q", ErrMissingVariable, v, expr)
		}
	}

	values := make([]float64, o.Len())
	params := make(map[string]interface{}, len(o.names))
	for i := range values {
		for _, n := range o.names {
			params[n] = o.series[n][i]
		}
		result, err := expression.Evaluate(params)
		if err != nil {
			return fmt.Errorf("output: evaluating %q at sample %d: %w", expr, i, err)
		}
		values[i], err = cast.ToFloat64E(result)
		if err != nil {
			return fmt.Errorf("output: %q is not numeric: %w", expr, err)
		}
	}

	o.names = append(o.names, name)
	o.series[name] = values
	return nil
}
