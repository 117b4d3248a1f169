package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/goclass/internal/output"
)

const (
	DefaultChartWidth  = 80
	DefaultChartHeight = 10
)

// Chart plots one sampled variable of out against sample index.
func Chart(out *output.Output, name string, width, height int) (string, error) {
	values, ok := out.Series(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", output.ErrMissingVariable, name)
	}
	if len(values) == 0 {
		return "", fmt.Errorf("viz: %s has no samples", name)
	}

	caption := name
	if v, ok := output.Lookup(name); ok {
		caption = fmt.Sprintf("%s [%s]", v.Title, v.Unit)
	}
	t, _ := out.Series("t")
	caption += fmt.Sprintf(" over t = %g..%g s", t[0], t[len(t)-1])

	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// Compare plots the same variable of several outputs in one chart.
func Compare(outs []*output.Output, name string, width, height int) (string, error) {
	series := make([][]float64, 0, len(outs))
	for _, o := range outs {
		values, ok := o.Series(name)
		if !ok {
			return "", fmt.Errorf("%w: %s", output.ErrMissingVariable, name)
		}
		if len(values) == 0 {
			continue
		}
		series = append(series, values)
	}
	if len(series) == 0 {
		return "", fmt.Errorf("viz: %s has no samples", name)
	}

	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Green, asciigraph.Magenta, asciigraph.Red}
	seriesColors := make([]asciigraph.AnsiColor, len(series))
	for i := range series {
		seriesColors[i] = colors[i%len(colors)]
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(seriesColors...),
		asciigraph.Caption(name),
	), nil
}
