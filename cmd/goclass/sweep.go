package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/goclass/internal/experiment"
	"github.com/san-kum/goclass/internal/integrators"
	"github.com/san-kum/goclass/internal/metrics"
	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/store"
	"github.com/san-kum/goclass/internal/sweep"
	"github.com/san-kum/goclass/internal/viz"
)

var (
	sweepFile  string
	compareVar string
	plain      bool
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [section.param=start:step:steps ...]",
		Short: "run the reference and every combination of swept parameters",
		Example: `  goclass sweep initialState.h_0=100:100:5
  goclass sweep mixedLayer.beta=0.1:0.1:3 mixedLayer.wtheta=0.05:0.05:4 --compare h`,
		RunE: runSweep,
	}
	addConfigFlags(cmd)
	cmd.Flags().StringVar(&integrator, "integrator", "euler", "euler or rk4")
	cmd.Flags().StringVarP(&sweepFile, "file", "f", "", "read sweeps from a yaml file")
	cmd.Flags().StringVar(&compareVar, "compare", "", "plot a variable of all runs")
	cmd.Flags().BoolVar(&plain, "plain", false, "print progress lines instead of the interactive view")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")
	return cmd
}

func parseSweeps(args []string) ([]sweep.Sweep, error) {
	var sweeps []sweep.Sweep
	if sweepFile != "" {
		s, err := sweep.LoadFile(sweepFile)
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, s...)
	}
	for _, a := range args {
		s, err := sweep.Parse(a)
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, s)
	}
	return sweeps, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ref, err := loadConfig()
	if err != nil {
		return err
	}
	sweeps, err := parseSweeps(args)
	if err != nil {
		return err
	}
	integ, err := integrators.New(integrator)
	if err != nil {
		return err
	}

	ids := experiment.UUIDGenerator{}
	exp := experiment.New(ids, ref)
	exp.AddSweeps(ids, sweeps)
	total := len(exp.Permutations) + 1

	runner, err := experiment.NewRunner(workers, experiment.DefaultCacheSize, lg, experiment.WithIntegrator(integ))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var results []experiment.Result
	var runErr error
	if plain {
		runner.OnProgress(func(done, total int, r experiment.Result) {
			status := "ok"
			if r.Err != nil {
				status = "failed: " + r.Err.Error()
			}
			fmt.Printf("[%d/%d] %s %s\n", done, total, r.Name, status)
		})
		results, runErr = runner.Run(ctx, exp)
	} else {
		p := tea.NewProgram(viz.NewProgressModel(fmt.Sprintf("%s: %d runs", ref.Name, total), total))
		runner.OnProgress(func(done, total int, r experiment.Result) {
			p.Send(viz.RunDoneMsg{Done: done, Total: total, Name: r.Name, Err: r.Err, Cached: r.Cached, Duration: r.Duration})
		})

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			results, runErr = runner.Run(ctx, exp)
		}()

		final, err := p.Run()
		if err != nil {
			cancel()
		} else if m, ok := final.(viz.ProgressModel); ok && m.Done() < total {
			cancel()
		}
		<-finished
		if err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		for _, r := range results {
			if _, err := st.Save(store.Run{
				ID:         r.ID,
				Experiment: exp.ID,
				Config:     r.Config,
				Integrator: integrator,
				Output:     r.Output,
				Metrics:    r.Metrics,
				Err:        r.Err,
			}); err != nil {
				return err
			}
		}
		fmt.Printf("experiment %s stored in %s\n", exp.ID, dataDir)
	}

	printResults(results)

	if compareVar != "" {
		var outs []*output.Output
		for _, r := range results {
			if r.Output != nil && r.Output.Len() > 0 {
				outs = append(outs, r.Output)
			}
		}
		chart, err := viz.Compare(outs, compareVar, viz.DefaultChartWidth, viz.DefaultChartHeight)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(chart)
	}
	return nil
}

func printResults(results []experiment.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "name\tstatus\tmax_h\tfinal_theta\tfinal_q")
	maxH := make([]float64, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "failed"
		} else if r.Cached {
			status = "cached"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, status,
			fmtMetric(r.Metrics, "max_h"), fmtMetric(r.Metrics, "final_theta"), fmtMetric(r.Metrics, "final_q"))
		if v, ok := r.Metrics["max_h"]; ok && !math.IsNaN(v) {
			maxH = append(maxH, v)
		}
	}
	w.Flush()

	if len(maxH) > 1 {
		s := metrics.Summarize(maxH)
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("max_h over runs: mean %.1f, std %.1f, range %.1f..%.1f", s.Mean, s.StdDev, s.Min, s.Max)))
	}
}

func fmtMetric(m map[string]float64, name string) string {
	v, ok := m[name]
	if !ok || math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}
