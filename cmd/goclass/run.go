package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/goclass/internal/experiment"
	"github.com/san-kum/goclass/internal/integrators"
	"github.com/san-kum/goclass/internal/metrics"
	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/sim"
	"github.com/san-kum/goclass/internal/store"
	"github.com/san-kum/goclass/internal/viz"
)

var (
	outFile string
	plotVar string
	derived []string
	noSave  bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the mixed-layer model",
		Args:  cobra.NoArgs,
		RunE:  runModel,
	}
	addConfigFlags(cmd)
	cmd.Flags().StringVar(&integrator, "integrator", "euler", "euler or rk4")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "also write the output to a .json or .csv file")
	cmd.Flags().StringVar(&plotVar, "plot", "", "plot a variable when done")
	cmd.Flags().StringArrayVar(&derived, "derive", nil, "add a derived series, e.g. --derive 'dh=h-200'")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func runModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	integ, err := integrators.New(integrator)
	if err != nil {
		return err
	}

	engine, err := experiment.NewEngine(cfg, experiment.WithIntegrator(integ), experiment.WithLogger(lg))
	if err != nil {
		return err
	}
	ms := metrics.Default()
	engine.Subscribe(func(s output.Snapshot) {
		for _, m := range ms {
			m.Observe(s)
		}
	})

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()
	out, runErr := engine.Run(cmd.Context())
	elapsed := time.Since(start)

	var simErr *sim.SimError
	switch {
	case runErr == nil:
	case errors.As(runErr, &simErr):
		fmt.Println(viz.StatusFailed.Render(fmt.Sprintf("stopped at step %d (t = %g s): %v", simErr.Step, simErr.Time, simErr.Wrapped)))
	default:
		return runErr
	}

	for _, d := range derived {
		name, expr, ok := strings.Cut(d, "=")
		if !ok || name == "" || expr == "" {
			return fmt.Errorf("invalid --derive %q, want name=expression", d)
		}
		if err := out.Derive(name, expr); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("samples: %d\n", out.Len())

	values := metrics.Collect(ms)
	fmt.Println()
	fmt.Println(viz.BoxWithTitle("metrics", viz.Metrics(values)))

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		runID, err := st.Save(store.Run{
			ID:         experiment.UUIDGenerator{}.NewID(),
			Config:     cfg,
			Integrator: integrator,
			Output:     out,
			Metrics:    values,
			Err:        runErr,
		})
		if err != nil {
			return err
		}
		lg.Info("run stored", "id", runID, "dir", filepath.Join(dataDir, runID))
		fmt.Printf("run id: %s\n", runID)
	}

	if outFile != "" {
		if err := writeOutput(outFile, out); err != nil {
			return err
		}
	}

	if plotVar != "" {
		chart, err := viz.Chart(out, plotVar, viz.DefaultChartWidth, viz.DefaultChartHeight)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(chart)
	}
	return runErr
}

var errUnknownFormat = errors.New("unknown output format")

func writeOutput(path string, out *output.Output) error {
	var write func(w io.Writer) error
	switch filepath.Ext(path) {
	case ".csv":
		write = out.WriteCSV
	case ".json":
		write = out.WriteJSON
	default:
		return fmt.Errorf("%w: %s", errUnknownFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
