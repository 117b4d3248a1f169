package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/experiment"
	"github.com/san-kum/goclass/internal/export"
	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/plume"
	"github.com/san-kum/goclass/internal/profile"
	"github.com/san-kum/goclass/internal/thermo"
	"github.com/san-kum/goclass/internal/viz"
)

var (
	runID     string
	atTime    float64
	dz        float64
	every     int
	asJSON    bool
	svgFile   string
	profField string
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "vertical profile of a run at one sample",
		Args:  cobra.NoArgs,
		RunE:  showProfile,
	}
	addSampleFlags(cmd)
	cmd.Flags().Float64Var(&dz, "dz", 10, "level spacing [m]")
	cmd.Flags().StringVar(&profField, "plot", "", "draw one field against height (theta, thetav, qt, T, Td, rho, p, u, v)")
	cmd.Flags().StringVar(&svgFile, "svg", "", "write the plotted field to an svg file")
	return cmd
}

func newPlumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plume",
		Short: "rise of a fire plume through the profile of a run",
		Args:  cobra.NoArgs,
		RunE:  showPlume,
	}
	addSampleFlags(cmd)
	return cmd
}

func addSampleFlags(cmd *cobra.Command) {
	addConfigFlags(cmd)
	cmd.Flags().StringVar(&runID, "run", "", "use a stored run instead of integrating")
	cmd.Flags().Float64VarP(&atTime, "time", "t", -1, "sample time [s], the last sample when negative")
	cmd.Flags().IntVar(&every, "every", 10, "print every n-th level")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
}

// sampleRun returns the config of the run and its sample closest to atTime.
func sampleRun(ctx context.Context) (*config.Config, output.Snapshot, error) {
	var (
		cfg *config.Config
		out *output.Output
		err error
	)
	if runID != "" {
		st, err := openStore()
		if err != nil {
			return nil, nil, err
		}
		if cfg, err = st.LoadConfig(runID); err != nil {
			return nil, nil, err
		}
		if out, err = st.LoadOutput(runID); err != nil {
			return nil, nil, err
		}
	} else {
		if cfg, err = loadConfig(); err != nil {
			return nil, nil, err
		}
		out, err = experiment.RunEngine(ctx, cfg, experiment.WithLogger(lg))
		if err != nil && (out == nil || out.Len() == 0) {
			return nil, nil, err
		}
		if err != nil {
			lg.Warn("run ended early, using its last sample", "error", err)
		}
	}

	if out.Len() == 0 {
		return nil, nil, errors.New("run has no samples")
	}
	if atTime < 0 {
		snap, _ := out.Last()
		return cfg, snap, nil
	}
	t, _ := out.Series("t")
	best := 0
	for i := range t {
		if math.Abs(t[i]-atTime) < math.Abs(t[best]-atTime) {
			best = i
		}
	}
	snap, _ := out.At(best)
	return cfg, snap, nil
}

func profileField(p *profile.Profile, name string) ([]float64, error) {
	fields := map[string][]float64{
		"theta": p.Theta, "thetav": p.Thetav, "qt": p.Qt, "T": p.T, "Td": p.Td,
		"rho": p.Rho, "p": p.P, "exner": p.Exner, "u": p.U, "v": p.V,
	}
	f, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile field: %s", name)
	}
	if f == nil {
		return nil, fmt.Errorf("profile has no %s, the run has no wind", name)
	}
	return f, nil
}

func showProfile(cmd *cobra.Command, args []string) error {
	cfg, snap, err := sampleRun(cmd.Context())
	if err != nil {
		return err
	}
	prof, err := profile.Generate(cfg, snap, dz)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prof)
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s at t = %g s, h = %.1f m", cfg.Name, snap["t"], snap["h"])))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "z\ttheta\tthetav\tqt [g/kg]\tp [hPa]\tT\tTd\trho\t")
	for i := prof.Len() - 1; i >= 0; i-- {
		if i%max(every, 1) != 0 {
			continue
		}
		fmt.Fprintf(w, "%.1f\t%.2f\t%.2f\t%.2f\t%.1f\t%.2f\t%.2f\t%.3f\t\n",
			prof.Z[i], prof.Theta[i], prof.Thetav[i], prof.Qt[i]*1000, prof.P[i]/100, prof.T[i], prof.Td[i], prof.Rho[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if profField == "" {
		return nil
	}
	values, err := profileField(prof, profField)
	if err != nil {
		return err
	}
	canvas, err := viz.ProfileCanvas(prof.Z, values, 40, 20)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(canvas.String())
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("%s %.4g..%.4g against z %.0f..%.0f m",
		profField, minOf(values), maxOf(values), prof.Z[0], prof.Z[prof.Len()-1])))

	if svgFile != "" {
		svg, err := export.SeriesToSVG(values, prof.Z, 400, 600, "#00ccff")
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func minOf(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}

func showPlume(cmd *cobra.Command, args []string) error {
	cfg, snap, err := sampleRun(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Fire == nil {
		return fmt.Errorf("%w: add a fire section or use --preset smoke", plume.ErrNoFire)
	}
	prof, err := profile.Generate(cfg, snap, profile.DefaultDz)
	if err != nil {
		return err
	}

	parcels, err := plume.Calculate(cfg.Fire, prof, plume.DefaultConfig())
	if err != nil {
		if parcels == nil || !errors.Is(err, thermo.ErrNoConvergence) {
			return err
		}
		lg.Warn("saturation adjustment did not converge everywhere", "error", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parcels)
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s: plume top %.0f m, boundary layer %.0f m", cfg.Name, plume.Top(parcels), snap["h"])))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "z\tw\ttheta\tthetav\tqt [g/kg]\tb\tarea\trh\t")
	step := max(every, 1) * 10
	for i := len(parcels) - 1; i >= 0; i-- {
		if i%step != 0 && i != len(parcels)-1 {
			continue
		}
		pc := parcels[i]
		fmt.Fprintf(w, "%.0f\t%.2f\t%.2f\t%.2f\t%.2f\t%.4f\t%.0f\t%.0f\t\n",
			pc.Z, pc.W, pc.Theta, pc.Thetav, pc.Qt*1000, pc.B, pc.Area, pc.RH)
	}
	return w.Flush()
}
