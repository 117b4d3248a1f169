package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/viz"
)

var (
	plotVars []string
	outPath  string
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringSliceVar(&plotVars, "var", []string{"h", "theta", "q"}, "variables to plot")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run output to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			path := outPath
			if path == "" {
				path = args[0] + ".csv"
			}
			if err := st.ExportCSV(path, args[0]); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run output and metadata to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			if outPath == "" {
				return st.ExportJSONTo(os.Stdout, args[0])
			}
			if err := st.ExportJSON(outPath, args[0]); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file, stdout when empty")
	return cmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "id\tname\ttimestamp\tsamples\tmax_h\tstatus")
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}
		maxH := "-"
		if v, ok := r.Metrics["max_h"]; ok {
			maxH = fmt.Sprintf("%.1f", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Name, r.Timestamp.Format("2006-01-02 15:04:05"), r.Samples, maxH, status)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	out, err := st.LoadOutput(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s (%s)", meta.Name, meta.ID)))
	fmt.Println()
	for _, name := range plotVars {
		chart, err := viz.Chart(out, name, viz.DefaultChartWidth, viz.DefaultChartHeight)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println()
	}
	printSummary(out)
	return nil
}

func printSummary(out *output.Output) {
	last, ok := out.Last()
	if !ok {
		return
	}
	for _, name := range out.Names() {
		values, _ := out.Series(name)
		fmt.Printf("%-10s %s %.4g\n", name, viz.Sparkline(values, 30), last[name])
	}
}
