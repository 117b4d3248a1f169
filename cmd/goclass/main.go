package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/goclass/internal/confdiff"
	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/log"
	"github.com/san-kum/goclass/internal/store"
)

var (
	dataDir  string
	logLevel string
	workers  int
	verbose  bool

	configFile string
	preset     string
	overrides  []string
	integrator string

	settings config.Settings
	lg       *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "goclass",
		Short:         "mixed-layer model of the convective boundary layer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			settings, err = config.LoadSettings()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("data") {
				dataDir = settings.DataDir
			}
			if !flags.Changed("log-level") {
				logLevel = settings.LogLevel
			}
			if !flags.Changed("workers") {
				workers = settings.Workers
			}
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return err
			}
			if verbose {
				lg = log.New(logLevel, dataDir, os.Stderr)
			} else {
				lg = log.New(logLevel, dataDir, nil)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".goclass", "data directory (GOCLASS_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error (GOCLASS_LOG_LEVEL)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel runs, 0 for one per CPU (GOCLASS_WORKERS)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror the log to stderr")

	rootCmd.AddCommand(
		newRunCmd(),
		newProfileCmd(),
		newPlumeCmd(),
		newSweepCmd(),
		newPruneCmd(),
		newMergeCmd(),
		newPresetsCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addConfigFlags registers the flags that select a model configuration.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml), merged onto the defaults")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "start from a preset instead of the defaults")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a value, e.g. --set mixedLayer.beta=0.3")
}

// loadConfig resolves preset, config file and --set overrides, in that order.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		tree, err := config.LoadTree(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg, err = config.Merge(cfg, tree); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if len(overrides) > 0 {
		partial := confdiff.Tree{}
		for _, o := range overrides {
			path, value, ok := strings.Cut(o, "=")
			if !ok || path == "" {
				return nil, fmt.Errorf("invalid override %q, want section.param=value", o)
			}
			confdiff.SetString(partial, path, value)
		}
		var err error
		if cfg, err = config.Merge(cfg, partial); err != nil {
			return nil, fmt.Errorf("applying overrides: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*store.Store, error) {
	st := store.New(dataDir)
	return st, st.Init()
}
