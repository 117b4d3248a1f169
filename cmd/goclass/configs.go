package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/goclass/internal/confdiff"
	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/viz"
)

var (
	referenceFile string
	presetFile    string
	format        string
)

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [config]",
		Short: "reduce a config to what differs from a reference",
		Long: `prune prints the values of config that differ from the reference
(the defaults unless --reference is given). With --preset-file the result
is additionally reduced against that preset.`,
		Args: cobra.ExactArgs(1),
		RunE: pruneConfig,
	}
	cmd.Flags().StringVarP(&referenceFile, "reference", "r", "", "reference config file")
	cmd.Flags().StringVar(&presetFile, "preset-file", "", "preset config file")
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml, json or toml")
	return cmd
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [partial ...]",
		Short: "merge partial configs onto the defaults and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  mergeConfigs,
	}
	cmd.Flags().StringVarP(&referenceFile, "reference", "r", "", "merge onto this config instead of the defaults")
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml, json or toml")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or show how one differs from the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println("presets:")
				for _, name := range config.ListPresets() {
					fmt.Printf("  %-10s %s\n", name, viz.Subtle.Render(config.Presets[name].Description))
				}
				return nil
			}
			p := config.GetPreset(args[0])
			if p == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			diff, err := config.Prune(p, config.DefaultConfig(), nil)
			if err != nil {
				return err
			}
			return writeTree(diff, "yaml")
		},
	}
}

func readConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func pruneConfig(cmd *cobra.Command, args []string) error {
	candidate, err := config.Load(args[0])
	if err != nil {
		return err
	}
	reference, err := readConfig(referenceFile)
	if err != nil {
		return err
	}
	var p *config.Config
	if presetFile != "" {
		if p, err = config.Load(presetFile); err != nil {
			return err
		}
	}

	pruned, err := config.Prune(candidate, reference, p)
	if err != nil {
		return err
	}
	return writeTree(pruned, format)
}

func mergeConfigs(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(referenceFile)
	if err != nil {
		return err
	}
	for _, path := range args {
		partial, err := config.LoadTree(path)
		if err != nil {
			return err
		}
		if cfg, err = config.Merge(cfg, partial); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tree, err := config.ToTree(cfg)
	if err != nil {
		return err
	}
	return writeTree(tree, format)
}

func writeTree(tree confdiff.Tree, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case "toml":
		return toml.NewEncoder(os.Stdout).Encode(map[string]any(tree))
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(tree)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", config.ErrUnknownFormat, format)
}
