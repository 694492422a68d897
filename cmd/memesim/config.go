package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"solana-memebot-sim/internal/config"
	"solana-memebot-sim/internal/domain"
)

// configFlags select and override the simulation configuration.
type configFlags struct {
	path   string
	preset string
	mode   string
	hours  float64
	seed   int64
}

func (f *configFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.path, "config", "c", "", "YAML or JSON config file")
	fl.StringVar(&f.preset, "preset", "", "strategy preset: "+strings.Join(config.PresetNames(), ", "))
	fl.StringVar(&f.mode, "mode", "", "event source: synthetic or external")
	fl.Float64Var(&f.hours, "hours", 0, "simulated duration in hours")
	fl.Int64Var(&f.seed, "seed", 0, "synthetic generator seed")
}

// load resolves the configuration. Only flags set on the command line
// override the file and environment.
func (f *configFlags) load(cmd *cobra.Command) (domain.Config, error) {
	overrides := map[string]any{}
	if cmd.Flags().Changed("mode") {
		overrides["run.mode"] = f.mode
	}
	if cmd.Flags().Changed("hours") {
		overrides["run.duration_hours"] = f.hours
	}
	if cmd.Flags().Changed("seed") {
		overrides["run.seed"] = f.seed
	}

	cfg, err := config.Load(config.Options{
		Path:      f.path,
		Preset:    f.preset,
		Overrides: overrides,
	})
	if err != nil {
		return domain.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newConfigCmd(a *app) *cobra.Command {
	var (
		cf     configFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration a run would use after applying the preset,
the config file, MEMESIM_* environment variables and flags.

Example:
  memesim config --preset aggressive --hours 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}

			var out []byte
			if asJSON {
				out, err = config.MarshalJSON(cfg)
			} else {
				out, err = config.MarshalYAML(cfg)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
			return err
		},
	}

	cf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}
