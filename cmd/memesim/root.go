package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the flags and resources shared by all subcommands.
type app struct {
	debug   bool
	envFile string
	store   storeFlags

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "memesim",
		Short: "Deterministic memecoin trading strategy simulator",
		Long: `memesim replays a stream of token observations through an entry filter,
a capital-constrained portfolio and a set of exit rules.

Runs are either synthetic (seeded token lifecycles) or external (events
recorded by an earlier run). Every run persists its token events, closed
trades and a summary that can be reported on and verified by replay.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.envFile != "" {
				if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("load env file %s: %w", a.envFile, err)
				}
			}
			log, err := newLogger(a.debug)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&a.debug, "debug", false, "development logging at debug level")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before anything else, ignored when missing")
	a.store.register(cmd)

	cmd.AddCommand(
		newRunCmd(a),
		newReportCmd(a),
		newVerifyCmd(a),
		newMigrateCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
