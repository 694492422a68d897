package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-memebot-sim/internal/reporting"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		format        string
		outDir        string
		activityLimit int
	)

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Render a stored run, or the index of all runs",
		Long: `Render a stored run as markdown or csv. Without a run id the index of
all stored runs is rendered instead.

Examples:
  memesim report --storage sqlite 01J...
  memesim report --storage postgres --format csv
  memesim report --storage postgres --out reports 01J...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format != "markdown" && format != "csv" {
				return fmt.Errorf("unknown format %q (markdown, csv)", format)
			}

			a.store.resolve(cmd)
			b, err := a.store.openBackend(ctx, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			g := b.reportGenerator(activityLimit)
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				idx, err := g.GenerateIndex(ctx)
				if err != nil {
					return err
				}
				if format == "csv" {
					_, err = fmt.Fprint(w, reporting.RenderIndexCSV(idx.Runs))
				} else {
					_, err = fmt.Fprint(w, reporting.RenderIndexMarkdown(idx))
				}
				return err
			}

			r, err := g.Generate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("report %s: %w", args[0], err)
			}

			if outDir != "" {
				paths, err := reporting.WriteFiles(outDir, r)
				if err != nil {
					return err
				}
				for _, p := range paths {
					abs, _ := filepath.Abs(p)
					a.log.Info("report written", zap.String("file", abs))
				}
				return nil
			}

			if format == "csv" {
				_, err = fmt.Fprint(w, reporting.RenderTradesCSV(r.Trades))
			} else {
				_, err = fmt.Fprint(w, reporting.RenderMarkdown(r))
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&format, "format", "markdown", "output format: markdown or csv")
	fl.StringVar(&outDir, "out", "", "write <run>.md and <run>_trades.csv here instead of stdout")
	fl.IntVar(&activityLimit, "token-limit", 50, "tokens listed in the activity section (needs --clickhouse-dsn)")
	return cmd
}
