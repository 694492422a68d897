package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/idhash"
	"solana-memebot-sim/internal/ledger"
	"solana-memebot-sim/internal/observability"
	"solana-memebot-sim/internal/reporting"
	"solana-memebot-sim/internal/simulation"
)

type runFlags struct {
	cfg         configFlags
	replayRunID string
	json        bool
	reportDir   string
	metricsAddr string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and record it",
		Long: `Run a simulation and persist its token events, closed trades and run summary.

Synthetic runs generate token lifecycles from --seed. External runs replay the
events recorded by --replay-run-id on the same clock.

Examples:
  memesim run --preset aggressive --hours 24 --seed 7
  memesim run --storage postgres --replay-run-id 01J... --preset conservative`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulation(cmd, a, &f)
		},
	}

	f.cfg.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&f.replayRunID, "replay-run-id", "", "recorded run whose events feed an external run")
	fl.BoolVar(&f.json, "json", false, "print the run summary as JSON")
	fl.StringVar(&f.reportDir, "report-dir", "", "write markdown and csv reports into this directory")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	return cmd
}

func runSimulation(cmd *cobra.Command, a *app, f *runFlags) error {
	ctx := cmd.Context()
	log := a.log

	if f.replayRunID != "" && !cmd.Flags().Changed("mode") {
		if err := cmd.Flags().Set("mode", string(domain.ModeExternal)); err != nil {
			return err
		}
	}
	cfg, err := f.cfg.load(cmd)
	if err != nil {
		return err
	}
	if cfg.Run.Mode == domain.ModeExternal && f.replayRunID == "" {
		return errors.New("--replay-run-id is required in external mode")
	}

	a.store.resolve(cmd)
	b, err := a.store.openBackend(ctx, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Run.Mode == domain.ModeExternal {
		recorded, err := b.stores.Runs.GetByID(ctx, f.replayRunID)
		if err != nil {
			return fmt.Errorf("load replay run %s: %w", f.replayRunID, err)
		}
		cfg = simulation.AlignToRun(cfg, recorded)
	}

	var metrics *observability.Metrics
	if f.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = observability.NewMetrics("", reg)
		stop := serveMetrics(f.metricsAddr, reg, log)
		defer stop()
	}

	runID := idhash.NewRunID()
	l, err := newLedger(runID, b, log)
	if err != nil {
		return err
	}

	src, err := simulation.NewSource(cfg, simulation.SourceOptions{
		Events:      b.stores.Observations,
		SourceRunID: f.replayRunID,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	runner, err := simulation.NewRunner(simulation.RunnerOptions{
		Config:      cfg,
		Source:      src,
		Ledger:      l,
		RunID:       runID,
		SourceRunID: f.replayRunID,
		Logger:      log,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	if f.reportDir != "" {
		r, err := b.reportGenerator(50).Generate(ctx, runID)
		if err != nil {
			if res.Summary.LedgerFailures == 0 {
				return fmt.Errorf("generate report: %w", err)
			}
			// the stored run is incomplete; report on the in-process result
			log.Warn("report from stored run failed, using in-process result", zap.Error(err))
			r = reporting.Build(res.Summary, res.Trades, time.Now().UTC())
		}
		paths, err := reporting.WriteFiles(f.reportDir, r)
		if err != nil {
			return err
		}
		log.Info("reports written", zap.Strings("files", paths))
	}

	if f.json {
		return printJSON(cmd.OutOrStdout(), res.Summary)
	}
	return printSummary(cmd.OutOrStdout(), res.Summary)
}

// newLedger records into the run storage and, when configured, copies token
// events into the ClickHouse analytics store.
func newLedger(runID string, b *backend, log *zap.Logger) (ledger.TradeLedger, error) {
	primary, err := ledger.NewRecorder(ledger.RecorderOptions{
		RunID:  runID,
		Events: b.stores.Observations,
		Trades: b.stores.Trades,
		Runs:   b.stores.Runs,
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	if b.analytics == nil {
		return primary, nil
	}

	analytics, err := ledger.NewRecorder(ledger.RecorderOptions{
		RunID:  runID,
		Events: b.analytics,
		Logger: log.Named("analytics"),
	})
	if err != nil {
		return nil, err
	}
	return ledger.Multi{primary, analytics}, nil
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(reg))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, s *domain.RunSummary) error {
	_, err := fmt.Fprintf(w, `Run %s
  Mode:          %s (preset %s, seed %d)
  Ticks:         %d x %dms
  Observations:  %d (%d skipped)
  Admitted:      %d (capacity rejections %d, capital rejections %d)
  Rejections:    %d
  Trades:        %d (%d wins, %d losses)
  Final equity:  %s SOL
  Realized P&L:  %s SOL
  Digest:        %s
`,
		s.RunID,
		s.Mode, s.Preset, s.Seed,
		s.Ticks, s.TickIntervalMs,
		s.Observations, s.SkippedObservations,
		s.Admitted, s.CapacityRejections, s.CapitalRejections,
		s.TotalRejections(),
		s.TradesClosed, s.Wins, s.Losses,
		s.FinalEquity.StringFixed(9),
		s.RealizedPnL.StringFixed(9),
		s.Digest,
	)
	if err != nil {
		return err
	}
	if s.LedgerFailures > 0 {
		_, err = fmt.Fprintf(w, "  Ledger failures: %d (stored run is incomplete)\n", s.LedgerFailures)
	}
	return err
}
