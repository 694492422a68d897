package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/config"
	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/ledger"
	"solana-memebot-sim/internal/observability"
	"solana-memebot-sim/internal/portfolio"
	"solana-memebot-sim/internal/source"
	"solana-memebot-sim/internal/strategy"
)

// Runner errors
var (
	ErrNoSource = errors.New("simulation: event source is required")
	ErrNoRunID  = errors.New("simulation: run id is required")
)

// Runner drives one simulation run: it pulls observations tick by tick,
// scores and filters them, and lets the portfolio open and close positions.
// A Runner is single-use because its event source is stateful.
type Runner struct {
	cfg         domain.Config
	src         source.EventSource
	ledger      ledger.TradeLedger
	runID       string
	sourceRunID string
	log         *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Config      domain.Config
	Source      source.EventSource
	Ledger      ledger.TradeLedger // nil discards records
	RunID       string
	SourceRunID string // run replayed by an external source, if any
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Now         func() time.Time // wall clock for run start/finish stamps
}

// Result is the outcome of a completed run.
type Result struct {
	Summary *domain.RunSummary
	Trades  []*domain.Trade // in close order
}

// NewRunner validates the configuration and creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if opts.RunID == "" {
		return nil, ErrNoRunID
	}
	if err := config.Validate(opts.Config); err != nil {
		return nil, err
	}
	if opts.Ledger == nil {
		opts.Ledger = ledger.Discard{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		cfg:         opts.Config,
		src:         opts.Source,
		ledger:      opts.Ledger,
		runID:       opts.RunID,
		sourceRunID: opts.SourceRunID,
		log:         opts.Logger.Named("runner").With(zap.String("run_id", opts.RunID)),
		metrics:     opts.Metrics,
		now:         opts.Now,
	}, nil
}

// run holds the state of one Run call.
type run struct {
	*Runner
	strat   *strategy.Strategy
	pm      *portfolio.Manager
	summary *domain.RunSummary
}

// Run executes every tick of the configured clock and returns the run result.
// Context cancellation is checked between ticks; a cancelled run returns
// ctx.Err() and no result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	res, err := r.run(ctx, started)

	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordRun(string(r.cfg.Run.Mode), status, r.now().Sub(started).Seconds())
	return res, err
}

func (r *Runner) run(ctx context.Context, started time.Time) (*Result, error) {
	clk, err := clock.New(r.cfg.Run)
	if err != nil {
		return nil, err
	}

	cfgJSON, err := config.MarshalJSON(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	pm := portfolio.NewManager(r.cfg)
	st := &run{
		Runner: r,
		strat:  strategy.FromConfig(r.cfg),
		pm:     pm,
		summary: &domain.RunSummary{
			RunID:           r.runID,
			Mode:            r.cfg.Run.Mode,
			Preset:          r.cfg.Preset,
			Seed:            r.cfg.Run.Seed,
			SourceRunID:     r.sourceRunID,
			StartedAt:       started.UTC(),
			Ticks:           clk.Len(),
			TickIntervalMs:  clk.IntervalMs(),
			StartTimeMs:     clk.First().TimestampMs,
			Rejections:      make(map[domain.RejectReason]int),
			InitialBankroll: pm.Bankroll(),
			ConfigJSON:      cfgJSON,
		},
	}

	r.log.Info("run started",
		zap.String("mode", string(r.cfg.Run.Mode)),
		zap.String("preset", r.cfg.Preset),
		zap.Int64("seed", r.cfg.Run.Seed),
		zap.Int("ticks", clk.Len()))

	for _, tick := range clk.Ticks() {
		if err := ctx.Err(); err != nil {
			r.log.Warn("run cancelled", zap.Int("tick", tick.Index), zap.Error(err))
			return nil, err
		}
		if err := st.step(ctx, tick); err != nil {
			return nil, err
		}
	}

	last := clk.Last()
	for _, t := range st.pm.CloseAll(last.TimestampMs, last.Index) {
		st.recordTrade(ctx, t)
	}
	if err := st.pm.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("after end-of-run close: %w", err)
	}

	return st.finish(ctx), nil
}

// step processes one tick: exits first, then admissions, both in ascending
// token order.
func (st *run) step(ctx context.Context, tick clock.Tick) error {
	tickStart := st.now()

	batch, err := st.src.Next(ctx, tick)
	if err != nil {
		return fmt.Errorf("tick %d: fetch observations: %w", tick.Index, err)
	}

	type scored struct {
		obs      *domain.Observation
		decision strategy.Decision
	}
	events := make([]scored, 0, len(batch))

	for _, obs := range batch {
		if err := obs.Validate(); err != nil {
			st.log.Warn("skipping malformed observation",
				zap.Int("tick", tick.Index),
				zap.String("token", obs.TokenID),
				zap.Error(err))
			st.summary.SkippedObservations++
			st.metrics.RecordObservation(observability.StatusSkipped)
			continue
		}

		s, _, dec := st.strat.Evaluate(obs)
		st.summary.Observations++
		st.metrics.RecordObservation(observability.StatusScored)
		st.recordEvent(ctx, s)
		events = append(events, scored{obs: s, decision: dec})
	}

	closed := make(map[string]bool)
	for _, e := range events {
		if !st.pm.Has(e.obs.TokenID) {
			continue
		}
		t, err := st.pm.Tick(e.obs, tick.Index)
		if err != nil {
			return fmt.Errorf("tick %d: evaluate position %s: %w", tick.Index, e.obs.TokenID, err)
		}
		if t != nil {
			closed[t.TokenID] = true
			st.recordTrade(ctx, t)
		}
	}

	for _, e := range events {
		// A token closed this tick is not re-entered on the same observation.
		if closed[e.obs.TokenID] || st.pm.Has(e.obs.TokenID) {
			continue
		}
		if !e.decision.Admitted {
			st.summary.Rejections[e.decision.Reason]++
			st.metrics.RecordRejection(string(e.decision.Reason))
			continue
		}

		outcome := st.pm.Evaluate(e.obs, tick.Index)
		st.metrics.RecordAdmission(string(outcome))
		switch outcome {
		case domain.OutcomeOpened:
			st.summary.Admitted++
			st.log.Debug("position opened",
				zap.Int("tick", tick.Index),
				zap.String("token", e.obs.TokenID),
				zap.Float64("score", e.obs.Score),
				zap.Float64("price", e.obs.Price))
		case domain.OutcomeCapacityExhausted:
			st.summary.CapacityRejections++
		case domain.OutcomeInsufficientCapital:
			st.summary.CapitalRejections++
		}
	}

	if err := st.pm.CheckInvariants(); err != nil {
		return fmt.Errorf("tick %d: %w", tick.Index, err)
	}

	available, _ := st.pm.Available().Float64()
	realized, _ := st.pm.RealizedPnL().Float64()
	st.metrics.RecordTick(st.now().Sub(tickStart).Seconds(), st.pm.OpenCount(), available, realized)
	return nil
}

func (st *run) recordEvent(ctx context.Context, obs *domain.Observation) {
	if err := st.ledger.RecordEvent(ctx, obs); err != nil {
		st.ledgerFailed("event", err)
	}
}

func (st *run) recordTrade(ctx context.Context, t *domain.Trade) {
	st.metrics.RecordTrade(t.ExitReason)
	st.log.Debug("position closed",
		zap.String("token", t.TokenID),
		zap.String("exit_reason", t.ExitReason),
		zap.String("pnl", t.RealizedPnL.String()))

	if err := st.ledger.RecordTrade(ctx, t); err != nil {
		st.ledgerFailed("trade", err)
	}
}

func (st *run) ledgerFailed(record string, err error) {
	st.summary.LedgerFailures++
	st.metrics.RecordLedgerFailure()
	st.log.Warn("ledger write failed", zap.String("record", record), zap.Error(err))
}

// finish completes the summary, flushes the ledger and records the summary.
func (st *run) finish(ctx context.Context) *Result {
	trades := st.pm.Trades()

	s := st.summary
	s.TradesClosed = len(trades)
	for _, t := range trades {
		if t.IsWin() {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	s.FinalEquity = st.pm.Equity()
	s.RealizedPnL = st.pm.RealizedPnL()
	s.MaxOpenPositions = st.pm.PeakOpenCount()
	s.Digest = Digest(trades)

	if f, ok := st.ledger.(ledger.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			st.ledgerFailed("flush", err)
		}
	}

	s.FinishedAt = st.now().UTC()
	if err := st.ledger.RecordRunSummary(ctx, s.Clone()); err != nil {
		st.ledgerFailed("run summary", err)
		if f, ok := st.ledger.(ledger.Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				st.log.Error("run summary not recorded", zap.Error(err))
			}
		}
	}

	st.log.Info("run finished",
		zap.Int("observations", s.Observations),
		zap.Int("skipped", s.SkippedObservations),
		zap.Int("trades", s.TradesClosed),
		zap.Int("wins", s.Wins),
		zap.String("realized_pnl", s.RealizedPnL.String()),
		zap.Int("ledger_failures", s.LedgerFailures),
		zap.String("digest", s.Digest))

	return &Result{Summary: s, Trades: trades}
}
