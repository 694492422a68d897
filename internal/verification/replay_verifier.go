package verification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-memebot-sim/internal/config"
	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/simulation"
	"solana-memebot-sim/internal/storage"
)

var (
	// ErrRunNotFound is returned when the run id doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrTradeNotFound is returned when the trade id doesn't exist in the run.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrNotReplayable is returned when a run lacks what a replay needs.
	ErrNotReplayable = errors.New("run is not replayable")
)

// ReplayVerifier implements Verifier by re-running the stored configuration.
// Synthetic runs are regenerated from their seed; external runs read the
// events of their source run from the event store.
type ReplayVerifier struct {
	trades storage.TradeStore
	runs   storage.RunStore
	events storage.ObservationStore
	log    *zap.Logger
}

var _ Verifier = (*ReplayVerifier)(nil)

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	TradeStore storage.TradeStore
	RunStore   storage.RunStore
	EventStore storage.ObservationStore // required for external runs only
	Logger     *zap.Logger
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ReplayVerifier{
		trades: opts.TradeStore,
		runs:   opts.RunStore,
		events: opts.EventStore,
		log:    opts.Logger.Named("verifier"),
	}
}

// VerifyTrade replays the run and compares the trade with tradeID.
func (v *ReplayVerifier) VerifyTrade(ctx context.Context, runID, tradeID string) (*VerificationResult, error) {
	stored, err := v.trades.GetByID(ctx, runID, tradeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrTradeNotFound, runID, tradeID)
		}
		return nil, err
	}

	res, err := v.replay(ctx, runID)
	if err != nil {
		return nil, err
	}

	for _, t := range res.Trades {
		if t.TradeID == tradeID {
			r := resultFor(stored, t)
			return &r, nil
		}
	}
	return &VerificationResult{
		TradeID:     tradeID,
		StoredPnL:   stored.RealizedPnL.StringFixed(9),
		Divergences: []FieldDivergence{{Field: "TradeID", Expected: tradeID, Actual: nil}},
	}, nil
}

// VerifyRun replays the run and compares every stored trade and the digest.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	summary, err := v.summary(ctx, runID)
	if err != nil {
		return nil, err
	}
	stored, err := v.trades.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	res, err := v.replayFrom(ctx, summary)
	if err != nil {
		return nil, err
	}

	report := compareRuns(runID, stored, res.Trades)
	report.StoredDigest = summary.Digest
	report.ReplayedDigest = res.Summary.Digest
	report.DigestMatch = summary.Digest == res.Summary.Digest

	v.log.Info("run verified",
		zap.String("run_id", runID),
		zap.Int("trades", report.TotalTrades),
		zap.Int("matched", report.MatchedTrades),
		zap.Int("divergent", report.DivergentTrades),
		zap.Int("missing", report.MissingTrades),
		zap.Int("extra", report.ExtraTrades),
		zap.Bool("digest_match", report.DigestMatch))

	return report, nil
}

func (v *ReplayVerifier) summary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	s, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return s, nil
}

func (v *ReplayVerifier) replay(ctx context.Context, runID string) (*simulation.Result, error) {
	s, err := v.summary(ctx, runID)
	if err != nil {
		return nil, err
	}
	return v.replayFrom(ctx, s)
}

// replayFrom re-runs the stored configuration without recording anything.
func (v *ReplayVerifier) replayFrom(ctx context.Context, s *domain.RunSummary) (*simulation.Result, error) {
	if len(s.ConfigJSON) == 0 {
		return nil, fmt.Errorf("%w: %s has no stored configuration", ErrNotReplayable, s.RunID)
	}
	cfg, err := config.FromJSON(s.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReplayable, err)
	}
	if cfg.Run.Mode == domain.ModeExternal && (s.SourceRunID == "" || v.events == nil) {
		return nil, fmt.Errorf("%w: external run %s has no event source", ErrNotReplayable, s.RunID)
	}

	src, err := simulation.NewSource(cfg, simulation.SourceOptions{
		Events:      v.events,
		SourceRunID: s.SourceRunID,
		Logger:      v.log,
	})
	if err != nil {
		return nil, err
	}

	runner, err := simulation.NewRunner(simulation.RunnerOptions{
		Config:      cfg,
		Source:      src,
		RunID:       s.RunID,
		SourceRunID: s.SourceRunID,
		Logger:      v.log,
	})
	if err != nil {
		return nil, err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", s.RunID, err)
	}
	return res, nil
}
