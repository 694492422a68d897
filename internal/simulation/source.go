package simulation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/source"
	"solana-memebot-sim/internal/storage"
)

// ErrNoReplaySource is returned when external mode has no recorded run to replay.
var ErrNoReplaySource = errors.New("simulation: external mode needs an event store and a source run id")

// SourceOptions selects where an external run reads its observations.
type SourceOptions struct {
	Events      storage.ObservationStore // recorded token events
	SourceRunID string                   // run whose events are replayed
	Logger      *zap.Logger
}

// NewSource builds the event source for cfg.Run.Mode. Synthetic runs are
// seeded from cfg.Run.Seed; external runs replay the events recorded for
// opts.SourceRunID.
func NewSource(cfg domain.Config, opts SourceOptions) (source.EventSource, error) {
	switch cfg.Run.Mode {
	case domain.ModeSynthetic:
		return source.NewSynthetic(cfg.Synthetic, cfg.Run.Seed), nil
	case domain.ModeExternal:
		if opts.Events == nil || opts.SourceRunID == "" {
			return nil, ErrNoReplaySource
		}
		clk, err := clock.New(cfg.Run)
		if err != nil {
			return nil, err
		}
		ext, err := source.NewExternal(
			[]source.Fetcher{source.NewStoreFetcher(opts.Events, opts.SourceRunID)},
			source.ExternalOptions{
				Logger:             opts.Logger,
				IntervalMs:         clk.IntervalMs(),
				RequireMintAddress: true,
			},
		)
		if err != nil {
			return nil, err
		}
		return ext, nil
	default:
		return nil, fmt.Errorf("simulation: unknown mode %q", cfg.Run.Mode)
	}
}

// AlignToRun copies the clock of a recorded run into cfg so that a replay
// visits exactly the recorded tick timestamps.
func AlignToRun(cfg domain.Config, recorded *domain.RunSummary) domain.Config {
	cfg.Run.StartTimeMs = recorded.StartTimeMs
	if recorded.TickIntervalMs > 0 {
		cfg.Run.TicksPerHour = int(clock.MsPerHour / recorded.TickIntervalMs)
		cfg.Run.DurationHours = float64(recorded.Ticks) / float64(cfg.Run.TicksPerHour)
	}
	return cfg
}
