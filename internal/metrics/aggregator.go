package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// ErrNoTrades is returned when no trades are available for aggregation.
var ErrNoTrades = errors.New("no trades available for aggregation")

// Aggregator computes run statistics from stored trades.
type Aggregator struct {
	tradeStore storage.TradeStore
	runStore   storage.RunStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(tradeStore storage.TradeStore, runStore storage.RunStore) *Aggregator {
	return &Aggregator{
		tradeStore: tradeStore,
		runStore:   runStore,
	}
}

// ForRun loads the trades of runID and computes their statistics.
// Returns ErrNoTrades if the run closed no trades.
func (a *Aggregator) ForRun(ctx context.Context, runID string) (*RunStats, error) {
	trades, err := a.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", runID, err)
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	return Compute(trades), nil
}

// RunStatsEntry pairs a stored run with its statistics.
type RunStatsEntry struct {
	Summary *domain.RunSummary
	Stats   *RunStats
}

// AllRuns computes statistics for every stored run, ordered by start time.
// Runs without trades get empty statistics.
func (a *Aggregator) AllRuns(ctx context.Context) ([]RunStatsEntry, error) {
	runs, err := a.runStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].RunID < runs[j].RunID
	})

	entries := make([]RunStatsEntry, 0, len(runs))
	for _, run := range runs {
		stats, err := a.ForRun(ctx, run.RunID)
		if errors.Is(err, ErrNoTrades) {
			stats = Compute(nil)
		} else if err != nil {
			return nil, err
		}
		entries = append(entries, RunStatsEntry{Summary: run, Stats: stats})
	}
	return entries, nil
}
