package source

import (
	"context"
	"fmt"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// StoreFetcher replays the token events recorded for a previous run.
type StoreFetcher struct {
	store storage.ObservationStore
	runID string
}

var _ Fetcher = (*StoreFetcher)(nil)

// NewStoreFetcher creates a fetcher over the events of runID.
func NewStoreFetcher(store storage.ObservationStore, runID string) *StoreFetcher {
	return &StoreFetcher{store: store, runID: runID}
}

// FetchWindow returns the recorded events with timestamps in (fromMs, toMs].
func (f *StoreFetcher) FetchWindow(ctx context.Context, fromMs, toMs int64) ([]*domain.Observation, error) {
	obs, err := f.store.GetByTimeRange(ctx, f.runID, fromMs+1, toMs)
	if err != nil {
		return nil, fmt.Errorf("load events of run %s: %w", f.runID, err)
	}
	return obs, nil
}
