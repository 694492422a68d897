package stub

import (
	"context"
	"sync"

	"solana-memebot-sim/internal/domain"
)

// Fetcher returns fixed in-memory observations for testing.
// Observations can be intentionally unordered to test sorting.
// Implements source.Fetcher interface.
type Fetcher struct {
	mu       sync.Mutex
	obs      []*domain.Observation
	failures int
	err      error
	calls    int
}

// NewFetcher creates a stub fetcher with the given observations.
func NewFetcher(obs []*domain.Observation) *Fetcher {
	return &Fetcher{obs: obs}
}

// FailFirst makes the next n calls return err.
func (f *Fetcher) FailFirst(n int, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
	f.err = err
	return f
}

// Calls returns how many times FetchWindow was invoked.
func (f *Fetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FetchWindow returns copies of observations with timestamps in (fromMs, toMs].
func (f *Fetcher) FetchWindow(_ context.Context, fromMs, toMs int64) ([]*domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.err
	}

	var result []*domain.Observation
	for _, o := range f.obs {
		if o.TimestampMs > fromMs && o.TimestampMs <= toMs {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}
