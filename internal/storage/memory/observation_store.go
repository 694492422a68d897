package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.Observation // run_id -> event key
}

// NewObservationStore creates a new in-memory token event store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]map[string]*domain.Observation),
	}
}

// eventKey generates a unique key for an event within a run.
func eventKey(tokenID string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", tokenID, timestampMs)
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *ObservationStore) InsertBulk(_ context.Context, runID string, obs []*domain.Observation) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.data[runID]
	batchKeys := make(map[string]struct{}, len(obs))

	// First pass: check for duplicates (existing + intra-batch)
	for _, o := range obs {
		if o == nil || o.TokenID == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(o.TokenID, o.TimestampMs)
		if _, exists := run[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	if run == nil {
		run = make(map[string]*domain.Observation, len(obs))
		s.data[runID] = run
	}
	for _, o := range obs {
		copy := *o
		run[eventKey(o.TokenID, o.TimestampMs)] = &copy
	}

	return nil
}

// GetByRun retrieves all events of a run, ordered by (timestamp_ms, token_id) ASC.
func (s *ObservationStore) GetByRun(_ context.Context, runID string) ([]*domain.Observation, error) {
	return s.collect(runID, func(*domain.Observation) bool { return true }), nil
}

// GetByTimeRange retrieves events of a run within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(_ context.Context, runID string, start, end int64) ([]*domain.Observation, error) {
	return s.collect(runID, func(o *domain.Observation) bool {
		return o.TimestampMs >= start && o.TimestampMs <= end
	}), nil
}

func (s *ObservationStore) collect(runID string, keep func(*domain.Observation) bool) []*domain.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data[runID] {
		if keep(o) {
			copy := *o
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].TokenID < result[j].TokenID
	})

	return result
}

var _ storage.ObservationStore = (*ObservationStore)(nil)
