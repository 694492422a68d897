package memory

import (
	"context"
	"sort"
	"sync"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.Trade // run_id -> trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]map[string]*domain.Trade),
	}
}

// Insert adds a closed trade. Returns ErrDuplicateKey if (run_id, trade_id) exists.
func (s *TradeStore) Insert(_ context.Context, runID string, t *domain.Trade) error {
	if runID == "" || t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.data[runID]
	if _, exists := run[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}
	if run == nil {
		run = make(map[string]*domain.Trade)
		s.data[runID] = run
	}

	copy := *t
	run[t.TradeID] = &copy
	return nil
}

// GetByID retrieves a trade. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, runID, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[runID][tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetByRun retrieves all trades of a run, ordered by (closed_at_ms, token_id) ASC.
func (s *TradeStore) GetByRun(_ context.Context, runID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data[runID] {
		copy := *t
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ClosedAtMs != result[j].ClosedAtMs {
			return result[i].ClosedAtMs < result[j].ClosedAtMs
		}
		return result[i].TokenID < result[j].TokenID
	})

	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
