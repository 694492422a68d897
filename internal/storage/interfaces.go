package storage

import (
	"context"

	"solana-memebot-sim/internal/domain"
)

// ObservationStore provides access to token_events storage.
// Events are scoped by run: the same token and timestamp may appear in many runs.
type ObservationStore interface {
	// InsertBulk adds multiple events atomically.
	// Fails entire batch on duplicate (run_id, token_id, timestamp_ms).
	InsertBulk(ctx context.Context, runID string, obs []*domain.Observation) error

	// GetByRun retrieves all events of a run, ordered by (timestamp_ms, token_id) ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.Observation, error)

	// GetByTimeRange retrieves events of a run within [start, end] (inclusive),
	// ordered by (timestamp_ms, token_id) ASC.
	GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.Observation, error)
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a closed trade. Returns ErrDuplicateKey if (run_id, trade_id) exists.
	Insert(ctx context.Context, runID string, t *domain.Trade) error

	// GetByID retrieves a trade. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID, tradeID string) (*domain.Trade, error)

	// GetByRun retrieves all trades of a run, ordered by (closed_at_ms, token_id) ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.Trade, error)
}

// RunStore provides access to run_metadata storage.
type RunStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, s *domain.RunSummary) error

	// GetByID retrieves a run summary. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// List retrieves all run summaries, ordered by (started_at, run_id) ASC.
	List(ctx context.Context) ([]*domain.RunSummary, error)
}

// Stores bundles the stores a run writes to.
type Stores struct {
	Observations ObservationStore
	Trades       TradeStore
	Runs         RunStore
}
