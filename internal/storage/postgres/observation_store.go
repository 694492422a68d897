package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

const observationColumns = `
	token_id, timestamp_ms, market_cap_usd, dev_holding, liquidity_usd, holders, price,
	mint_upgradeable, freeze_authority, supply_spike, known_rugger, momentum, graduated,
	score`

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *ObservationStore) InsertBulk(ctx context.Context, runID string, obs []*domain.Observation) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(obs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO token_events (
			run_id, ` + observationColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15
		)
	`

	batch := &pgx.Batch{}
	for _, o := range obs {
		if o == nil || o.TokenID == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(query,
			runID, o.TokenID, o.TimestampMs, o.MarketCapUSD, o.DevHolding, o.LiquidityUSD, o.Holders, o.Price,
			o.MintUpgradeable, o.FreezeAuthority, o.SupplySpike, o.KnownRugger, o.Momentum, o.Graduated,
			o.Score,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range obs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert token event in bulk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all events of a run, ordered by (timestamp_ms, token_id) ASC.
func (s *ObservationStore) GetByRun(ctx context.Context, runID string) ([]*domain.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM token_events
		WHERE run_id = $1
		ORDER BY timestamp_ms ASC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query token events by run: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByTimeRange retrieves events of a run within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM token_events
		WHERE run_id = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query token events by time range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows pgx.Rows) ([]*domain.Observation, error) {
	var result []*domain.Observation
	for rows.Next() {
		var o domain.Observation
		err := rows.Scan(
			&o.TokenID, &o.TimestampMs, &o.MarketCapUSD, &o.DevHolding, &o.LiquidityUSD, &o.Holders, &o.Price,
			&o.MintUpgradeable, &o.FreezeAuthority, &o.SupplySpike, &o.KnownRugger, &o.Momentum, &o.Graduated,
			&o.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token event: %w", err)
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token events: %w", err)
	}
	return result, nil
}
