package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// ObservationStore implements storage.ObservationStore using SQLite.
type ObservationStore struct {
	db *DB
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(db *DB) *ObservationStore {
	return &ObservationStore{db: db}
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

const observationColumns = `token_id, timestamp_ms, market_cap_usd, dev_holding, liquidity_usd, holders, price,
	mint_upgradeable, freeze_authority, supply_spike, known_rugger, momentum, graduated, score`

// InsertBulk adds multiple events in one transaction. Fails entire batch on any duplicate.
func (s *ObservationStore) InsertBulk(ctx context.Context, runID string, obs []*domain.Observation) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(obs) == 0 {
		return nil
	}

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO token_events (run_id, `+observationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if o == nil || o.TokenID == "" {
			return storage.ErrInvalidInput
		}
		_, err := stmt.ExecContext(ctx,
			runID, o.TokenID, o.TimestampMs, o.MarketCapUSD, o.DevHolding, o.LiquidityUSD, o.Holders, o.Price,
			boolToInt(o.MintUpgradeable), boolToInt(o.FreezeAuthority), boolToInt(o.SupplySpike),
			boolToInt(o.KnownRugger), boolToInt(o.Momentum), boolToInt(o.Graduated), o.Score,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert token event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all events of a run, ordered by (timestamp_ms, token_id) ASC.
func (s *ObservationStore) GetByRun(ctx context.Context, runID string) ([]*domain.Observation, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM token_events
		WHERE run_id = ?
		ORDER BY timestamp_ms ASC, token_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query token events by run: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByTimeRange retrieves events of a run within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.Observation, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM token_events
		WHERE run_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, token_id ASC`, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query token events by time range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]*domain.Observation, error) {
	var result []*domain.Observation
	for rows.Next() {
		var o domain.Observation
		var upgradeable, freeze, spike, rugger, momentum, graduated int
		err := rows.Scan(
			&o.TokenID, &o.TimestampMs, &o.MarketCapUSD, &o.DevHolding, &o.LiquidityUSD, &o.Holders, &o.Price,
			&upgradeable, &freeze, &spike, &rugger, &momentum, &graduated, &o.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token event: %w", err)
		}
		o.MintUpgradeable = upgradeable == 1
		o.FreezeAuthority = freeze == 1
		o.SupplySpike = spike == 1
		o.KnownRugger = rugger == 1
		o.Momentum = momentum == 1
		o.Graduated = graduated == 1
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token events: %w", err)
	}
	return result, nil
}
