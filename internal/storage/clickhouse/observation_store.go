package clickhouse

import (
	"context"
	"fmt"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// ObservationStore implements storage.ObservationStore using ClickHouse.
// It holds the analytics copy of the token event stream.
type ObservationStore struct {
	conn *Conn
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(conn *Conn) *ObservationStore {
	return &ObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

const observationColumns = `
	token_id, timestamp_ms, market_cap_usd, dev_holding, liquidity_usd, holders, price,
	mint_upgradeable, freeze_authority, supply_spike, known_rugger, momentum, graduated,
	score`

// InsertBulk adds multiple events. Fails entire batch on duplicate (run_id, token_id, timestamp_ms).
// MergeTree does not enforce uniqueness, so duplicates are checked before the batch is sent.
func (s *ObservationStore) InsertBulk(ctx context.Context, runID string, obs []*domain.Observation) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(obs) == 0 {
		return nil
	}

	type key struct {
		tokenID     string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(obs))
	var minTs, maxTs int64
	for i, o := range obs {
		if o == nil || o.TokenID == "" || o.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
		k := key{o.TokenID, o.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		if i == 0 || o.TimestampMs < minTs {
			minTs = o.TimestampMs
		}
		if i == 0 || o.TimestampMs > maxTs {
			maxTs = o.TimestampMs
		}
	}

	// Check for duplicates against existing rows in one range query.
	existing, err := s.GetByTimeRange(ctx, runID, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, o := range existing {
		if _, dup := seen[key{o.TokenID, o.TimestampMs}]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO token_events (run_id, `+observationColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			runID, o.TokenID, uint64(o.TimestampMs), o.MarketCapUSD, o.DevHolding, o.LiquidityUSD, uint32(o.Holders), o.Price,
			boolToUInt8(o.MintUpgradeable), boolToUInt8(o.FreezeAuthority), boolToUInt8(o.SupplySpike),
			boolToUInt8(o.KnownRugger), boolToUInt8(o.Momentum), boolToUInt8(o.Graduated),
			o.Score,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves all events of a run, ordered by (timestamp_ms, token_id) ASC.
func (s *ObservationStore) GetByRun(ctx context.Context, runID string) ([]*domain.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM token_events
		WHERE run_id = ?
		ORDER BY timestamp_ms ASC, token_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByTimeRange retrieves events of a run within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.Observation, error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	query := `
		SELECT ` + observationColumns + `
		FROM token_events
		WHERE run_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, token_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows chRows) ([]*domain.Observation, error) {
	var result []*domain.Observation

	for rows.Next() {
		var o domain.Observation
		var timestampMs uint64
		var holders uint32
		var upgradeable, freeze, spike, rugger, momentum, graduated uint8

		err := rows.Scan(
			&o.TokenID, &timestampMs, &o.MarketCapUSD, &o.DevHolding, &o.LiquidityUSD, &holders, &o.Price,
			&upgradeable, &freeze, &spike, &rugger, &momentum, &graduated,
			&o.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token event row: %w", err)
		}

		o.TimestampMs = int64(timestampMs)
		o.Holders = int(holders)
		o.MintUpgradeable = upgradeable == 1
		o.FreezeAuthority = freeze == 1
		o.SupplySpike = spike == 1
		o.KnownRugger = rugger == 1
		o.Momentum = momentum == 1
		o.Graduated = graduated == 1
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token event rows: %w", err)
	}
	return result, nil
}
