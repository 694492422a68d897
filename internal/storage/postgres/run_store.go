package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runSelect = `
	SELECT
		run_id, mode, preset, seed, source_run_id, started_at, finished_at,
		ticks, tick_interval_ms, start_time_ms,
		observations, skipped_observations, admitted, rejections::text,
		capacity_rejections, capital_rejections,
		trades_closed, wins, losses,
		initial_bankroll::text, final_equity::text, realized_pnl::text,
		max_open_positions, ledger_failures, digest, config_json::text
	FROM run_metadata`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	rejections, err := json.Marshal(r.Rejections)
	if err != nil {
		return fmt.Errorf("encode rejections: %w", err)
	}
	if r.Rejections == nil {
		rejections = []byte("{}")
	}
	config := []byte(r.ConfigJSON)
	if len(config) == 0 {
		config = []byte("{}")
	}

	query := `
		INSERT INTO run_metadata (
			run_id, mode, preset, seed, source_run_id, started_at, finished_at,
			ticks, tick_interval_ms, start_time_ms,
			observations, skipped_observations, admitted, rejections,
			capacity_rejections, capital_rejections,
			trades_closed, wins, losses,
			initial_bankroll, final_equity, realized_pnl,
			max_open_positions, ledger_failures, digest, config_json
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14::jsonb,
			$15, $16,
			$17, $18, $19,
			$20::numeric, $21::numeric, $22::numeric,
			$23, $24, $25, $26::jsonb
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, string(r.Mode), r.Preset, r.Seed, r.SourceRunID, r.StartedAt, r.FinishedAt,
		r.Ticks, r.TickIntervalMs, r.StartTimeMs,
		r.Observations, r.SkippedObservations, r.Admitted, string(rejections),
		r.CapacityRejections, r.CapitalRejections,
		r.TradesClosed, r.Wins, r.Losses,
		numericParam(r.InitialBankroll), numericParam(r.FinalEquity), numericParam(r.RealizedPnL),
		r.MaxOpenPositions, r.LedgerFailures, r.Digest, string(config),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run metadata: %w", err)
	}
	return nil
}

// GetByID retrieves a run summary. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	query := runSelect + `
		WHERE run_id = $1
	`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run metadata: %w", err)
	}
	return r, nil
}

// List retrieves all run summaries, ordered by (started_at, run_id) ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunSummary, error) {
	query := runSelect + `
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list run metadata: %w", err)
	}
	defer rows.Close()

	var result []*domain.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run metadata: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run metadata: %w", err)
	}
	return result, nil
}

func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var r domain.RunSummary
	var mode, rejections, bankroll, equity, pnl, config string

	err := row.Scan(
		&r.RunID, &mode, &r.Preset, &r.Seed, &r.SourceRunID, &r.StartedAt, &r.FinishedAt,
		&r.Ticks, &r.TickIntervalMs, &r.StartTimeMs,
		&r.Observations, &r.SkippedObservations, &r.Admitted, &rejections,
		&r.CapacityRejections, &r.CapitalRejections,
		&r.TradesClosed, &r.Wins, &r.Losses,
		&bankroll, &equity, &pnl,
		&r.MaxOpenPositions, &r.LedgerFailures, &r.Digest, &config,
	)
	if err != nil {
		return nil, err
	}

	r.Mode = domain.Mode(mode)
	if err := json.Unmarshal([]byte(rejections), &r.Rejections); err != nil {
		return nil, fmt.Errorf("decode rejections: %w", err)
	}
	if r.InitialBankroll, err = parseNumeric("initial_bankroll", bankroll); err != nil {
		return nil, err
	}
	if r.FinalEquity, err = parseNumeric("final_equity", equity); err != nil {
		return nil, err
	}
	if r.RealizedPnL, err = parseNumeric("realized_pnl", pnl); err != nil {
		return nil, err
	}
	r.ConfigJSON = []byte(config)
	return &r, nil
}
