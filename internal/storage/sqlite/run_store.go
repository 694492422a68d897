package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// RunStore implements storage.RunStore using SQLite.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `run_id, mode, preset, seed, source_run_id, started_at_ns, finished_at_ns,
	ticks, tick_interval_ms, start_time_ms,
	observations, skipped_observations, admitted, rejections, capacity_rejections, capital_rejections,
	trades_closed, wins, losses, initial_bankroll, final_equity, realized_pnl,
	max_open_positions, ledger_failures, digest, config_json`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	rejections := []byte("{}")
	if r.Rejections != nil {
		var err error
		if rejections, err = json.Marshal(r.Rejections); err != nil {
			return fmt.Errorf("encode rejections: %w", err)
		}
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO run_metadata (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, string(r.Mode), r.Preset, r.Seed, r.SourceRunID, r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(),
		r.Ticks, r.TickIntervalMs, r.StartTimeMs,
		r.Observations, r.SkippedObservations, r.Admitted, string(rejections), r.CapacityRejections, r.CapitalRejections,
		r.TradesClosed, r.Wins, r.Losses, r.InitialBankroll.String(), r.FinalEquity.String(), r.RealizedPnL.String(),
		r.MaxOpenPositions, r.LedgerFailures, r.Digest, string(r.ConfigJSON),
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
	row := s.db.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM run_metadata WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run metadata: %w", err)
	}
	return r, nil
}

// List retrieves all run summaries, ordered by (started_at, run_id) ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunSummary, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT `+runColumns+` FROM run_metadata ORDER BY started_at_ns ASC, run_id ASC`)
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

func scanRun(row rowScanner) (*domain.RunSummary, error) {
	var r domain.RunSummary
	var mode, rejections, bankroll, equity, pnl, config string
	var startedNs, finishedNs int64

	err := row.Scan(
		&r.RunID, &mode, &r.Preset, &r.Seed, &r.SourceRunID, &startedNs, &finishedNs,
		&r.Ticks, &r.TickIntervalMs, &r.StartTimeMs,
		&r.Observations, &r.SkippedObservations, &r.Admitted, &rejections, &r.CapacityRejections, &r.CapitalRejections,
		&r.TradesClosed, &r.Wins, &r.Losses, &bankroll, &equity, &pnl,
		&r.MaxOpenPositions, &r.LedgerFailures, &r.Digest, &config,
	)
	if err != nil {
		return nil, err
	}

	r.Mode = domain.Mode(mode)
	r.StartedAt = fromUnixNano(startedNs)
	r.FinishedAt = fromUnixNano(finishedNs)
	if err := json.Unmarshal([]byte(rejections), &r.Rejections); err != nil {
		return nil, fmt.Errorf("decode rejections: %w", err)
	}
	if r.InitialBankroll, err = parseDecimal("initial_bankroll", bankroll); err != nil {
		return nil, err
	}
	if r.FinalEquity, err = parseDecimal("final_equity", equity); err != nil {
		return nil, err
	}
	if r.RealizedPnL, err = parseDecimal("realized_pnl", pnl); err != nil {
		return nil, err
	}
	if config != "" {
		r.ConfigJSON = []byte(config)
	}
	return &r, nil
}
