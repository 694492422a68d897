package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeSelect = `
	SELECT
		trade_id, token_id,
		entry_price, quantity, capital_committed::text, opened_at_ms, open_tick, entry_score,
		exit_price, closed_at_ms, close_tick, exit_reason, status,
		realized_pnl::text, return_pct, peak_price, hold_ticks
	FROM trades`

// Insert adds a closed trade. Returns ErrDuplicateKey if (run_id, trade_id) exists.
func (s *TradeStore) Insert(ctx context.Context, runID string, t *domain.Trade) error {
	if runID == "" || t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trades (
			run_id, trade_id, token_id,
			entry_price, quantity, capital_committed, opened_at_ms, open_tick, entry_score,
			exit_price, closed_at_ms, close_tick, exit_reason, status,
			realized_pnl, return_pct, peak_price, hold_ticks
		) VALUES (
			$1, $2, $3,
			$4, $5, $6::numeric, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15::numeric, $16, $17, $18
		)
	`

	_, err := s.pool.Exec(ctx, query,
		runID, t.TradeID, t.TokenID,
		t.EntryPrice, t.Quantity, numericParam(t.CapitalCommitted), t.OpenedAtMs, t.OpenTick, t.EntryScore,
		t.ExitPrice, t.ClosedAtMs, t.CloseTick, t.ExitReason, string(t.Status),
		numericParam(t.RealizedPnL), t.ReturnPct, t.PeakPrice, t.HoldTicks,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetByID retrieves a trade. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, runID, tradeID string) (*domain.Trade, error) {
	query := tradeSelect + `
		WHERE run_id = $1 AND trade_id = $2
	`

	t, err := scanTrade(s.pool.QueryRow(ctx, query, runID, tradeID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetByRun retrieves all trades of a run, ordered by (closed_at_ms, token_id) ASC.
func (s *TradeStore) GetByRun(ctx context.Context, runID string) ([]*domain.Trade, error) {
	query := tradeSelect + `
		WHERE run_id = $1
		ORDER BY closed_at_ms ASC, token_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades by run: %w", err)
	}
	defer rows.Close()

	var result []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var committed, pnl, status string

	err := row.Scan(
		&t.TradeID, &t.TokenID,
		&t.EntryPrice, &t.Quantity, &committed, &t.OpenedAtMs, &t.OpenTick, &t.EntryScore,
		&t.ExitPrice, &t.ClosedAtMs, &t.CloseTick, &t.ExitReason, &status,
		&pnl, &t.ReturnPct, &t.PeakPrice, &t.HoldTicks,
	)
	if err != nil {
		return nil, err
	}

	if t.CapitalCommitted, err = parseNumeric("capital_committed", committed); err != nil {
		return nil, err
	}
	if t.RealizedPnL, err = parseNumeric("realized_pnl", pnl); err != nil {
		return nil, err
	}
	t.Status = domain.PositionStatus(status)
	return &t, nil
}
