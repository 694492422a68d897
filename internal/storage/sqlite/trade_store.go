package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// TradeStore implements storage.TradeStore using SQLite.
type TradeStore struct {
	db *DB
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(db *DB) *TradeStore {
	return &TradeStore{db: db}
}

var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `trade_id, token_id, entry_price, quantity, capital_committed, opened_at_ms, open_tick,
	entry_score, exit_price, closed_at_ms, close_tick, exit_reason, status,
	realized_pnl, return_pct, peak_price, hold_ticks`

// Insert adds a closed trade. Returns ErrDuplicateKey if (run_id, trade_id) exists.
func (s *TradeStore) Insert(ctx context.Context, runID string, t *domain.Trade) error {
	if runID == "" || t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO trades (run_id, `+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.TradeID, t.TokenID, t.EntryPrice, t.Quantity, t.CapitalCommitted.String(), t.OpenedAtMs, t.OpenTick,
		t.EntryScore, t.ExitPrice, t.ClosedAtMs, t.CloseTick, t.ExitReason, string(t.Status),
		t.RealizedPnL.String(), t.ReturnPct, t.PeakPrice, t.HoldTicks,
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
	row := s.db.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ? AND trade_id = ?`, runID, tradeID)

	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetByRun retrieves all trades of a run, ordered by (closed_at_ms, token_id) ASC.
func (s *TradeStore) GetByRun(ctx context.Context, runID string) ([]*domain.Trade, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY closed_at_ms ASC, token_id ASC`, runID)
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

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (*domain.Trade, error) {
	var t domain.Trade
	var committed, pnl, status string

	err := row.Scan(
		&t.TradeID, &t.TokenID, &t.EntryPrice, &t.Quantity, &committed, &t.OpenedAtMs, &t.OpenTick,
		&t.EntryScore, &t.ExitPrice, &t.ClosedAtMs, &t.CloseTick, &t.ExitReason, &status,
		&pnl, &t.ReturnPct, &t.PeakPrice, &t.HoldTicks,
	)
	if err != nil {
		return nil, err
	}

	if t.CapitalCommitted, err = parseDecimal("capital_committed", committed); err != nil {
		return nil, err
	}
	if t.RealizedPnL, err = parseDecimal("realized_pnl", pnl); err != nil {
		return nil, err
	}
	t.Status = domain.PositionStatus(status)
	return &t, nil
}
