package domain

import "github.com/shopspring/decimal"

// Trade is the immutable record of a closed position.
// Stored in the trades table.
type Trade struct {
	TradeID string // deterministic hash of token_id and opened_at_ms
	TokenID string

	// Entry
	EntryPrice       float64
	Quantity         float64
	CapitalCommitted decimal.Decimal // SOL
	OpenedAtMs       int64
	OpenTick         int
	EntryScore       float64

	// Exit
	ExitPrice  float64
	ClosedAtMs int64
	CloseTick  int
	ExitReason string         // reason code, see ExitReason* constants
	Status     PositionStatus // terminal status

	// Outcome
	RealizedPnL decimal.Decimal // SOL, rounded to lamports
	ReturnPct   float64         // exit/entry - 1
	PeakPrice   float64
	HoldTicks   int
}

// IsWin reports whether the trade realized a positive P&L.
func (t *Trade) IsWin() bool {
	return t.RealizedPnL.IsPositive()
}

// HoldDurationMs returns the time between open and close.
func (t *Trade) HoldDurationMs() int64 {
	return t.ClosedAtMs - t.OpenedAtMs
}
