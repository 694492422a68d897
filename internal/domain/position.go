package domain

import "github.com/shopspring/decimal"

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

// Position statuses. Open is the only non-terminal state.
const (
	StatusOpen                 PositionStatus = "OPEN"
	StatusClosedStopLoss       PositionStatus = "CLOSED_STOP_LOSS"
	StatusClosedProfitBand     PositionStatus = "CLOSED_PROFIT_BAND"
	StatusClosedLiquidityEvent PositionStatus = "CLOSED_LIQUIDITY_EVENT"
	StatusClosedEndOfRun       PositionStatus = "CLOSED_END_OF_RUN"
)

// IsTerminal reports whether the status is a closed state.
func (s PositionStatus) IsTerminal() bool {
	return s != StatusOpen
}

// Exit reason codes recorded on trades.
const (
	ExitReasonStopLoss       = "STOP_LOSS"
	ExitReasonDevSpike       = "DEV_SPIKE"
	ExitReasonProfitBand     = "PROFIT_BAND"
	ExitReasonGraduation     = "GRADUATION"
	ExitReasonLiquiditySpike = "LIQUIDITY_SPIKE"
	ExitReasonEndOfRun       = "END_OF_RUN"
)

// Position is a capital commitment in a single token.
// Created only by the portfolio manager; mutated only by the lifecycle.
type Position struct {
	TokenID          string
	EntryPrice       float64         // USD price at entry
	Quantity         float64         // token units bought
	CapitalCommitted decimal.Decimal // SOL
	OpenedAtMs       int64
	OpenTick         int
	EntryScore       float64
	EntryDevHolding  float64
	EntryLiquidity   float64
	Status           PositionStatus

	// Tracking, updated on every evaluated observation.
	LastPrice        float64
	LastObservedAtMs int64
	LastTick         int
	LastGraduated    bool
	PeakPrice        float64
}

// Gain returns the unrealized return at price, relative to entry.
func (p *Position) Gain(price float64) float64 {
	return price/p.EntryPrice - 1
}

// Clone returns a copy of the position.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}
