// Package lifecycle implements the position state machine.
//
// Exit rules are evaluated in a fixed priority order on every observation of
// an open position; the first matching rule closes it:
//  1. stop loss: price at or below entry * (1 - StopLossPct), or dev holding rose by more than DevSpikeDelta since entry
//  2. liquidity event: graduation flag newly true, or liquidity above entry * LiquiditySpikeMultiplier
//  3. profit band: price within [entry * (1 + ProfitBandMin), entry * (1 + ProfitBandMax)]
//
// Price thresholds are compared in decimal so that a move of exactly the
// configured percentage hits its rule. Closed states are terminal.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
)

// Lifecycle errors.
var (
	ErrPositionClosed   = errors.New("lifecycle: position is closed")
	ErrTokenMismatch    = errors.New("lifecycle: observation token does not match position")
	ErrStaleObservation = errors.New("lifecycle: observation is older than the last one evaluated")
)

// Transition is the result of evaluating one observation.
type Transition struct {
	Status     domain.PositionStatus
	ExitReason string  // empty while open
	ExitPrice  float64 // set when closed
	ClosedAtMs int64   // set when closed
	Gain       float64 // unrealized (or realized, when closed) return vs entry
}

// Closed reports whether the transition closed the position.
func (t Transition) Closed() bool {
	return t.Status.IsTerminal()
}

// Evaluate applies obs to pos. Tracking fields are always updated; on a
// closing rule the status becomes terminal. pos is modified in place.
func Evaluate(pos *domain.Position, obs *domain.Observation, tick int, cfg domain.ExitConfig) (Transition, error) {
	if pos.Status.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: %s is %s", ErrPositionClosed, pos.TokenID, pos.Status)
	}
	if obs.TokenID != pos.TokenID {
		return Transition{}, fmt.Errorf("%w: position %s, observation %s", ErrTokenMismatch, pos.TokenID, obs.TokenID)
	}
	if obs.TimestampMs < pos.LastObservedAtMs {
		return Transition{}, fmt.Errorf("%w: %d < %d", ErrStaleObservation, obs.TimestampMs, pos.LastObservedAtMs)
	}

	gain := pos.Gain(obs.Price)
	status, reason := decide(pos, obs, cfg)

	pos.LastPrice = obs.Price
	pos.LastObservedAtMs = obs.TimestampMs
	pos.LastTick = tick
	pos.LastGraduated = obs.Graduated
	if obs.Price > pos.PeakPrice {
		pos.PeakPrice = obs.Price
	}

	t := Transition{Status: status, Gain: gain}
	if status.IsTerminal() {
		pos.Status = status
		t.ExitReason = reason
		t.ExitPrice = obs.Price
		t.ClosedAtMs = obs.TimestampMs
	}
	return t, nil
}

// decide returns the first matching rule. It reads pos but never writes it.
func decide(pos *domain.Position, obs *domain.Observation, cfg domain.ExitConfig) (domain.PositionStatus, string) {
	price := decimal.NewFromFloat(obs.Price)

	if price.LessThanOrEqual(threshold(pos.EntryPrice, -cfg.StopLossPct)) {
		return domain.StatusClosedStopLoss, domain.ExitReasonStopLoss
	}
	if obs.DevHolding-pos.EntryDevHolding > cfg.DevSpikeDelta {
		return domain.StatusClosedStopLoss, domain.ExitReasonDevSpike
	}

	if obs.Graduated && !pos.LastGraduated {
		return domain.StatusClosedLiquidityEvent, domain.ExitReasonGraduation
	}
	if cfg.LiquiditySpikeMultiplier > 0 && pos.EntryLiquidity > 0 &&
		obs.LiquidityUSD > pos.EntryLiquidity*cfg.LiquiditySpikeMultiplier {
		return domain.StatusClosedLiquidityEvent, domain.ExitReasonLiquiditySpike
	}

	if price.GreaterThanOrEqual(threshold(pos.EntryPrice, cfg.ProfitBandMin)) &&
		price.LessThanOrEqual(threshold(pos.EntryPrice, cfg.ProfitBandMax)) {
		return domain.StatusClosedProfitBand, domain.ExitReasonProfitBand
	}

	return domain.StatusOpen, ""
}

// threshold returns entry * (1 + pct).
func threshold(entry, pct float64) decimal.Decimal {
	return decimal.NewFromFloat(entry).Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct)))
}

// ForceClose closes an open position at its last observed price with the
// end-of-run reason. closedAtMs is the final tick of the run.
func ForceClose(pos *domain.Position, closedAtMs int64, tick int) (Transition, error) {
	if pos.Status.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: %s is %s", ErrPositionClosed, pos.TokenID, pos.Status)
	}

	pos.Status = domain.StatusClosedEndOfRun
	pos.LastTick = tick
	return Transition{
		Status:     domain.StatusClosedEndOfRun,
		ExitReason: domain.ExitReasonEndOfRun,
		ExitPrice:  pos.LastPrice,
		ClosedAtMs: closedAtMs,
		Gain:       pos.Gain(pos.LastPrice),
	}, nil
}
