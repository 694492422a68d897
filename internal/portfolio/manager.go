// Package portfolio owns capital and the open-position set.
//
// Capital is tracked in SOL with exact decimal arithmetic. At every tick
// boundary available + committed == bankroll + realized P&L, and no
// operation that fails leaves a partial change behind.
package portfolio

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/idhash"
	"solana-memebot-sim/internal/lifecycle"
)

// LamportPlaces is the decimal precision of SOL amounts.
const LamportPlaces = 9

// Manager errors.
var (
	ErrAlreadyOpen         = errors.New("portfolio: token already has an open position")
	ErrCapacityExhausted   = errors.New("portfolio: max concurrent positions reached")
	ErrInsufficientCapital = errors.New("portfolio: available capital below per-trade cap")
	ErrInvalidPrice        = errors.New("portfolio: entry price must be positive")
	ErrNoPosition          = errors.New("portfolio: no open position for token")
	ErrInvariantViolated   = errors.New("portfolio: invariant violated")
)

// Manager is the single-writer portfolio. It is not safe for concurrent use.
type Manager struct {
	bankroll    decimal.Decimal
	perTradeCap decimal.Decimal
	solUSD      float64
	maxPos      int
	preset      string
	exit        domain.ExitConfig

	available decimal.Decimal
	committed decimal.Decimal
	realized  decimal.Decimal

	positions map[string]*domain.Position
	trades    []*domain.Trade
	peakOpen  int
}

// NewManager creates a manager holding the full bankroll as available capital.
func NewManager(cfg domain.Config) *Manager {
	bankroll := decimal.NewFromFloat(cfg.Portfolio.Bankroll)
	return &Manager{
		bankroll:    bankroll,
		perTradeCap: decimal.NewFromFloat(cfg.Portfolio.PerTradeCap),
		solUSD:      cfg.Portfolio.SolUSDPrice,
		maxPos:      cfg.Portfolio.MaxPositions,
		preset:      cfg.Preset,
		exit:        cfg.Exit,
		available:   bankroll,
		committed:   decimal.Zero,
		realized:    decimal.Zero,
		positions:   make(map[string]*domain.Position),
	}
}

// Evaluate tries to open a position for an admitted observation and reports
// the outcome. Rejections are outcomes, not errors, and leave state untouched.
func (m *Manager) Evaluate(obs *domain.Observation, tick int) domain.AdmissionOutcome {
	_, err := m.Open(obs, tick)
	switch {
	case err == nil:
		return domain.OutcomeOpened
	case errors.Is(err, ErrAlreadyOpen):
		return domain.OutcomeAlreadyOpen
	case errors.Is(err, ErrCapacityExhausted):
		return domain.OutcomeCapacityExhausted
	case errors.Is(err, ErrInsufficientCapital):
		return domain.OutcomeInsufficientCapital
	default:
		return domain.OutcomeInvalidObservation
	}
}

// Open commits exactly the per-trade cap at the observation's price.
// There is no partial sizing: if available capital is below the cap the open fails.
func (m *Manager) Open(obs *domain.Observation, tick int) (*domain.Position, error) {
	if _, ok := m.positions[obs.TokenID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, obs.TokenID)
	}
	if len(m.positions) >= m.maxPos {
		return nil, fmt.Errorf("%w: %d/%d", ErrCapacityExhausted, len(m.positions), m.maxPos)
	}
	if m.available.LessThan(m.perTradeCap) {
		return nil, fmt.Errorf("%w: available %s, cap %s", ErrInsufficientCapital, m.available, m.perTradeCap)
	}
	if obs.Price <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidPrice, obs.Price)
	}

	capSOL, _ := m.perTradeCap.Float64()
	pos := &domain.Position{
		TokenID:          obs.TokenID,
		EntryPrice:       obs.Price,
		Quantity:         capSOL * m.solUSD / obs.Price,
		CapitalCommitted: m.perTradeCap,
		OpenedAtMs:       obs.TimestampMs,
		OpenTick:         tick,
		EntryScore:       obs.Score,
		EntryDevHolding:  obs.DevHolding,
		EntryLiquidity:   obs.LiquidityUSD,
		Status:           domain.StatusOpen,
		LastPrice:        obs.Price,
		LastObservedAtMs: obs.TimestampMs,
		LastTick:         tick,
		LastGraduated:    obs.Graduated,
		PeakPrice:        obs.Price,
	}

	m.available = m.available.Sub(m.perTradeCap)
	m.committed = m.committed.Add(m.perTradeCap)
	m.positions[obs.TokenID] = pos
	if len(m.positions) > m.peakOpen {
		m.peakOpen = len(m.positions)
	}

	return pos.Clone(), nil
}

// Tick feeds an observation for an open position through the lifecycle.
// Returns the closing trade, or nil if the position stays open.
func (m *Manager) Tick(obs *domain.Observation, tick int) (*domain.Trade, error) {
	pos, ok := m.positions[obs.TokenID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPosition, obs.TokenID)
	}

	// Evaluate on a copy so a lifecycle error cannot leave a half-updated position.
	next := pos.Clone()
	tr, err := lifecycle.Evaluate(next, obs, tick, m.exit)
	if err != nil {
		return nil, err
	}

	if !tr.Closed() {
		m.positions[obs.TokenID] = next
		return nil, nil
	}
	return m.settle(next, tr, tick), nil
}

// CloseAll force-closes every open position at its last observed price,
// in ascending token order. closedAtMs is the final tick timestamp.
func (m *Manager) CloseAll(closedAtMs int64, tick int) []*domain.Trade {
	var closed []*domain.Trade
	for _, tokenID := range m.openTokens() {
		pos := m.positions[tokenID].Clone()
		tr, err := lifecycle.ForceClose(pos, closedAtMs, tick)
		if err != nil {
			// Positions in the map are always open.
			continue
		}
		closed = append(closed, m.settle(pos, tr, tick))
	}
	return closed
}

// settle releases capital for a closed position and records the trade.
func (m *Manager) settle(pos *domain.Position, tr lifecycle.Transition, tick int) *domain.Trade {
	pnl := RealizedPnL(pos.CapitalCommitted, pos.EntryPrice, tr.ExitPrice)

	m.committed = m.committed.Sub(pos.CapitalCommitted)
	m.available = m.available.Add(pos.CapitalCommitted).Add(pnl)
	m.realized = m.realized.Add(pnl)
	delete(m.positions, pos.TokenID)

	trade := &domain.Trade{
		TradeID:          idhash.ComputeTradeID(pos.TokenID, m.preset, pos.OpenedAtMs),
		TokenID:          pos.TokenID,
		EntryPrice:       pos.EntryPrice,
		Quantity:         pos.Quantity,
		CapitalCommitted: pos.CapitalCommitted,
		OpenedAtMs:       pos.OpenedAtMs,
		OpenTick:         pos.OpenTick,
		EntryScore:       pos.EntryScore,
		ExitPrice:        tr.ExitPrice,
		ClosedAtMs:       tr.ClosedAtMs,
		CloseTick:        tick,
		ExitReason:       tr.ExitReason,
		Status:           tr.Status,
		RealizedPnL:      pnl,
		ReturnPct:        tr.Gain,
		PeakPrice:        pos.PeakPrice,
		HoldTicks:        tick - pos.OpenTick,
	}
	m.trades = append(m.trades, trade)
	return trade
}

// RealizedPnL returns committed * exit/entry - committed, rounded to lamports.
func RealizedPnL(committed decimal.Decimal, entryPrice, exitPrice float64) decimal.Decimal {
	ratio := decimal.NewFromFloat(exitPrice).Div(decimal.NewFromFloat(entryPrice))
	return committed.Mul(ratio).Sub(committed).Round(LamportPlaces)
}

// CheckInvariants verifies the tick-boundary invariants.
func (m *Manager) CheckInvariants() error {
	if len(m.positions) > m.maxPos {
		return fmt.Errorf("%w: %d open positions exceeds limit %d", ErrInvariantViolated, len(m.positions), m.maxPos)
	}

	sum := decimal.Zero
	for tokenID, pos := range m.positions {
		if pos.TokenID != tokenID {
			return fmt.Errorf("%w: position %s stored under %s", ErrInvariantViolated, pos.TokenID, tokenID)
		}
		if pos.Status != domain.StatusOpen {
			return fmt.Errorf("%w: position %s in map with status %s", ErrInvariantViolated, tokenID, pos.Status)
		}
		if pos.CapitalCommitted.GreaterThan(m.perTradeCap) {
			return fmt.Errorf("%w: position %s commits %s above cap %s", ErrInvariantViolated, tokenID, pos.CapitalCommitted, m.perTradeCap)
		}
		sum = sum.Add(pos.CapitalCommitted)
	}

	if !sum.Equal(m.committed) {
		return fmt.Errorf("%w: committed %s != sum of positions %s", ErrInvariantViolated, m.committed, sum)
	}
	if m.available.IsNegative() {
		return fmt.Errorf("%w: available capital %s is negative", ErrInvariantViolated, m.available)
	}
	if !m.available.Add(m.committed).Equal(m.Equity()) {
		return fmt.Errorf("%w: available %s + committed %s != bankroll %s + realized %s",
			ErrInvariantViolated, m.available, m.committed, m.bankroll, m.realized)
	}
	return nil
}

// Equity returns bankroll plus realized P&L.
func (m *Manager) Equity() decimal.Decimal {
	return m.bankroll.Add(m.realized)
}

// Bankroll returns the initial bankroll.
func (m *Manager) Bankroll() decimal.Decimal { return m.bankroll }

// Available returns uncommitted capital.
func (m *Manager) Available() decimal.Decimal { return m.available }

// Committed returns capital held in open positions.
func (m *Manager) Committed() decimal.Decimal { return m.committed }

// RealizedPnL returns the sum of P&L over closed trades.
func (m *Manager) RealizedPnL() decimal.Decimal { return m.realized }

// OpenCount returns the number of open positions.
func (m *Manager) OpenCount() int { return len(m.positions) }

// PeakOpenCount returns the highest number of simultaneously open positions.
func (m *Manager) PeakOpenCount() int { return m.peakOpen }

// Has reports whether tokenID has an open position.
func (m *Manager) Has(tokenID string) bool {
	_, ok := m.positions[tokenID]
	return ok
}

// Position returns a copy of the open position for tokenID.
func (m *Manager) Position(tokenID string) (*domain.Position, bool) {
	pos, ok := m.positions[tokenID]
	if !ok {
		return nil, false
	}
	return pos.Clone(), true
}

// Positions returns copies of open positions in ascending token order.
func (m *Manager) Positions() []*domain.Position {
	out := make([]*domain.Position, 0, len(m.positions))
	for _, tokenID := range m.openTokens() {
		out = append(out, m.positions[tokenID].Clone())
	}
	return out
}

// Trades returns the closed-trade history in close order.
func (m *Manager) Trades() []*domain.Trade {
	out := make([]*domain.Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

func (m *Manager) openTokens() []string {
	ids := make([]string, 0, len(m.positions))
	for id := range m.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
