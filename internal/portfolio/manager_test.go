package portfolio

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-memebot-sim/internal/domain"
)

const basePrice = 0.0001

func admitted(tokenID string, ts int64) *domain.Observation {
	return &domain.Observation{
		TokenID:      tokenID,
		TimestampMs:  ts,
		MarketCapUSD: 100_000,
		DevHolding:   0.05,
		LiquidityUSD: 15_000,
		Holders:      300,
		Price:        basePrice,
		Momentum:     true,
		Score:        87,
	}
}

func priced(tokenID string, ts int64, gain float64) *domain.Observation {
	o := admitted(tokenID, ts)
	o.Price = basePrice * (1 + gain)
	return o
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOpen_SizedAtPerTradeCap(t *testing.T) {
	m := NewManager(domain.DefaultConfig())

	pos, err := m.Open(admitted("token-a", 1000), 0)
	require.NoError(t, err)

	assert.True(t, pos.CapitalCommitted.Equal(dec("0.5")))
	assert.Equal(t, basePrice, pos.EntryPrice)
	assert.Equal(t, domain.StatusOpen, pos.Status)
	assert.InDelta(t, 0.5*30/basePrice, pos.Quantity, 1e-6)

	assert.True(t, m.Available().Equal(dec("2.5")))
	assert.True(t, m.Committed().Equal(dec("0.5")))
	assert.Equal(t, 1, m.OpenCount())
	require.NoError(t, m.CheckInvariants())
}

func TestEvaluate_Outcomes(t *testing.T) {
	m := NewManager(domain.DefaultConfig())

	assert.Equal(t, domain.OutcomeOpened, m.Evaluate(admitted("token-a", 1000), 0))
	assert.Equal(t, domain.OutcomeAlreadyOpen, m.Evaluate(admitted("token-a", 2000), 1))

	for i := 0; i < 4; i++ {
		assert.Equal(t, domain.OutcomeOpened, m.Evaluate(admitted(fmt.Sprintf("token-%d", i), 1000), 0))
	}
	assert.Equal(t, 5, m.OpenCount())

	before := m.Available()
	assert.Equal(t, domain.OutcomeCapacityExhausted, m.Evaluate(admitted("token-z", 1000), 0))
	assert.True(t, m.Available().Equal(before), "rejected open must not move capital")
	assert.Equal(t, 5, m.OpenCount())
	require.NoError(t, m.CheckInvariants())
}

func TestEvaluate_InsufficientCapital(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Portfolio.Bankroll = 1.2
	cfg.Portfolio.PerTradeCap = 0.5
	m := NewManager(cfg)

	assert.Equal(t, domain.OutcomeOpened, m.Evaluate(admitted("token-a", 1000), 0))
	assert.Equal(t, domain.OutcomeOpened, m.Evaluate(admitted("token-b", 1000), 0))
	// 0.2 left: no partial sizing
	assert.Equal(t, domain.OutcomeInsufficientCapital, m.Evaluate(admitted("token-c", 1000), 0))
	assert.True(t, m.Available().Equal(dec("0.2")))
	assert.False(t, m.Has("token-c"))
	require.NoError(t, m.CheckInvariants())
}

func TestEvaluate_InvalidPrice(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	obs := admitted("token-a", 1000)
	obs.Price = 0

	assert.Equal(t, domain.OutcomeInvalidObservation, m.Evaluate(obs, 0))
	assert.Equal(t, 0, m.OpenCount())
}

func TestTick_ProfitBandSettles(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	_, err := m.Open(admitted("token-a", 1000), 0)
	require.NoError(t, err)

	trade, err := m.Tick(priced("token-a", 2000, 0.60), 1)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, domain.StatusClosedProfitBand, trade.Status)
	assert.Equal(t, domain.ExitReasonProfitBand, trade.ExitReason)
	assert.True(t, trade.RealizedPnL.Equal(dec("0.3")), "pnl %s", trade.RealizedPnL)
	assert.Equal(t, 1, trade.HoldTicks)
	assert.Len(t, trade.TradeID, 64)

	assert.False(t, m.Has("token-a"))
	assert.True(t, m.Available().Equal(dec("3.3")))
	assert.True(t, m.Committed().IsZero())
	assert.True(t, m.RealizedPnL().Equal(dec("0.3")))
	require.NoError(t, m.CheckInvariants())
}

func TestTick_StopLossSettles(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	_, err := m.Open(admitted("token-a", 1000), 0)
	require.NoError(t, err)

	obs := priced("token-a", 2000, -0.25)
	obs.Graduated = true

	trade, err := m.Tick(obs, 1)
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.Equal(t, domain.StatusClosedStopLoss, trade.Status)
	assert.True(t, trade.RealizedPnL.Equal(dec("-0.125")), "pnl %s", trade.RealizedPnL)
	assert.True(t, m.Available().Equal(dec("2.875")))
	require.NoError(t, m.CheckInvariants())
}

func TestTick_StaysOpen(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	_, err := m.Open(admitted("token-a", 1000), 0)
	require.NoError(t, err)

	trade, err := m.Tick(priced("token-a", 2000, 0.10), 1)
	require.NoError(t, err)
	assert.Nil(t, trade)

	pos, ok := m.Position("token-a")
	require.True(t, ok)
	assert.InDelta(t, basePrice*1.1, pos.LastPrice, 1e-12)
	assert.Equal(t, int64(2000), pos.LastObservedAtMs)
}

func TestTick_ErrorsLeaveStateUnchanged(t *testing.T) {
	m := NewManager(domain.DefaultConfig())

	_, err := m.Tick(priced("token-a", 2000, 0.1), 1)
	assert.ErrorIs(t, err, ErrNoPosition)

	_, err = m.Open(admitted("token-a", 5000), 0)
	require.NoError(t, err)

	_, err = m.Tick(priced("token-a", 4000, 0.6), 1)
	require.Error(t, err)

	pos, ok := m.Position("token-a")
	require.True(t, ok)
	assert.Equal(t, int64(5000), pos.LastObservedAtMs)
	assert.Equal(t, domain.StatusOpen, pos.Status)
	require.NoError(t, m.CheckInvariants())
}

func TestCloseAll_EndOfRun(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	for _, id := range []string{"token-c", "token-a", "token-b"} {
		_, err := m.Open(admitted(id, 1000), 0)
		require.NoError(t, err)
	}
	_, err := m.Tick(priced("token-b", 2000, 0.2), 1)
	require.NoError(t, err)

	trades := m.CloseAll(9000, 9)
	require.Len(t, trades, 3)

	assert.Equal(t, "token-a", trades[0].TokenID)
	assert.Equal(t, "token-b", trades[1].TokenID)
	assert.Equal(t, "token-c", trades[2].TokenID)
	for _, tr := range trades {
		assert.Equal(t, domain.StatusClosedEndOfRun, tr.Status)
		assert.Equal(t, domain.ExitReasonEndOfRun, tr.ExitReason)
		assert.Equal(t, int64(9000), tr.ClosedAtMs)
	}
	assert.InDelta(t, basePrice*1.2, trades[1].ExitPrice, 1e-12)
	assert.Equal(t, 0, m.OpenCount())
	assert.Len(t, m.Trades(), 3)
	require.NoError(t, m.CheckInvariants())
}

func TestCapitalConservation(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	gains := []float64{0.6, -0.3, 0.05, 0.9, -0.21}

	for i, g := range gains {
		id := fmt.Sprintf("token-%d", i)
		_, err := m.Open(admitted(id, 1000), 0)
		require.NoError(t, err)
		_, err = m.Tick(priced(id, 2000, g), 1)
		require.NoError(t, err)
		require.NoError(t, m.CheckInvariants())
	}
	m.CloseAll(3000, 2)

	sum := decimal.Zero
	for _, tr := range m.Trades() {
		sum = sum.Add(tr.RealizedPnL)
	}
	assert.True(t, sum.Equal(m.RealizedPnL()))
	assert.True(t, m.Available().Equal(m.Bankroll().Add(sum)))
}

func TestRealizedPnL_Rounding(t *testing.T) {
	pnl := RealizedPnL(dec("0.5"), 3, 4)
	// 0.5 * 4/3 - 0.5 = 0.1666...
	assert.True(t, pnl.Equal(dec("0.166666667")), "got %s", pnl)
}

func TestCheckInvariants_DetectsCorruption(t *testing.T) {
	m := NewManager(domain.DefaultConfig())
	_, err := m.Open(admitted("token-a", 1000), 0)
	require.NoError(t, err)

	m.available = m.available.Add(dec("1"))
	assert.ErrorIs(t, m.CheckInvariants(), ErrInvariantViolated)
}
