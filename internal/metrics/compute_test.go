package metrics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
)

func trade(token string, closedAt int64, ret float64, pnl string, reason string) *domain.Trade {
	return &domain.Trade{
		TradeID:     token + "-" + pnl,
		TokenID:     token,
		ClosedAtMs:  closedAt,
		ReturnPct:   ret,
		RealizedPnL: decimal.RequireFromString(pnl),
		ExitReason:  reason,
		HoldTicks:   int(closedAt / 1000),
	}
}

func TestCompute_Empty(t *testing.T) {
	stats := Compute(nil)

	if stats.TotalTrades != 0 || stats.WinRate != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if !stats.TotalPnL.IsZero() || !stats.MaxDrawdown.IsZero() {
		t.Errorf("expected zero pnl and drawdown, got %s / %s", stats.TotalPnL, stats.MaxDrawdown)
	}
	if stats.ExitReasons == nil {
		t.Error("expected non-nil exit reason map")
	}
}

func TestCompute_Counts(t *testing.T) {
	trades := []*domain.Trade{
		trade("tok-a", 3000, 0.6, "0.3", domain.ExitReasonProfitBand),
		trade("tok-b", 1000, -0.25, "-0.125", domain.ExitReasonStopLoss),
		trade("tok-a", 2000, -0.2, "-0.1", domain.ExitReasonStopLoss),
		trade("tok-c", 4000, 0.1, "0.05", domain.ExitReasonEndOfRun),
	}

	stats := Compute(trades)

	if stats.TotalTrades != 4 || stats.Wins != 2 || stats.Losses != 2 {
		t.Errorf("expected 4 trades 2 wins 2 losses, got %d/%d/%d", stats.TotalTrades, stats.Wins, stats.Losses)
	}
	if stats.WinRate != 0.5 {
		t.Errorf("expected win rate 0.5, got %f", stats.WinRate)
	}
	if stats.TotalTokens != 3 {
		t.Errorf("expected 3 tokens, got %d", stats.TotalTokens)
	}
	// tok-a and tok-c won at least once
	if math.Abs(stats.TokenWinRate-2.0/3.0) > 1e-12 {
		t.Errorf("expected token win rate 2/3, got %f", stats.TokenWinRate)
	}
	if !stats.TotalPnL.Equal(decimal.RequireFromString("0.125")) {
		t.Errorf("expected total pnl 0.125, got %s", stats.TotalPnL)
	}
	if stats.ExitReasons[domain.ExitReasonStopLoss] != 2 || stats.ExitReasons[domain.ExitReasonProfitBand] != 1 {
		t.Errorf("unexpected exit reason counts %v", stats.ExitReasons)
	}
	if stats.ReturnMin != -0.25 || stats.ReturnMax != 0.6 {
		t.Errorf("expected min -0.25 max 0.6, got %f / %f", stats.ReturnMin, stats.ReturnMax)
	}
	if stats.MeanHoldTicks != 2.5 {
		t.Errorf("expected mean hold 2.5 ticks, got %f", stats.MeanHoldTicks)
	}
}

func TestCompute_OrderDependentMetrics(t *testing.T) {
	// Chronological P&L: -0.125, -0.1, +0.3, +0.05
	trades := []*domain.Trade{
		trade("tok-c", 4000, 0.1, "0.05", domain.ExitReasonEndOfRun),
		trade("tok-a", 3000, 0.6, "0.3", domain.ExitReasonProfitBand),
		trade("tok-b", 1000, -0.25, "-0.125", domain.ExitReasonStopLoss),
		trade("tok-a", 2000, -0.2, "-0.1", domain.ExitReasonStopLoss),
	}

	stats := Compute(trades)

	if !stats.MaxDrawdown.Equal(decimal.RequireFromString("0.225")) {
		t.Errorf("expected max drawdown 0.225, got %s", stats.MaxDrawdown)
	}
	if stats.MaxConsecutiveLosses != 2 {
		t.Errorf("expected 2 consecutive losses, got %d", stats.MaxConsecutiveLosses)
	}
}

func TestComputeMaxDrawdown_AfterPeak(t *testing.T) {
	trades := []*domain.Trade{
		trade("a", 1, 0, "0.5", ""),
		trade("b", 2, 0, "-0.2", ""),
		trade("c", 3, 0, "-0.2", ""),
		trade("d", 4, 0, "0.6", ""),
		trade("e", 5, 0, "-0.1", ""),
	}

	if dd := computeMaxDrawdown(trades); !dd.Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("expected drawdown 0.4, got %s", dd)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.0, 1},
		{0.5, 3},
		{0.9, 4.6},
		{1.0, 5},
		{0.25, 2},
	}

	for _, tt := range tests {
		got := computePercentile(sorted, tt.p)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("p%.0f: expected %f, got %f", tt.p*100, tt.want, got)
		}
	}

	if computePercentile(nil, 0.5) != 0 {
		t.Error("expected 0 for empty input")
	}
	if computePercentile([]float64{7}, 0.9) != 7 {
		t.Error("expected the only value for single input")
	}
}

func TestComputeStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := computeMean(values)
	if mean != 5 {
		t.Fatalf("expected mean 5, got %f", mean)
	}
	// sample variance = 32/7
	want := math.Sqrt(32.0 / 7.0)
	if got := computeStddev(values, mean); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if computeStddev([]float64{1}, 1) != 0 {
		t.Error("expected 0 stddev for a single sample")
	}
}
