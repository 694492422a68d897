package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage/memory"
)

func TestAggregator_ForRun(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	agg := NewAggregator(stores.Trades, stores.Runs)

	if _, err := agg.ForRun(ctx, "run-1"); !errors.Is(err, ErrNoTrades) {
		t.Fatalf("expected ErrNoTrades, got %v", err)
	}

	for _, tr := range []*domain.Trade{
		trade("tok-a", 1000, 0.6, "0.3", domain.ExitReasonProfitBand),
		trade("tok-b", 2000, -0.2, "-0.1", domain.ExitReasonStopLoss),
	} {
		if err := stores.Trades.Insert(ctx, "run-1", tr); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	stats, err := agg.ForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ForRun: %v", err)
	}
	if stats.TotalTrades != 2 || stats.Wins != 1 {
		t.Errorf("expected 2 trades 1 win, got %d/%d", stats.TotalTrades, stats.Wins)
	}
	if !stats.TotalPnL.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("expected total pnl 0.2, got %s", stats.TotalPnL)
	}
}

func TestAggregator_AllRuns(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	agg := NewAggregator(stores.Trades, stores.Runs)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-b", "run-a"} {
		s := &domain.RunSummary{
			RunID:     id,
			Mode:      domain.ModeSynthetic,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := stores.Runs.Insert(ctx, s); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	if err := stores.Trades.Insert(ctx, "run-a", trade("tok-a", 1000, 0.6, "0.3", domain.ExitReasonProfitBand)); err != nil {
		t.Fatal(err)
	}

	entries, err := agg.AllRuns(ctx)
	if err != nil {
		t.Fatalf("AllRuns: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Summary.RunID != "run-b" {
		t.Errorf("expected earliest run first, got %s", entries[0].Summary.RunID)
	}
	if entries[0].Stats.TotalTrades != 0 {
		t.Errorf("expected empty stats for run without trades, got %d", entries[0].Stats.TotalTrades)
	}
	if entries[1].Stats.TotalTrades != 1 {
		t.Errorf("expected 1 trade for run-a, got %d", entries[1].Stats.TotalTrades)
	}
}
