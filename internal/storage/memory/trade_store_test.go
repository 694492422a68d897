package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

func closedTrade(id, tokenID string, closedAt int64) *domain.Trade {
	return &domain.Trade{
		TradeID:          id,
		TokenID:          tokenID,
		EntryPrice:       0.0001,
		CapitalCommitted: decimal.RequireFromString("0.5"),
		OpenedAtMs:       closedAt - 60_000,
		ExitPrice:        0.00016,
		ClosedAtMs:       closedAt,
		ExitReason:       domain.ExitReasonProfitBand,
		Status:           domain.StatusClosedProfitBand,
		RealizedPnL:      decimal.RequireFromString("0.3"),
		ReturnPct:        0.6,
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "run1", closedTrade("t1", "tok", 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1", "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.RealizedPnL.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("RealizedPnL mismatch: got %s", got.RealizedPnL)
	}
	if got.Status != domain.StatusClosedProfitBand {
		t.Errorf("Status mismatch: got %s", got.Status)
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "run1", closedTrade("t1", "tok", 2000)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, "run1", closedTrade("t1", "tok", 2000)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.Insert(ctx, "run2", closedTrade("t1", "tok", 2000)); err != nil {
		t.Errorf("same trade id in another run must be accepted: %v", err)
	}
}

func TestTradeStore_NotFound(t *testing.T) {
	store := NewTradeStore()

	_, err := store.GetByID(context.Background(), "run1", "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeStore_GetByRunOrdering(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	for _, tr := range []*domain.Trade{
		closedTrade("t3", "c", 3000),
		closedTrade("t2", "b", 2000),
		closedTrade("t1", "a", 2000),
	} {
		if err := store.Insert(ctx, "run1", tr); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByRun(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if got[i].TokenID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].TokenID, id)
		}
	}
}

func TestRunStore_InsertGetList(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	later := &domain.RunSummary{RunID: "b", StartedAt: base.Add(time.Minute)}
	earlier := &domain.RunSummary{
		RunID:      "a",
		StartedAt:  base,
		Rejections: map[domain.RejectReason]int{domain.RejectRugSignal: 4},
		ConfigJSON: []byte(`{"preset":"default"}`),
	}

	for _, r := range []*domain.RunSummary{later, earlier} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := store.Insert(ctx, earlier); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	earlier.Rejections[domain.RejectRugSignal] = 99

	got, err := store.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Rejections[domain.RejectRugSignal] != 4 {
		t.Errorf("stored rejections were mutated: %v", got.Rejections)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].RunID != "a" || list[1].RunID != "b" {
		t.Errorf("unexpected list order: %+v", list)
	}

	if _, err := store.GetByID(ctx, "zzz"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
