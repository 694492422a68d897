package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
	"solana-memebot-sim/internal/storage/memory"
)

var fixedTime = time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)

func setupTestData(t *testing.T) storage.Stores {
	t.Helper()
	ctx := context.Background()
	stores := memory.NewStores()

	summary := &domain.RunSummary{
		RunID:           "run-1",
		Mode:            domain.ModeSynthetic,
		Preset:          domain.PresetDefault,
		Seed:            42,
		StartedAt:       fixedTime.Add(-time.Minute),
		FinishedAt:      fixedTime,
		Ticks:           1440,
		TickIntervalMs:  60_000,
		Observations:    500,
		Admitted:        3,
		Rejections:      map[domain.RejectReason]int{domain.RejectRugSignal: 40, domain.RejectScoreBelowThreshold: 12},
		InitialBankroll: decimal.RequireFromString("3"),
		FinalEquity:     decimal.RequireFromString("3.125"),
		RealizedPnL:     decimal.RequireFromString("0.125"),
		TradesClosed:    3,
		Digest:          "abc123",
	}
	if err := stores.Runs.Insert(ctx, summary); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}

	trades := []*domain.Trade{
		{TradeID: "t1", TokenID: "tok-a", OpenedAtMs: 1000, ClosedAtMs: 5000, ReturnPct: 0.6, RealizedPnL: decimal.RequireFromString("0.3"), ExitReason: domain.ExitReasonProfitBand, Status: domain.StatusClosedProfitBand},
		{TradeID: "t2", TokenID: "tok-b", OpenedAtMs: 1000, ClosedAtMs: 3000, ReturnPct: -0.25, RealizedPnL: decimal.RequireFromString("-0.125"), ExitReason: domain.ExitReasonStopLoss, Status: domain.StatusClosedStopLoss},
		{TradeID: "t3", TokenID: "tok-c", OpenedAtMs: 2000, ClosedAtMs: 9000, ReturnPct: -0.1, RealizedPnL: decimal.RequireFromString("-0.05"), ExitReason: domain.ExitReasonEndOfRun, Status: domain.StatusClosedEndOfRun},
	}
	for _, tr := range trades {
		if err := stores.Trades.Insert(ctx, "run-1", tr); err != nil {
			t.Fatalf("Insert trade failed: %v", err)
		}
	}
	return stores
}

type stubActivity struct{ rows []TokenActivityRow }

func (s stubActivity) TokenActivity(_ context.Context, _ string, limit int) ([]TokenActivityRow, error) {
	if limit > 0 && limit < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func TestGenerator_Generate(t *testing.T) {
	stores := setupTestData(t)
	g := NewGenerator(stores.Trades, stores.Runs).WithClock(func() time.Time { return fixedTime })

	r, err := g.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !r.GeneratedAt.Equal(fixedTime) {
		t.Errorf("expected fixed generation time, got %v", r.GeneratedAt)
	}
	if r.Stats.TotalTrades != 3 || r.Stats.Wins != 1 {
		t.Errorf("expected 3 trades 1 win, got %d/%d", r.Stats.TotalTrades, r.Stats.Wins)
	}

	// Trades in close order
	if len(r.Trades) != 3 || r.Trades[0].TradeID != "t2" || r.Trades[2].TradeID != "t3" {
		t.Errorf("unexpected trade order %+v", r.Trades)
	}

	if len(r.Rejections) != len(domain.AllRejectReasons) {
		t.Fatalf("expected a row per reject reason, got %d", len(r.Rejections))
	}
	if r.Rejections[0].Reason != domain.RejectRugSignal || r.Rejections[0].Count != 40 {
		t.Errorf("expected RUG_SIGNAL first with 40, got %+v", r.Rejections[0])
	}
	if len(r.ExitReasons) != 3 {
		t.Errorf("expected 3 exit reasons, got %d", len(r.ExitReasons))
	}
	if r.TokenActivity != nil {
		t.Error("expected no token activity without a source")
	}
}

func TestGenerator_NotFound(t *testing.T) {
	stores := memory.NewStores()
	g := NewGenerator(stores.Trades, stores.Runs)

	if _, err := g.Generate(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerator_TokenActivity(t *testing.T) {
	stores := setupTestData(t)
	src := stubActivity{rows: []TokenActivityRow{
		{TokenID: "tok-a", Observations: 30, PeakScore: 92, Graduated: true},
		{TokenID: "tok-b", Observations: 20, PeakScore: 80},
	}}
	g := NewGenerator(stores.Trades, stores.Runs).WithClock(func() time.Time { return fixedTime }).WithTokenActivity(src, 1)

	r, err := g.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.TokenActivity) != 1 || r.TokenActivity[0].TokenID != "tok-a" {
		t.Errorf("unexpected token activity %+v", r.TokenActivity)
	}

	md := RenderMarkdown(r)
	if !strings.Contains(md, "## Token Activity") {
		t.Error("markdown should include token activity section")
	}
}

func TestRenderMarkdown(t *testing.T) {
	stores := setupTestData(t)
	g := NewGenerator(stores.Trades, stores.Runs).WithClock(func() time.Time { return fixedTime })
	r, err := g.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Run Report run-1",
		"Generated: 2025-01-04T12:00:00Z",
		"Mode: synthetic | Preset: default | Seed: 42",
		"| Realized P&L (SOL) | 0.125000000 |",
		"| RUG_SIGNAL | 40 |",
		"| MCAP_OUT_OF_BAND | 0 |",
		"| STOP_LOSS | 1 |",
		"## Trades",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Deterministic output
	if md != RenderMarkdown(r) {
		t.Error("markdown rendering is not deterministic")
	}
}

func TestRenderTradesCSV(t *testing.T) {
	rows := []TradeRow{
		{TradeID: "t1", TokenID: "tok-a", OpenedAtMs: 1000, ClosedAtMs: 5000, HoldTicks: 4, EntryScore: 88, EntryPrice: 0.0001, ExitPrice: 0.00016, ReturnPct: 0.6, RealizedPnL: "0.300000000", ExitReason: "PROFIT_BAND", Status: domain.StatusClosedProfitBand},
	}

	csv := RenderTradesCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")

	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,token_id,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	want := "t1,tok-a,1000,5000,4,88.0000,0.0001,0.00016,0.600000,0.300000000,PROFIT_BAND,CLOSED_PROFIT_BAND"
	if lines[1] != want {
		t.Errorf("expected row\n%s\ngot\n%s", want, lines[1])
	}
}

func TestGenerateIndex(t *testing.T) {
	stores := setupTestData(t)
	g := NewGenerator(stores.Trades, stores.Runs).WithClock(func() time.Time { return fixedTime })

	idx, err := g.GenerateIndex(context.Background())
	if err != nil {
		t.Fatalf("GenerateIndex failed: %v", err)
	}
	if len(idx.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(idx.Runs))
	}
	row := idx.Runs[0]
	if row.TradesClosed != 3 || row.RealizedPnL != "0.125000000" {
		t.Errorf("unexpected index row %+v", row)
	}

	if !strings.Contains(RenderIndexMarkdown(idx), "| run-1 | synthetic | default | 42 |") {
		t.Error("index markdown missing run row")
	}
	csv := RenderIndexCSV(idx.Runs)
	if !strings.Contains(csv, "run-1,synthetic,default,42,") {
		t.Errorf("index csv missing run row:\n%s", csv)
	}
}

func TestWriteFiles(t *testing.T) {
	stores := setupTestData(t)
	g := NewGenerator(stores.Trades, stores.Runs).WithClock(func() time.Time { return fixedTime })
	r, err := g.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "reports")
	paths, err := WriteFiles(dir, r)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %d", len(paths))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "run-1_trades.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "t2,tok-b") {
		t.Error("trades csv missing stop-loss trade")
	}
}
