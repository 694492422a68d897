package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/metrics"
	"solana-memebot-sim/internal/storage"
)

// TokenActivitySource provides per-token activity for a run, typically from
// the analytics copy of the event stream.
type TokenActivitySource interface {
	TokenActivity(ctx context.Context, runID string, limit int) ([]TokenActivityRow, error)
}

// Generator produces reports from stored data.
type Generator struct {
	tradeStore    storage.TradeStore
	runStore      storage.RunStore
	aggregator    *metrics.Aggregator
	activity      TokenActivitySource
	activityLimit int
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, runStore storage.RunStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		runStore:   runStore,
		aggregator: metrics.NewAggregator(tradeStore, runStore),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTokenActivity adds the top limit tokens by observation count to reports.
func (g *Generator) WithTokenActivity(src TokenActivitySource, limit int) *Generator {
	g.activity = src
	g.activityLimit = limit
	return g
}

// Generate produces the report for a stored run.
// Returns storage.ErrNotFound if the run does not exist.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	summary, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	trades, err := g.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	r := Build(summary, trades, g.now())

	if g.activity != nil {
		rows, err := g.activity.TokenActivity(ctx, runID, g.activityLimit)
		if err != nil {
			return nil, fmt.Errorf("load token activity: %w", err)
		}
		r.TokenActivity = rows
	}
	return r, nil
}

// GenerateIndex lists every stored run with headline statistics.
func (g *Generator) GenerateIndex(ctx context.Context) (*Index, error) {
	entries, err := g.aggregator.AllRuns(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]IndexRow, len(entries))
	for i, e := range entries {
		rows[i] = IndexRow{
			RunID:        e.Summary.RunID,
			Mode:         e.Summary.Mode,
			Preset:       e.Summary.Preset,
			Seed:         e.Summary.Seed,
			StartedAt:    e.Summary.StartedAt,
			Ticks:        e.Summary.Ticks,
			TradesClosed: e.Stats.TotalTrades,
			WinRate:      e.Stats.WinRate,
			RealizedPnL:  e.Stats.TotalPnL.StringFixed(9),
			MaxDrawdown:  e.Stats.MaxDrawdown.StringFixed(9),
			Digest:       e.Summary.Digest,
		}
	}
	return &Index{GeneratedAt: g.now(), Runs: rows}, nil
}

// Build assembles a report from a run summary and its trades without touching storage.
func Build(summary *domain.RunSummary, trades []*domain.Trade, generatedAt time.Time) *Report {
	stats := metrics.Compute(trades)
	return &Report{
		GeneratedAt: generatedAt,
		Run:         summary,
		Stats:       stats,
		Rejections:  rejectionRows(summary),
		ExitReasons: exitReasonRows(stats),
		Trades:      tradeRows(trades),
	}
}

// rejectionRows lists every reject reason in pipeline check order, including zero counts.
func rejectionRows(s *domain.RunSummary) []RejectionRow {
	rows := make([]RejectionRow, len(domain.AllRejectReasons))
	for i, reason := range domain.AllRejectReasons {
		rows[i] = RejectionRow{Reason: reason, Count: s.Rejections[reason]}
	}
	return rows
}

// exitReasonRows sorts by count DESC, reason ASC.
func exitReasonRows(stats *metrics.RunStats) []ExitReasonRow {
	rows := make([]ExitReasonRow, 0, len(stats.ExitReasons))
	for reason, n := range stats.ExitReasons {
		rows = append(rows, ExitReasonRow{Reason: reason, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Reason < rows[j].Reason
	})
	return rows
}

func tradeRows(trades []*domain.Trade) []TradeRow {
	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ClosedAtMs != sorted[j].ClosedAtMs {
			return sorted[i].ClosedAtMs < sorted[j].ClosedAtMs
		}
		return sorted[i].TokenID < sorted[j].TokenID
	})

	rows := make([]TradeRow, len(sorted))
	for i, t := range sorted {
		rows[i] = TradeRow{
			TradeID:     t.TradeID,
			TokenID:     t.TokenID,
			OpenedAtMs:  t.OpenedAtMs,
			ClosedAtMs:  t.ClosedAtMs,
			HoldTicks:   t.HoldTicks,
			EntryScore:  t.EntryScore,
			EntryPrice:  t.EntryPrice,
			ExitPrice:   t.ExitPrice,
			ReturnPct:   t.ReturnPct,
			RealizedPnL: t.RealizedPnL.StringFixed(9),
			ExitReason:  t.ExitReason,
			Status:      t.Status,
		}
	}
	return rows
}
