package reporting

import (
	"time"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/metrics"
)

// Report represents a single-run report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         *domain.RunSummary

	// Trade statistics
	Stats *metrics.RunStats

	// Event flow (rejections in pipeline check order)
	Rejections  []RejectionRow
	ExitReasons []ExitReasonRow

	// Trades in close order
	Trades []TradeRow

	// Per-token activity, present only when an analytics store is configured
	TokenActivity []TokenActivityRow
}

// RejectionRow counts filter rejections for one reason.
type RejectionRow struct {
	Reason domain.RejectReason
	Count  int
}

// ExitReasonRow counts closed trades for one exit reason.
type ExitReasonRow struct {
	Reason string
	Count  int
}

// TradeRow represents one row in the trades table.
type TradeRow struct {
	TradeID     string
	TokenID     string
	OpenedAtMs  int64
	ClosedAtMs  int64
	HoldTicks   int
	EntryScore  float64
	EntryPrice  float64
	ExitPrice   float64
	ReturnPct   float64
	RealizedPnL string // SOL, lamport precision
	ExitReason  string
	Status      domain.PositionStatus
}

// TokenActivityRow summarizes the observations of one token within a run.
type TokenActivityRow struct {
	TokenID      string
	Observations int
	FirstSeenMs  int64
	LastSeenMs   int64
	PeakScore    float64
	PeakMcapUSD  float64
	Graduated    bool
}

// Index lists stored runs with headline statistics.
type Index struct {
	GeneratedAt time.Time
	Runs        []IndexRow
}

// IndexRow represents one run in the index.
type IndexRow struct {
	RunID        string
	Mode         domain.Mode
	Preset       string
	Seed         int64
	StartedAt    time.Time
	Ticks        int
	TradesClosed int
	WinRate      float64
	RealizedPnL  string
	MaxDrawdown  string
	Digest       string
}
