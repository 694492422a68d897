package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects the event source variant.
type Mode string

// Event source modes.
const (
	ModeSynthetic Mode = "synthetic"
	ModeExternal  Mode = "external"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	return m == ModeSynthetic || m == ModeExternal
}

// RunSummary is the persisted outcome of one simulation run.
// Stored in the run_metadata table.
type RunSummary struct {
	RunID       string
	Mode        Mode
	Preset      string
	Seed        int64
	SourceRunID string // external replay source, empty for synthetic runs

	StartedAt  time.Time
	FinishedAt time.Time

	// Clock
	Ticks          int
	TickIntervalMs int64
	StartTimeMs    int64

	// Event flow
	Observations        int
	SkippedObservations int
	Admitted            int
	Rejections          map[RejectReason]int
	CapacityRejections  int
	CapitalRejections   int

	// Outcome
	TradesClosed     int
	Wins             int
	Losses           int
	InitialBankroll  decimal.Decimal
	FinalEquity      decimal.Decimal
	RealizedPnL      decimal.Decimal
	MaxOpenPositions int
	LedgerFailures   int

	Digest     string          // sha256 over the ordered trade set
	ConfigJSON json.RawMessage // effective configuration, used for replay
}

// Clone returns a deep copy of the summary.
func (s *RunSummary) Clone() *RunSummary {
	c := *s
	if s.Rejections != nil {
		c.Rejections = make(map[RejectReason]int, len(s.Rejections))
		for k, v := range s.Rejections {
			c.Rejections[k] = v
		}
	}
	if s.ConfigJSON != nil {
		c.ConfigJSON = append([]byte(nil), s.ConfigJSON...)
	}
	return &c
}

// TotalRejections returns the number of filter rejections across all reasons.
func (s *RunSummary) TotalRejections() int {
	n := 0
	for _, v := range s.Rejections {
		n += v
	}
	return n
}
