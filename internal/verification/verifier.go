// Package verification replays stored runs and checks that the recorded
// trades are reproduced exactly.
package verification

import (
	"context"
	"math"
	"sort"

	"solana-memebot-sim/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single trade.
type VerificationResult struct {
	TradeID     string
	Match       bool
	Divergences []FieldDivergence
	StoredPnL   string // lamport precision
	ReplayedPnL string
}

// VerificationReport contains the results for one run.
type VerificationReport struct {
	RunID           string
	TotalTrades     int // stored trades
	MatchedTrades   int
	DivergentTrades int
	MissingTrades   int // stored but not replayed
	ExtraTrades     int // replayed but not stored

	DigestMatch    bool
	StoredDigest   string
	ReplayedDigest string

	Results []VerificationResult // ordered by trade id
}

// OK reports whether the replay reproduced the stored run exactly.
func (r *VerificationReport) OK() bool {
	return r.DigestMatch && r.DivergentTrades == 0 && r.MissingTrades == 0 && r.ExtraTrades == 0
}

// Verifier checks stored runs against a replay.
type Verifier interface {
	// VerifyTrade replays the run and compares a single trade.
	VerifyTrade(ctx context.Context, runID, tradeID string) (*VerificationResult, error)

	// VerifyRun replays the run and compares every trade and the digest.
	VerifyRun(ctx context.Context, runID string) (*VerificationReport, error)
}

// CompareTrades compares two trades field by field.
// Prices use FloatTolerance, SOL amounts are compared at lamport precision.
func CompareTrades(stored, replayed *domain.Trade) []FieldDivergence {
	var d []FieldDivergence
	add := func(field string, expected, actual any) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.TradeID != replayed.TradeID {
		add("TradeID", stored.TradeID, replayed.TradeID)
	}
	if stored.TokenID != replayed.TokenID {
		add("TokenID", stored.TokenID, replayed.TokenID)
	}

	// Entry
	if stored.OpenedAtMs != replayed.OpenedAtMs {
		add("OpenedAtMs", stored.OpenedAtMs, replayed.OpenedAtMs)
	}
	if stored.OpenTick != replayed.OpenTick {
		add("OpenTick", stored.OpenTick, replayed.OpenTick)
	}
	if !floatEquals(stored.EntryPrice, replayed.EntryPrice) {
		add("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	}
	if !floatEquals(stored.Quantity, replayed.Quantity) {
		add("Quantity", stored.Quantity, replayed.Quantity)
	}
	if !stored.CapitalCommitted.Equal(replayed.CapitalCommitted) {
		add("CapitalCommitted", stored.CapitalCommitted.StringFixed(9), replayed.CapitalCommitted.StringFixed(9))
	}
	if !floatEquals(stored.EntryScore, replayed.EntryScore) {
		add("EntryScore", stored.EntryScore, replayed.EntryScore)
	}

	// Exit
	if stored.ClosedAtMs != replayed.ClosedAtMs {
		add("ClosedAtMs", stored.ClosedAtMs, replayed.ClosedAtMs)
	}
	if stored.CloseTick != replayed.CloseTick {
		add("CloseTick", stored.CloseTick, replayed.CloseTick)
	}
	if !floatEquals(stored.ExitPrice, replayed.ExitPrice) {
		add("ExitPrice", stored.ExitPrice, replayed.ExitPrice)
	}
	if stored.ExitReason != replayed.ExitReason {
		add("ExitReason", stored.ExitReason, replayed.ExitReason)
	}
	if stored.Status != replayed.Status {
		add("Status", stored.Status, replayed.Status)
	}

	// Outcome
	if !stored.RealizedPnL.Equal(replayed.RealizedPnL) {
		add("RealizedPnL", stored.RealizedPnL.StringFixed(9), replayed.RealizedPnL.StringFixed(9))
	}
	if !floatEquals(stored.ReturnPct, replayed.ReturnPct) {
		add("ReturnPct", stored.ReturnPct, replayed.ReturnPct)
	}
	if !floatEquals(stored.PeakPrice, replayed.PeakPrice) {
		add("PeakPrice", stored.PeakPrice, replayed.PeakPrice)
	}
	if stored.HoldTicks != replayed.HoldTicks {
		add("HoldTicks", stored.HoldTicks, replayed.HoldTicks)
	}

	return d
}

// compareRuns matches stored and replayed trades by trade id.
func compareRuns(runID string, stored, replayed []*domain.Trade) *VerificationReport {
	report := &VerificationReport{
		RunID:       runID,
		TotalTrades: len(stored),
	}

	byID := make(map[string]*domain.Trade, len(replayed))
	for _, t := range replayed {
		byID[t.TradeID] = t
	}

	for _, s := range stored {
		r, ok := byID[s.TradeID]
		if !ok {
			report.MissingTrades++
			report.Results = append(report.Results, VerificationResult{
				TradeID:     s.TradeID,
				StoredPnL:   s.RealizedPnL.StringFixed(9),
				Divergences: []FieldDivergence{{Field: "TradeID", Expected: s.TradeID, Actual: nil}},
			})
			continue
		}
		delete(byID, s.TradeID)

		res := resultFor(s, r)
		if res.Match {
			report.MatchedTrades++
		} else {
			report.DivergentTrades++
		}
		report.Results = append(report.Results, res)
	}

	for id, r := range byID {
		report.ExtraTrades++
		report.Results = append(report.Results, VerificationResult{
			TradeID:     id,
			ReplayedPnL: r.RealizedPnL.StringFixed(9),
			Divergences: []FieldDivergence{{Field: "TradeID", Expected: nil, Actual: id}},
		})
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].TradeID < report.Results[j].TradeID
	})
	return report
}

func resultFor(stored, replayed *domain.Trade) VerificationResult {
	d := CompareTrades(stored, replayed)
	return VerificationResult{
		TradeID:     stored.TradeID,
		Match:       len(d) == 0,
		Divergences: d,
		StoredPnL:   stored.RealizedPnL.StringFixed(9),
		ReplayedPnL: replayed.RealizedPnL.StringFixed(9),
	}
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
