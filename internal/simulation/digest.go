package simulation

import (
	"strconv"
	"strings"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/idhash"
)

// TradeLine renders the canonical text form of a trade.
// Floats use the shortest exact representation; decimals use lamport precision.
func TradeLine(t *domain.Trade) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return strings.Join([]string{
		t.TradeID,
		t.TokenID,
		strconv.FormatInt(t.OpenedAtMs, 10),
		strconv.FormatInt(t.ClosedAtMs, 10),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Quantity),
		t.CapitalCommitted.StringFixed(9),
		t.RealizedPnL.StringFixed(9),
		t.ExitReason,
		string(t.Status),
	}, "|")
}

// Digest hashes the trades in the given order. Two runs with identical inputs
// produce identical digests.
func Digest(trades []*domain.Trade) string {
	lines := make([]string, len(trades))
	for i, t := range trades {
		lines[i] = TradeLine(t)
	}
	return idhash.ComputeDigest(lines)
}
