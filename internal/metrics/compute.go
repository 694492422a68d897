package metrics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/domain"
)

// RunStats summarizes the closed trades of one run.
// Return statistics are over Trade.ReturnPct; money figures are SOL.
type RunStats struct {
	// Counts
	TotalTrades  int
	TotalTokens  int
	Wins         int
	Losses       int
	WinRate      float64
	TokenWinRate float64

	// Return distribution
	ReturnMean   float64
	ReturnMedian float64
	ReturnP10    float64
	ReturnP25    float64
	ReturnP75    float64
	ReturnP90    float64
	ReturnMin    float64
	ReturnMax    float64
	ReturnStddev float64

	// P&L, in close order
	TotalPnL             decimal.Decimal
	MaxDrawdown          decimal.Decimal // worst peak-to-trough of cumulative P&L
	MaxConsecutiveLosses int

	MeanHoldTicks float64
	ExitReasons   map[string]int
}

// Compute calculates run statistics. Trades are sorted by ClosedAtMs ASC,
// TokenID ASC before computing order-dependent metrics (MaxDrawdown,
// MaxConsecutiveLosses).
func Compute(trades []*domain.Trade) *RunStats {
	n := len(trades)
	stats := &RunStats{
		TotalPnL:    decimal.Zero,
		MaxDrawdown: decimal.Zero,
		ExitReasons: make(map[string]int),
	}
	if n == 0 {
		return stats
	}

	sorted := make([]*domain.Trade, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ClosedAtMs != sorted[j].ClosedAtMs {
			return sorted[i].ClosedAtMs < sorted[j].ClosedAtMs
		}
		return sorted[i].TokenID < sorted[j].TokenID
	})

	returns := make([]float64, n)
	holdTicks := 0
	for i, t := range sorted {
		returns[i] = t.ReturnPct
		holdTicks += t.HoldTicks
		stats.ExitReasons[t.ExitReason]++
		stats.TotalPnL = stats.TotalPnL.Add(t.RealizedPnL)
		if t.IsWin() {
			stats.Wins++
		} else {
			stats.Losses++
		}
	}

	sortedReturns := make([]float64, n)
	copy(sortedReturns, returns)
	sort.Float64s(sortedReturns)

	mean := computeMean(returns)

	stats.TotalTrades = n
	stats.TotalTokens, stats.TokenWinRate = computeTokenWinRate(sorted)
	stats.WinRate = computeWinRate(stats.Wins, n)

	stats.ReturnMean = mean
	stats.ReturnMedian = computePercentile(sortedReturns, 0.50)
	stats.ReturnP10 = computePercentile(sortedReturns, 0.10)
	stats.ReturnP25 = computePercentile(sortedReturns, 0.25)
	stats.ReturnP75 = computePercentile(sortedReturns, 0.75)
	stats.ReturnP90 = computePercentile(sortedReturns, 0.90)
	stats.ReturnMin = sortedReturns[0]
	stats.ReturnMax = sortedReturns[n-1]
	stats.ReturnStddev = computeStddev(returns, mean)

	stats.MaxDrawdown = computeMaxDrawdown(sorted)
	stats.MaxConsecutiveLosses = computeMaxConsecutiveLosses(sorted)
	stats.MeanHoldTicks = float64(holdTicks) / float64(n)

	return stats
}

// computeTokenWinRate groups trades by token and counts a token as winning if
// at least one of its trades realized a profit.
func computeTokenWinRate(trades []*domain.Trade) (int, float64) {
	if len(trades) == 0 {
		return 0, 0
	}

	won := make(map[string]bool)
	for _, t := range trades {
		won[t.TokenID] = won[t.TokenID] || t.IsWin()
	}

	winning := 0
	for _, w := range won {
		if w {
			winning++
		}
	}
	return len(won), float64(winning) / float64(len(won))
}

func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates the worst peak-to-trough on cumulative P&L.
// The peak starts at zero, so an initial losing streak counts as drawdown.
// Trades must be in chronological order.
func computeMaxDrawdown(trades []*domain.Trade) decimal.Decimal {
	cumulative := decimal.Zero
	peak := decimal.Zero
	maxDrawdown := decimal.Zero

	for _, t := range trades {
		cumulative = cumulative.Add(t.RealizedPnL)
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}
		if dd := peak.Sub(cumulative); dd.GreaterThan(maxDrawdown) {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of trades with P&L <= 0.
// Trades must be in chronological order.
func computeMaxConsecutiveLosses(trades []*domain.Trade) int {
	maxStreak := 0
	currentStreak := 0

	for _, t := range trades {
		if !t.IsWin() {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
