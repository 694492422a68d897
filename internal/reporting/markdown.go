package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Run

	// Header
	sb.WriteString(fmt.Sprintf("# Run Report %s\n\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Mode: %s | Preset: %s | Seed: %d\n\n", s.Mode, s.Preset, s.Seed))
	if s.SourceRunID != "" {
		sb.WriteString(fmt.Sprintf("Replayed from run: %s\n\n", s.SourceRunID))
	}

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", s.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Finished | %s |\n", s.FinishedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Ticks | %d |\n", s.Ticks))
	sb.WriteString(fmt.Sprintf("| Tick Interval (ms) | %d |\n", s.TickIntervalMs))
	sb.WriteString(fmt.Sprintf("| Observations | %d |\n", s.Observations))
	sb.WriteString(fmt.Sprintf("| Skipped Observations | %d |\n", s.SkippedObservations))
	sb.WriteString(fmt.Sprintf("| Admitted | %d |\n", s.Admitted))
	sb.WriteString(fmt.Sprintf("| Capacity Rejections | %d |\n", s.CapacityRejections))
	sb.WriteString(fmt.Sprintf("| Capital Rejections | %d |\n", s.CapitalRejections))
	sb.WriteString(fmt.Sprintf("| Max Open Positions | %d |\n", s.MaxOpenPositions))
	sb.WriteString(fmt.Sprintf("| Initial Bankroll (SOL) | %s |\n", s.InitialBankroll.StringFixed(9)))
	sb.WriteString(fmt.Sprintf("| Final Equity (SOL) | %s |\n", s.FinalEquity.StringFixed(9)))
	sb.WriteString(fmt.Sprintf("| Realized P&L (SOL) | %s |\n", s.RealizedPnL.StringFixed(9)))
	sb.WriteString(fmt.Sprintf("| Ledger Failures | %d |\n", s.LedgerFailures))
	sb.WriteString(fmt.Sprintf("| Digest | `%s` |\n", s.Digest))
	sb.WriteString("\n")

	// Trade Statistics
	st := r.Stats
	sb.WriteString("## Trade Statistics\n\n")
	if st.TotalTrades > 0 {
		sb.WriteString("| Trades | Tokens | Wins | Losses | WinRate | TokenWinRate | Mean | Median | P10 | P90 | Stddev | MaxDD (SOL) | MaxLoss | MeanHold |\n")
		sb.WriteString("|--------|--------|------|--------|---------|--------------|------|--------|-----|-----|--------|-------------|---------|----------|\n")
		sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %s | %d | %.1f |\n",
			st.TotalTrades, st.TotalTokens, st.Wins, st.Losses, st.WinRate, st.TokenWinRate,
			st.ReturnMean, st.ReturnMedian, st.ReturnP10, st.ReturnP90, st.ReturnStddev,
			st.MaxDrawdown.StringFixed(9), st.MaxConsecutiveLosses, st.MeanHoldTicks))
	} else {
		sb.WriteString("No trades closed.\n")
	}
	sb.WriteString("\n")

	// Exit Reasons
	sb.WriteString("## Exit Reasons\n\n")
	if len(r.ExitReasons) > 0 {
		sb.WriteString("| Reason | Trades |\n")
		sb.WriteString("|--------|--------|\n")
		for _, row := range r.ExitReasons {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Reason, row.Count))
		}
	} else {
		sb.WriteString("No exits recorded.\n")
	}
	sb.WriteString("\n")

	// Rejections
	sb.WriteString("## Filter Rejections\n\n")
	sb.WriteString("| Reason | Observations |\n")
	sb.WriteString("|--------|--------------|\n")
	for _, row := range r.Rejections {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Reason, row.Count))
	}
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Token | Opened (ms) | Closed (ms) | Hold | Score | Entry | Exit | Return | P&L (SOL) | Status |\n")
		sb.WriteString("|-------|-------------|-------------|------|-------|-------|------|--------|-----------|--------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.1f | %.6g | %.6g | %.4f | %s | %s |\n",
				t.TokenID, t.OpenedAtMs, t.ClosedAtMs, t.HoldTicks, t.EntryScore,
				t.EntryPrice, t.ExitPrice, t.ReturnPct, t.RealizedPnL, t.Status))
		}
	} else {
		sb.WriteString("No trades available.\n")
	}
	sb.WriteString("\n")

	// Token Activity
	if len(r.TokenActivity) > 0 {
		sb.WriteString("## Token Activity\n\n")
		sb.WriteString("| Token | Observations | First Seen (ms) | Last Seen (ms) | Peak Score | Peak MCap (USD) | Graduated |\n")
		sb.WriteString("|-------|--------------|-----------------|----------------|------------|-----------------|-----------|\n")
		for _, a := range r.TokenActivity {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.1f | %.0f | %t |\n",
				a.TokenID, a.Observations, a.FirstSeenMs, a.LastSeenMs, a.PeakScore, a.PeakMcapUSD, a.Graduated))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderIndexMarkdown renders the run index as Markdown string.
func RenderIndexMarkdown(idx *Index) string {
	var sb strings.Builder

	sb.WriteString("# Runs\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", idx.GeneratedAt.Format(time.RFC3339)))

	if len(idx.Runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return sb.String()
	}

	sb.WriteString("| Run | Mode | Preset | Seed | Started | Ticks | Trades | WinRate | P&L (SOL) | MaxDD (SOL) |\n")
	sb.WriteString("|-----|------|--------|------|---------|-------|--------|---------|-----------|-------------|\n")
	for _, r := range idx.Runs {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %d | %d | %.4f | %s | %s |\n",
			r.RunID, r.Mode, r.Preset, r.Seed, r.StartedAt.Format(time.RFC3339),
			r.Ticks, r.TradesClosed, r.WinRate, r.RealizedPnL, r.MaxDrawdown))
	}
	return sb.String()
}
