package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderTradesCSV renders trade rows as CSV string.
func RenderTradesCSV(trades []TradeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,token_id,opened_at_ms,closed_at_ms,hold_ticks,entry_score,")
	sb.WriteString("entry_price,exit_price,return_pct,realized_pnl_sol,exit_reason,status\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%.4f,%.12g,%.12g,%.6f,%s,%s,%s\n",
			t.TradeID,
			t.TokenID,
			t.OpenedAtMs,
			t.ClosedAtMs,
			t.HoldTicks,
			t.EntryScore,
			t.EntryPrice,
			t.ExitPrice,
			t.ReturnPct,
			t.RealizedPnL,
			t.ExitReason,
			t.Status,
		))
	}

	return sb.String()
}

// RenderIndexCSV renders the run index as CSV string.
func RenderIndexCSV(rows []IndexRow) string {
	var sb strings.Builder

	sb.WriteString("run_id,mode,preset,seed,started_at,ticks,trades_closed,win_rate,realized_pnl_sol,max_drawdown_sol,digest\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%d,%d,%.6f,%s,%s,%s\n",
			r.RunID,
			r.Mode,
			r.Preset,
			r.Seed,
			r.StartedAt.Format(time.RFC3339),
			r.Ticks,
			r.TradesClosed,
			r.WinRate,
			r.RealizedPnL,
			r.MaxDrawdown,
			r.Digest,
		))
	}

	return sb.String()
}
