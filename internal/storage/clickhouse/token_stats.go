package clickhouse

import (
	"context"
	"fmt"
)

// TokenStats is one row of the run_token_stats view.
type TokenStats struct {
	TokenID          string
	FirstSeenMs      int64
	LastSeenMs       int64
	Observations     int
	PeakMarketCapUSD float64
	PeakScore        float64
	Graduated        bool
}

// TokenStats returns the per-token rollup of a run, ordered by peak score DESC
// then token_id ASC. limit <= 0 returns every token.
func (s *ObservationStore) TokenStats(ctx context.Context, runID string, limit int) ([]TokenStats, error) {
	query := `
		SELECT token_id, first_seen_ms, last_seen_ms, observations,
			peak_market_cap_usd, peak_score, graduated
		FROM run_token_stats
		WHERE run_id = ?
		ORDER BY peak_score DESC, token_id ASC
	`
	args := []interface{}{runID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query token stats: %w", err)
	}
	defer rows.Close()

	var result []TokenStats
	for rows.Next() {
		var st TokenStats
		var first, last, count uint64
		var graduated uint8
		if err := rows.Scan(&st.TokenID, &first, &last, &count, &st.PeakMarketCapUSD, &st.PeakScore, &graduated); err != nil {
			return nil, fmt.Errorf("scan token stats row: %w", err)
		}
		st.FirstSeenMs = int64(first)
		st.LastSeenMs = int64(last)
		st.Observations = int(count)
		st.Graduated = graduated == 1
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token stats rows: %w", err)
	}
	return result, nil
}
