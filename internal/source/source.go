// Package source produces the per-tick observation batches consumed by the
// simulation loop. Two variants exist: Synthetic, a seeded generator, and
// External, which merges batches from pluggable fetchers.
package source

import (
	"context"
	"errors"
	"sort"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/domain"
)

// ErrTickOutOfOrder is returned when a source is asked for a tick that is not
// the successor of the previous one.
var ErrTickOutOfOrder = errors.New("source: ticks must be requested in order")

// EventSource yields the observations for one tick.
// Returned batches are sorted by TokenID and hold at most one observation per token.
type EventSource interface {
	Next(ctx context.Context, tick clock.Tick) ([]*domain.Observation, error)
}

// SortObservations orders observations by (token_id ASC, timestamp_ms ASC).
func SortObservations(obs []*domain.Observation) {
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].TokenID != obs[j].TokenID {
			return obs[i].TokenID < obs[j].TokenID
		}
		return obs[i].TimestampMs < obs[j].TimestampMs
	})
}
