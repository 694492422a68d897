package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

func createTestEvent(tokenID string, ts int64, score float64) *domain.Observation {
	return &domain.Observation{
		TokenID:      tokenID,
		TimestampMs:  ts,
		MarketCapUSD: 95_000,
		DevHolding:   0.06,
		LiquidityUSD: 14_250,
		Holders:      310,
		Price:        0.000095,
		SupplySpike:  true,
		Graduated:    ts >= 3000,
		Score:        score,
	}
}

func TestObservationStore_InsertBulkAndGetByRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	err := store.InsertBulk(ctx, "run-1", []*domain.Observation{
		createTestEvent("tok-b", 2000, 70),
		createTestEvent("tok-a", 2000, 60),
		createTestEvent("tok-a", 1000, 50),
	})
	require.NoError(t, err)

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, "tok-a", got[1].TokenID)
	assert.Equal(t, "tok-b", got[2].TokenID)
	assert.Equal(t, 310, got[0].Holders)
	assert.True(t, got[0].SupplySpike)
	assert.False(t, got[0].Graduated)
	assert.InDelta(t, 0.000095, got[0].Price, 1e-12)
}

func TestObservationStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []*domain.Observation{createTestEvent("tok-a", 1000, 50)}))

	err := store.InsertBulk(ctx, "run-1", []*domain.Observation{createTestEvent("tok-a", 1000, 50)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, "run-1", []*domain.Observation{
		createTestEvent("tok-c", 1000, 50),
		createTestEvent("tok-c", 1000, 51),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// another run may reuse the key
	require.NoError(t, store.InsertBulk(ctx, "run-2", []*domain.Observation{createTestEvent("tok-a", 1000, 50)}))
}

func TestObservationStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	var batch []*domain.Observation
	for ts := int64(1000); ts <= 5000; ts += 1000 {
		batch = append(batch, createTestEvent("tok-a", ts, 50))
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", batch))

	got, err := store.GetByTimeRange(ctx, "run-1", 2000, 4000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[1].Graduated)
}

func TestObservationStore_TokenStats(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []*domain.Observation{
		createTestEvent("tok-a", 1000, 40),
		createTestEvent("tok-a", 3000, 90),
		createTestEvent("tok-b", 1000, 60),
	}))

	stats, err := store.TokenStats(ctx, "run-1", 0)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "tok-a", stats[0].TokenID)
	assert.Equal(t, 2, stats[0].Observations)
	assert.Equal(t, int64(1000), stats[0].FirstSeenMs)
	assert.Equal(t, int64(3000), stats[0].LastSeenMs)
	assert.InDelta(t, 90, stats[0].PeakScore, 1e-9)
	assert.True(t, stats[0].Graduated)
	assert.False(t, stats[1].Graduated)

	top, err := store.TokenStats(ctx, "run-1", 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
