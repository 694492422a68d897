package source

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/idhash"
)

func testTicks(t *testing.T, hours float64) []clock.Tick {
	t.Helper()
	cfg := domain.DefaultConfig().Run
	cfg.DurationHours = hours
	clk, err := clock.New(cfg)
	if err != nil {
		t.Fatalf("clock.New: %v", err)
	}
	return clk.Ticks()
}

func drain(t *testing.T, src EventSource, ticks []clock.Tick) [][]*domain.Observation {
	t.Helper()
	var out [][]*domain.Observation
	for _, tick := range ticks {
		batch, err := src.Next(context.Background(), tick)
		if err != nil {
			t.Fatalf("Next(%d): %v", tick.Index, err)
		}
		out = append(out, batch)
	}
	return out
}

func TestSynthetic_Deterministic(t *testing.T) {
	ticks := testTicks(t, 4)
	cfg := domain.DefaultSyntheticConfig()

	a := drain(t, NewSynthetic(cfg, 42), ticks)
	b := drain(t, NewSynthetic(cfg, 42), ticks)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different observation streams")
	}

	c := drain(t, NewSynthetic(cfg, 43), ticks)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical streams")
	}
}

func TestSynthetic_BatchesSortedAndValid(t *testing.T) {
	ticks := testTicks(t, 6)
	src := NewSynthetic(domain.DefaultSyntheticConfig(), 7)

	total := 0
	for i, batch := range drain(t, src, ticks) {
		seen := make(map[string]bool)
		for j, o := range batch {
			if err := o.Validate(); err != nil {
				t.Fatalf("tick %d: invalid observation %+v: %v", i, o, err)
			}
			if o.TimestampMs != ticks[i].TimestampMs {
				t.Errorf("tick %d: timestamp %d, want %d", i, o.TimestampMs, ticks[i].TimestampMs)
			}
			if seen[o.TokenID] {
				t.Errorf("tick %d: duplicate token %s", i, o.TokenID)
			}
			seen[o.TokenID] = true
			if j > 0 && batch[j-1].TokenID >= o.TokenID {
				t.Errorf("tick %d: batch not sorted at %d", i, j)
			}
		}
		total += len(batch)
	}

	if src.Spawned() == 0 || total == 0 {
		t.Fatal("expected the generator to spawn tokens")
	}
}

func TestSynthetic_TokenIDsAreMintAddresses(t *testing.T) {
	src := NewSynthetic(domain.DefaultSyntheticConfig(), 1)
	for _, batch := range drain(t, src, testTicks(t, 1)) {
		for _, o := range batch {
			if err := idhash.ValidateMintAddress(o.TokenID); err != nil {
				t.Fatalf("token id %q: %v", o.TokenID, err)
			}
		}
	}
}

func TestSynthetic_TrajectoryProperties(t *testing.T) {
	cfg := domain.DefaultSyntheticConfig()
	src := NewSynthetic(cfg, 99)

	type state struct {
		holders   int
		graduated bool
		marketCap float64
	}
	last := make(map[string]state)

	for i, batch := range drain(t, src, testTicks(t, 12)) {
		for _, o := range batch {
			if o.MarketCapUSD < cfg.MarketCapFloorUSD || o.MarketCapUSD > cfg.MarketCapCeilingUSD {
				t.Fatalf("tick %d: market cap %v outside bounds", i, o.MarketCapUSD)
			}
			prev, ok := last[o.TokenID]
			if ok {
				if o.Holders < prev.holders {
					t.Errorf("tick %d: holders of %s fell from %d to %d", i, o.TokenID, prev.holders, o.Holders)
				}
				if prev.graduated && !o.Graduated {
					t.Errorf("tick %d: %s lost graduation", i, o.TokenID)
				}
				if o.Momentum != (o.MarketCapUSD > prev.marketCap) {
					t.Errorf("tick %d: momentum of %s inconsistent with market cap", i, o.TokenID)
				}
			}
			last[o.TokenID] = state{holders: o.Holders, graduated: o.Graduated, marketCap: o.MarketCapUSD}
		}
	}
}

func TestSynthetic_ArrivalRate(t *testing.T) {
	cfg := domain.DefaultSyntheticConfig()
	cfg.ArrivalRate = 2
	src := NewSynthetic(cfg, 5)

	ticks := testTicks(t, 1)
	drain(t, src, ticks)

	if got, want := src.Spawned(), 2*len(ticks); got != want {
		t.Errorf("Spawned() = %d, want %d", got, want)
	}
}

func TestSynthetic_NoArrivals(t *testing.T) {
	cfg := domain.DefaultSyntheticConfig()
	cfg.ArrivalRate = 0
	src := NewSynthetic(cfg, 5)

	for _, batch := range drain(t, src, testTicks(t, 1)) {
		if len(batch) != 0 {
			t.Fatalf("expected empty batches, got %d observations", len(batch))
		}
	}
}

func TestSynthetic_TicksMustBeSequential(t *testing.T) {
	ticks := testTicks(t, 1)
	src := NewSynthetic(domain.DefaultSyntheticConfig(), 1)

	if _, err := src.Next(context.Background(), ticks[1]); !errors.Is(err, ErrTickOutOfOrder) {
		t.Fatalf("expected ErrTickOutOfOrder, got %v", err)
	}
}

func TestSynthetic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSynthetic(domain.DefaultSyntheticConfig(), 1)
	if _, err := src.Next(ctx, testTicks(t, 1)[0]); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
