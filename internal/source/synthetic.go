package source

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/idhash"
)

// rugCollapse is the fraction of market cap left after a rug pull.
const rugCollapse = 0.03

// Synthetic generates token lifecycles from a seeded PCG stream.
// It is the only owner of randomness in a run: the same seed and tick
// sequence always yield the same observations.
type Synthetic struct {
	cfg      domain.SyntheticConfig
	rng      *rand.Rand
	tokens   []*synthToken // creation order
	nextTick int
	spawned  int
}

type synthToken struct {
	id        string
	bornTick  int
	lifespan  int
	marketCap float64
	holders   float64
	dev       float64
	liqRatio  float64

	upgradeable bool
	freeze      bool
	knownRugger bool
	graduated   bool
	rugged      bool
}

var _ EventSource = (*Synthetic)(nil)

// NewSynthetic creates a generator seeded with seed.
func NewSynthetic(cfg domain.SyntheticConfig, seed int64) *Synthetic {
	s := uint64(seed)
	return &Synthetic{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
	}
}

// Spawned returns the number of tokens created so far.
func (s *Synthetic) Spawned() int {
	return s.spawned
}

// Live returns the number of tokens still emitting observations.
func (s *Synthetic) Live() int {
	return len(s.tokens)
}

// Next advances every live token by one tick, spawns new arrivals and returns
// one observation per live token.
func (s *Synthetic) Next(ctx context.Context, tick clock.Tick) ([]*domain.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tick.Index != s.nextTick {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrTickOutOfOrder, s.nextTick, tick.Index)
	}
	s.nextTick++

	out := make([]*domain.Observation, 0, len(s.tokens)+1)
	live := s.tokens[:0]
	for _, t := range s.tokens {
		if t.rugged || tick.Index-t.bornTick >= t.lifespan {
			continue
		}
		out = append(out, s.step(t, tick))
		live = append(live, t)
	}
	s.tokens = live

	for n := s.arrivals(); n > 0; n-- {
		t, err := s.spawn(tick.Index)
		if err != nil {
			return nil, err
		}
		s.tokens = append(s.tokens, t)
		out = append(out, t.observe(tick.TimestampMs, s.cfg.SupplyUnits, false, false))
	}

	SortObservations(out)
	return out, nil
}

// arrivals draws the number of tokens born this tick:
// the integer part of the rate plus one Bernoulli draw on the fraction.
func (s *Synthetic) arrivals() int {
	whole, frac := math.Modf(s.cfg.ArrivalRate)
	n := int(whole)
	if frac > 0 && s.rng.Float64() < frac {
		n++
	}
	return n
}

func (s *Synthetic) spawn(tickIndex int) (*synthToken, error) {
	var seed [idhash.MintKeySize]byte
	for i := 0; i < idhash.MintKeySize; i += 8 {
		binary.LittleEndian.PutUint64(seed[i:], s.rng.Uint64())
	}
	id, err := idhash.MintAddress(seed)
	if err != nil {
		return nil, fmt.Errorf("derive token id: %w", err)
	}

	c := s.cfg
	t := &synthToken{
		id:        id,
		bornTick:  tickIndex,
		lifespan:  c.LifespanTicksMin + s.rng.IntN(c.LifespanTicksMax-c.LifespanTicksMin+1),
		marketCap: s.uniform(c.InitialMarketCapMinUSD, c.InitialMarketCapMaxUSD),
		holders:   float64(c.InitialHoldersMin + s.rng.IntN(c.InitialHoldersMax-c.InitialHoldersMin+1)),
		dev:       s.uniform(c.InitialDevHoldingMin, c.InitialDevHoldingMax),
		liqRatio:  c.LiquidityRatio,
	}
	if s.rng.Float64() < c.RugFlagProbability {
		switch s.rng.IntN(3) {
		case 0:
			t.upgradeable = true
		case 1:
			t.freeze = true
		default:
			t.knownRugger = true
		}
	}
	s.spawned++
	return t, nil
}

// step evolves t by one tick and returns its observation.
func (s *Synthetic) step(t *synthToken, tick clock.Tick) *domain.Observation {
	c := s.cfg
	prev := t.marketCap

	t.marketCap *= math.Exp(c.Drift + c.Volatility*s.rng.NormFloat64())
	t.marketCap = math.Min(math.Max(t.marketCap, c.MarketCapFloorUSD), c.MarketCapCeilingUSD)

	if s.rng.Float64() < c.RugPullProbability {
		t.marketCap = math.Max(t.marketCap*rugCollapse, c.MarketCapFloorUSD)
		t.liqRatio *= rugCollapse
		t.rugged = true
	}

	// logistic growth, never shrinking
	growth := c.HolderGrowthRate * t.holders * (1 - t.holders/float64(c.HolderCeiling))
	if growth > 0 {
		t.holders = math.Min(t.holders+growth*(0.5+s.rng.Float64()), float64(c.HolderCeiling))
	}

	t.dev = math.Max(0, t.dev-c.DevDecayPerTick)
	spike := s.rng.Float64() < c.DevSpikeProbability
	if spike {
		t.dev = math.Min(1, t.dev+c.DevSpikeSize)
	}

	if !t.graduated && c.GraduationMarketCapUSD > 0 {
		p := c.GraduationProbability * math.Min(t.marketCap/c.GraduationMarketCapUSD, 2)
		if s.rng.Float64() < p {
			t.graduated = true
			t.liqRatio *= c.GraduationLiquidityBoost
		}
	}

	return t.observe(tick.TimestampMs, c.SupplyUnits, t.marketCap > prev, spike)
}

func (s *Synthetic) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

func (t *synthToken) observe(tsMs int64, supply float64, momentum, supplySpike bool) *domain.Observation {
	return &domain.Observation{
		TokenID:         t.id,
		TimestampMs:     tsMs,
		MarketCapUSD:    t.marketCap,
		DevHolding:      t.dev,
		LiquidityUSD:    t.marketCap * t.liqRatio,
		Holders:         int(t.holders),
		Price:           t.marketCap / supply,
		MintUpgradeable: t.upgradeable,
		FreezeAuthority: t.freeze,
		SupplySpike:     supplySpike,
		KnownRugger:     t.knownRugger,
		Momentum:        momentum,
		Graduated:       t.graduated,
	}
}
