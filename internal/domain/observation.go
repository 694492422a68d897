package domain

import (
	"errors"
	"fmt"
	"math"
)

// Observation validation errors.
var (
	ErrMissingTokenID     = errors.New("observation: token id is required")
	ErrInvalidTimestamp   = errors.New("observation: timestamp must be positive")
	ErrInvalidPrice       = errors.New("observation: price must be positive and finite")
	ErrInvalidMarketCap   = errors.New("observation: market cap must be non-negative and finite")
	ErrInvalidDevHolding  = errors.New("observation: dev holding must be within [0, 1]")
	ErrInvalidLiquidity   = errors.New("observation: liquidity must be non-negative and finite")
	ErrInvalidHolderCount = errors.New("observation: holder count must be non-negative")
)

// Observation is one snapshot of a token's market state at a simulated tick.
// Observations are never mutated after they leave the event source; scoring
// produces a copy via WithScore.
type Observation struct {
	TokenID      string  // base58 mint address
	TimestampMs  int64   // tick timestamp in Unix milliseconds
	MarketCapUSD float64 // market cap estimate
	DevHolding   float64 // fraction of supply held by the dev wallet, 0..1
	LiquidityUSD float64 // pool liquidity estimate
	Holders      int     // holder count
	Price        float64 // reference price in USD

	MintUpgradeable bool // mint authority not renounced
	FreezeAuthority bool // freeze authority present
	SupplySpike     bool // sudden unexplained supply increase
	KnownRugger     bool // dev wallet flagged as prior rugger
	Momentum        bool // market cap rose since the previous tick
	Graduated       bool // graduation / liquidity event has occurred

	Score float64 // 0..100, set by the scoring engine
}

// HasRugSignal reports whether any rug-signal flag is set.
func (o *Observation) HasRugSignal() bool {
	return o.MintUpgradeable || o.FreezeAuthority || o.SupplySpike || o.KnownRugger
}

// WithScore returns a copy of the observation carrying the given score.
func (o *Observation) WithScore(score float64) *Observation {
	c := *o
	c.Score = score
	return &c
}

// Validate checks that the observation is well-formed.
func (o *Observation) Validate() error {
	if o.TokenID == "" {
		return ErrMissingTokenID
	}
	if o.TimestampMs <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTimestamp, o.TimestampMs)
	}
	if !finite(o.Price) || o.Price <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidPrice, o.Price)
	}
	if !finite(o.MarketCapUSD) || o.MarketCapUSD < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidMarketCap, o.MarketCapUSD)
	}
	if !finite(o.DevHolding) || o.DevHolding < 0 || o.DevHolding > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidDevHolding, o.DevHolding)
	}
	if !finite(o.LiquidityUSD) || o.LiquidityUSD < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidLiquidity, o.LiquidityUSD)
	}
	if o.Holders < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHolderCount, o.Holders)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
