package strategy

import (
	"math"

	"solana-memebot-sim/internal/domain"
)

// Verdict is a hard-filter verdict raised by the scorer.
// A verdict forces rejection regardless of the numeric score.
type Verdict string

// Scorer verdicts.
const (
	VerdictRugSignal    Verdict = "RUG_SIGNAL"
	VerdictAboveHardCap Verdict = "ABOVE_HARD_CAP"
)

// Score is the scorer's output for one observation.
type Score struct {
	Value    float64   // clamped to [0, 100]
	Verdicts []Verdict // empty when no hard filter fired
}

// Rejected reports whether any verdict forces rejection.
func (s Score) Rejected() bool {
	return len(s.Verdicts) > 0
}

// Scorer computes observation scores. It holds no mutable state.
type Scorer struct {
	entry   domain.EntryConfig
	weights domain.ScoringWeights
}

// NewScorer creates a scorer for the given entry filters and weights.
func NewScorer(entry domain.EntryConfig, weights domain.ScoringWeights) *Scorer {
	return &Scorer{entry: entry, weights: weights}
}

// Score evaluates obs. The value is non-increasing in dev holding,
// non-decreasing in holders (saturating at HolderBonusCap), and gains a
// bonus inside the market cap band and a penalty outside it. A known rugger
// scores 0.
func (s *Scorer) Score(obs *domain.Observation) Score {
	if obs.KnownRugger {
		return Score{Verdicts: s.verdicts(obs)}
	}

	w := s.weights
	e := s.entry
	score := w.Base

	// Holders
	if obs.Holders >= e.MinHolders {
		score += math.Min(float64(obs.Holders-e.MinHolders)/w.HolderBonusDivisor, w.HolderBonusCap)
	} else {
		score -= float64(e.MinHolders-obs.Holders) / w.HolderPenaltyDivisor
	}

	// Dev concentration
	switch {
	case obs.DevHolding >= e.DevHoldingCap:
		score -= math.Max(100, highDevPenalty(obs.DevHolding, w))
	case obs.DevHolding > w.HighDevThreshold:
		score -= highDevPenalty(obs.DevHolding, w)
	case obs.DevHolding < w.LowDevThreshold:
		score += w.LowDevBonus
	}

	// Liquidity
	if w.LiquidityBonusDivisor > 0 {
		score += math.Min(obs.LiquidityUSD/w.LiquidityBonusDivisor, w.LiquidityBonusCap)
	}

	// Market cap band
	if inBand(obs.MarketCapUSD, e) {
		score += w.SweetSpotBonus
	} else {
		score -= w.OutOfBandPenalty
	}

	if obs.Momentum {
		score += w.MomentumBonus
	}
	if obs.Graduated {
		score += w.GraduationBonus
	}
	if obs.MintUpgradeable {
		score -= w.UpgradeablePenalty
	}
	if obs.FreezeAuthority {
		score -= w.FreezeAuthorityPenalty
	}

	return Score{
		Value:    clamp(score, 0, 100),
		Verdicts: s.verdicts(obs),
	}
}

func (s *Scorer) verdicts(obs *domain.Observation) []Verdict {
	var v []Verdict
	if obs.HasRugSignal() {
		v = append(v, VerdictRugSignal)
	}
	if obs.MarketCapUSD > s.entry.MarketCapHardCapUSD {
		v = append(v, VerdictAboveHardCap)
	}
	return v
}

func highDevPenalty(dev float64, w domain.ScoringWeights) float64 {
	return math.Max(0, dev-w.HighDevThreshold) * 100 * w.HighDevPenaltyPerPct
}

func inBand(mcap float64, e domain.EntryConfig) bool {
	return mcap >= e.MarketCapMinUSD && mcap <= e.MarketCapMaxUSD
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
