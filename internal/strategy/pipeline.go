package strategy

import (
	"solana-memebot-sim/internal/domain"
)

// Decision is the filter pipeline's admission result.
// Rejections are values with a reason code, not errors.
type Decision struct {
	Admitted bool
	Reason   domain.RejectReason
}

func reject(r domain.RejectReason) Decision {
	return Decision{Reason: r}
}

// Pipeline applies the hard filters and the score threshold.
type Pipeline struct {
	entry  domain.EntryConfig
	scorer *Scorer
}

// NewPipeline creates a pipeline. The scorer is consulted for hard-filter verdicts.
func NewPipeline(entry domain.EntryConfig, scorer *Scorer) *Pipeline {
	return &Pipeline{entry: entry, scorer: scorer}
}

// Admit decides whether obs may be offered to the portfolio.
// obs.Score must already be set. Checks run in a fixed order and the first
// failing check determines the reason.
func (p *Pipeline) Admit(obs *domain.Observation) Decision {
	e := p.entry

	for _, v := range p.scorer.verdicts(obs) {
		switch v {
		case VerdictRugSignal:
			return reject(domain.RejectRugSignal)
		case VerdictAboveHardCap:
			return reject(domain.RejectAboveHardCap)
		}
	}

	if !inBand(obs.MarketCapUSD, e) {
		return reject(domain.RejectMarketCapOutOfBand)
	}
	if obs.Holders < e.MinHolders {
		return reject(domain.RejectHoldersBelowMin)
	}
	if obs.DevHolding >= e.DevHoldingCap {
		return reject(domain.RejectDevHoldingTooHigh)
	}
	if e.MinLiquidityUSD > 0 && obs.LiquidityUSD < e.MinLiquidityUSD {
		return reject(domain.RejectLiquidityBelowMin)
	}
	if e.RequireMomentum && !obs.Momentum {
		return reject(domain.RejectMomentumRequired)
	}
	// NaN fails
	if !(obs.Score >= e.ScoreThreshold) {
		return reject(domain.RejectScoreBelowThreshold)
	}

	return Decision{Admitted: true}
}
