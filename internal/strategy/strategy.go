// Package strategy implements the entry side of the memecoin strategy:
// a pure scoring function and an ordered admission filter.
package strategy

import (
	"solana-memebot-sim/internal/domain"
)

// Strategy bundles the scorer and the pipeline built from one configuration.
type Strategy struct {
	scorer   *Scorer
	pipeline *Pipeline
}

// FromConfig builds a Strategy from the entry and scoring sections of cfg.
func FromConfig(cfg domain.Config) *Strategy {
	scorer := NewScorer(cfg.Entry, cfg.Scoring)
	return &Strategy{
		scorer:   scorer,
		pipeline: NewPipeline(cfg.Entry, scorer),
	}
}

// Evaluate scores obs and runs the admission pipeline on the scored copy.
// The input observation is not modified.
func (s *Strategy) Evaluate(obs *domain.Observation) (*domain.Observation, Score, Decision) {
	score := s.scorer.Score(obs)
	scored := obs.WithScore(score.Value)
	return scored, score, s.pipeline.Admit(scored)
}

// Scorer returns the strategy's scorer.
func (s *Strategy) Scorer() *Scorer {
	return s.scorer
}

// Pipeline returns the strategy's admission pipeline.
func (s *Strategy) Pipeline() *Pipeline {
	return s.pipeline
}
