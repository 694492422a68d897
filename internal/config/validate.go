package config

import (
	"errors"
	"fmt"
	"math"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/domain"
)

// Configuration precondition errors. Any of these aborts the run before the first tick.
var (
	ErrInvalidBankroll       = errors.New("config: bankroll must be positive")
	ErrInvalidPerTradeCap    = errors.New("config: per-trade cap must be positive and not exceed bankroll")
	ErrInvalidMaxPositions   = errors.New("config: max positions must be at least 1")
	ErrInvalidSolUSDPrice    = errors.New("config: sol/usd price must be positive")
	ErrEmptyEntryBand        = errors.New("config: market cap entry band is empty")
	ErrInvalidHardCap        = errors.New("config: market cap hard cap must be at least the band maximum")
	ErrInvalidDevCap         = errors.New("config: dev holding cap must be within (0, 1]")
	ErrInvalidMinHolders     = errors.New("config: min holders must be non-negative")
	ErrInvalidThreshold      = errors.New("config: score threshold must be within [0, 100]")
	ErrInvalidStopLoss       = errors.New("config: stop loss must be within (0, 1)")
	ErrInvalidProfitBand     = errors.New("config: profit band must satisfy 0 < min <= max")
	ErrInvalidDevSpikeDelta  = errors.New("config: dev spike delta must be positive")
	ErrInvalidLiquiditySpike = errors.New("config: liquidity spike multiplier must be 0 (off) or above 1")
	ErrInvalidMode           = errors.New("config: mode must be synthetic or external")
	ErrInvalidSynthetic      = errors.New("config: invalid synthetic generator parameters")
	ErrInvalidScoring        = errors.New("config: invalid scoring weights")
)

// Validate checks every precondition on cfg.
func Validate(cfg domain.Config) error {
	if err := validatePortfolio(cfg.Portfolio); err != nil {
		return err
	}
	if err := validateEntry(cfg.Entry); err != nil {
		return err
	}
	if err := validateScoring(cfg.Scoring); err != nil {
		return err
	}
	if err := validateExit(cfg.Exit); err != nil {
		return err
	}
	if !cfg.Run.Mode.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidMode, cfg.Run.Mode)
	}
	if _, err := clock.New(cfg.Run); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Run.Mode == domain.ModeSynthetic {
		if err := validateSynthetic(cfg.Synthetic); err != nil {
			return err
		}
	}
	return nil
}

func validatePortfolio(p domain.PortfolioConfig) error {
	if p.Bankroll <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidBankroll, p.Bankroll)
	}
	if p.PerTradeCap <= 0 || p.PerTradeCap > p.Bankroll {
		return fmt.Errorf("%w: cap %v, bankroll %v", ErrInvalidPerTradeCap, p.PerTradeCap, p.Bankroll)
	}
	if p.MaxPositions < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxPositions, p.MaxPositions)
	}
	if p.SolUSDPrice <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidSolUSDPrice, p.SolUSDPrice)
	}
	return nil
}

func validateEntry(e domain.EntryConfig) error {
	if e.MarketCapMinUSD < 0 || e.MarketCapMaxUSD <= e.MarketCapMinUSD {
		return fmt.Errorf("%w: [%v, %v]", ErrEmptyEntryBand, e.MarketCapMinUSD, e.MarketCapMaxUSD)
	}
	if e.MarketCapHardCapUSD < e.MarketCapMaxUSD {
		return fmt.Errorf("%w: hard cap %v, band max %v", ErrInvalidHardCap, e.MarketCapHardCapUSD, e.MarketCapMaxUSD)
	}
	if e.DevHoldingCap <= 0 || e.DevHoldingCap > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidDevCap, e.DevHoldingCap)
	}
	if e.MinHolders < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMinHolders, e.MinHolders)
	}
	if e.ScoreThreshold < 0 || e.ScoreThreshold > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, e.ScoreThreshold)
	}
	return nil
}

func validateScoring(w domain.ScoringWeights) error {
	named := []struct {
		name string
		v    float64
	}{
		{"base", w.Base},
		{"holder_bonus_divisor", w.HolderBonusDivisor},
		{"holder_bonus_cap", w.HolderBonusCap},
		{"holder_penalty_divisor", w.HolderPenaltyDivisor},
		{"high_dev_threshold", w.HighDevThreshold},
		{"high_dev_penalty_per_pct", w.HighDevPenaltyPerPct},
		{"low_dev_threshold", w.LowDevThreshold},
		{"low_dev_bonus", w.LowDevBonus},
		{"liquidity_bonus_divisor", w.LiquidityBonusDivisor},
		{"liquidity_bonus_cap", w.LiquidityBonusCap},
		{"sweet_spot_bonus", w.SweetSpotBonus},
		{"out_of_band_penalty", w.OutOfBandPenalty},
		{"momentum_bonus", w.MomentumBonus},
		{"graduation_bonus", w.GraduationBonus},
		{"upgradeable_penalty", w.UpgradeablePenalty},
		{"freeze_authority_penalty", w.FreezeAuthorityPenalty},
	}
	for _, n := range named {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) || n.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidScoring, n.name, n.v)
		}
	}

	// liquidity_bonus_divisor 0 turns the liquidity bonus off
	if w.HolderBonusDivisor == 0 || w.HolderPenaltyDivisor == 0 {
		return fmt.Errorf("%w: holder divisors must be positive, got %v and %v",
			ErrInvalidScoring, w.HolderBonusDivisor, w.HolderPenaltyDivisor)
	}
	if w.HighDevThreshold > 1 || w.LowDevThreshold > w.HighDevThreshold {
		return fmt.Errorf("%w: dev thresholds must satisfy low <= high <= 1, got %v and %v",
			ErrInvalidScoring, w.LowDevThreshold, w.HighDevThreshold)
	}
	return nil
}

func validateExit(x domain.ExitConfig) error {
	if x.StopLossPct <= 0 || x.StopLossPct >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidStopLoss, x.StopLossPct)
	}
	if x.ProfitBandMin <= 0 || x.ProfitBandMax < x.ProfitBandMin {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidProfitBand, x.ProfitBandMin, x.ProfitBandMax)
	}
	if x.DevSpikeDelta <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidDevSpikeDelta, x.DevSpikeDelta)
	}
	if x.LiquiditySpikeMultiplier != 0 && x.LiquiditySpikeMultiplier <= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidLiquiditySpike, x.LiquiditySpikeMultiplier)
	}
	return nil
}

func validateSynthetic(s domain.SyntheticConfig) error {
	switch {
	case s.ArrivalRate < 0:
		return fmt.Errorf("%w: arrival rate %v", ErrInvalidSynthetic, s.ArrivalRate)
	case s.InitialMarketCapMinUSD <= 0 || s.InitialMarketCapMaxUSD < s.InitialMarketCapMinUSD:
		return fmt.Errorf("%w: initial market cap range [%v, %v]", ErrInvalidSynthetic, s.InitialMarketCapMinUSD, s.InitialMarketCapMaxUSD)
	case s.MarketCapFloorUSD <= 0 || s.MarketCapCeilingUSD <= s.MarketCapFloorUSD:
		return fmt.Errorf("%w: market cap bounds [%v, %v]", ErrInvalidSynthetic, s.MarketCapFloorUSD, s.MarketCapCeilingUSD)
	case s.Volatility < 0:
		return fmt.Errorf("%w: volatility %v", ErrInvalidSynthetic, s.Volatility)
	case s.SupplyUnits <= 0:
		return fmt.Errorf("%w: supply units %v", ErrInvalidSynthetic, s.SupplyUnits)
	case s.InitialHoldersMin < 0 || s.InitialHoldersMax < s.InitialHoldersMin || s.HolderCeiling < s.InitialHoldersMax:
		return fmt.Errorf("%w: holder range [%d, %d] ceiling %d", ErrInvalidSynthetic, s.InitialHoldersMin, s.InitialHoldersMax, s.HolderCeiling)
	case s.InitialDevHoldingMin < 0 || s.InitialDevHoldingMax > 1 || s.InitialDevHoldingMax < s.InitialDevHoldingMin:
		return fmt.Errorf("%w: dev holding range [%v, %v]", ErrInvalidSynthetic, s.InitialDevHoldingMin, s.InitialDevHoldingMax)
	case !isProbability(s.DevSpikeProbability) || !isProbability(s.GraduationProbability) ||
		!isProbability(s.RugFlagProbability) || !isProbability(s.RugPullProbability):
		return fmt.Errorf("%w: probabilities must be within [0, 1]", ErrInvalidSynthetic)
	case s.LifespanTicksMin < 1 || s.LifespanTicksMax < s.LifespanTicksMin:
		return fmt.Errorf("%w: lifespan [%d, %d]", ErrInvalidSynthetic, s.LifespanTicksMin, s.LifespanTicksMax)
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}
