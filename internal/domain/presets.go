package domain

// Preset names.
const (
	PresetDefault      = "default"
	PresetConservative = "conservative"
	PresetAggressive   = "aggressive"
	PresetEarlySnipe   = "early_snipe"
)

// DefaultStartTimeMs is the simulated epoch used when no start time is configured.
const DefaultStartTimeMs int64 = 1_700_000_000_000

// DefaultConfig returns the baseline strategy: 3 SOL bankroll, 0.5 SOL per trade,
// at most 5 positions, 50k-250k market cap band, score threshold 75.
func DefaultConfig() Config {
	return Config{
		Preset: PresetDefault,
		Portfolio: PortfolioConfig{
			Bankroll:     3.0,
			PerTradeCap:  0.5,
			MaxPositions: 5,
			SolUSDPrice:  30.0,
		},
		Entry: EntryConfig{
			MarketCapMinUSD:     50_000,
			MarketCapMaxUSD:     250_000,
			MarketCapHardCapUSD: 300_000,
			DevHoldingCap:       0.15,
			MinHolders:          200,
			MinLiquidityUSD:     0,
			RequireMomentum:     false,
			ScoreThreshold:      75,
		},
		Scoring: DefaultScoringWeights(),
		Exit: ExitConfig{
			StopLossPct:              0.20,
			ProfitBandMin:            0.50,
			ProfitBandMax:            1.00,
			DevSpikeDelta:            0.10,
			LiquiditySpikeMultiplier: 0,
		},
		Run: RunConfig{
			Mode:          ModeSynthetic,
			DurationHours: 24,
			TicksPerHour:  60,
			StartTimeMs:   DefaultStartTimeMs,
			Seed:          42,
		},
		Synthetic: DefaultSyntheticConfig(),
	}
}

// DefaultScoringWeights returns the stock score weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Base:                   50,
		HolderBonusDivisor:     50,
		HolderBonusCap:         30,
		HolderPenaltyDivisor:   10,
		HighDevThreshold:       0.10,
		HighDevPenaltyPerPct:   4,
		LowDevThreshold:        0.05,
		LowDevBonus:            10,
		LiquidityBonusDivisor:  1000,
		LiquidityBonusCap:      25,
		SweetSpotBonus:         15,
		OutOfBandPenalty:       10,
		MomentumBonus:          20,
		GraduationBonus:        25,
		UpgradeablePenalty:     20,
		FreezeAuthorityPenalty: 15,
	}
}

// DefaultSyntheticConfig returns generator parameters tuned so that a fraction
// of tokens drift into the entry band during a 24h run.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		ArrivalRate:            0.5,
		InitialMarketCapMinUSD: 20_000,
		InitialMarketCapMaxUSD: 120_000,
		MarketCapFloorUSD:      1_000,
		MarketCapCeilingUSD:    5_000_000,
		Drift:                  0.001,
		Volatility:             0.06,
		SupplyUnits:            1_000_000_000,

		InitialHoldersMin: 50,
		InitialHoldersMax: 600,
		HolderCeiling:     5_000,
		HolderGrowthRate:  0.04,

		InitialDevHoldingMin: 0.02,
		InitialDevHoldingMax: 0.30,
		DevDecayPerTick:      0.002,
		DevSpikeProbability:  0.004,
		DevSpikeSize:         0.15,

		LiquidityRatio:           0.15,
		GraduationMarketCapUSD:   90_000,
		GraduationProbability:    0.01,
		GraduationLiquidityBoost: 2.5,

		RugFlagProbability: 0.15,
		RugPullProbability: 0.002,
		LifespanTicksMin:   30,
		LifespanTicksMax:   720,
	}
}

// Presets maps preset names to their constructors.
var Presets = map[string]func() Config{
	PresetDefault:      DefaultConfig,
	PresetConservative: ConservativeConfig,
	PresetAggressive:   AggressiveConfig,
	PresetEarlySnipe:   EarlySnipeConfig,
}

// ConservativeConfig trades less often with tighter filters and smaller size.
func ConservativeConfig() Config {
	c := DefaultConfig()
	c.Preset = PresetConservative
	c.Portfolio.PerTradeCap = 0.3
	c.Portfolio.MaxPositions = 3
	c.Entry.MarketCapMinUSD = 60_000
	c.Entry.MarketCapMaxUSD = 200_000
	c.Entry.DevHoldingCap = 0.10
	c.Entry.MinHolders = 300
	c.Entry.MinLiquidityUSD = 10_000
	c.Entry.ScoreThreshold = 80
	c.Exit.StopLossPct = 0.15
	return c
}

// AggressiveConfig accepts weaker setups with larger size and wider stops.
func AggressiveConfig() Config {
	c := DefaultConfig()
	c.Preset = PresetAggressive
	c.Portfolio.PerTradeCap = 0.75
	c.Entry.MinHolders = 100
	c.Entry.ScoreThreshold = 65
	c.Exit.StopLossPct = 0.30
	c.Exit.ProfitBandMin = 0.75
	c.Exit.ProfitBandMax = 1.50
	return c
}

// EarlySnipeConfig targets fresh launches with momentum and exits on liquidity spikes.
func EarlySnipeConfig() Config {
	c := DefaultConfig()
	c.Preset = PresetEarlySnipe
	c.Portfolio.PerTradeCap = 0.25
	c.Entry.MarketCapMinUSD = 20_000
	c.Entry.MarketCapMaxUSD = 120_000
	c.Entry.MinHolders = 50
	c.Entry.RequireMomentum = true
	c.Entry.ScoreThreshold = 70
	c.Exit.StopLossPct = 0.25
	c.Exit.LiquiditySpikeMultiplier = 2.0
	return c
}
