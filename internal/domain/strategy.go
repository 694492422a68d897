package domain

// Config is the full simulation configuration. Built once by the config
// package and passed by value; nothing mutates it during a run.
type Config struct {
	Preset    string          `mapstructure:"preset" yaml:"preset" json:"preset"`
	Portfolio PortfolioConfig `mapstructure:"portfolio" yaml:"portfolio" json:"portfolio"`
	Entry     EntryConfig     `mapstructure:"entry" yaml:"entry" json:"entry"`
	Scoring   ScoringWeights  `mapstructure:"scoring" yaml:"scoring" json:"scoring"`
	Exit      ExitConfig      `mapstructure:"exit" yaml:"exit" json:"exit"`
	Run       RunConfig       `mapstructure:"run" yaml:"run" json:"run"`
	Synthetic SyntheticConfig `mapstructure:"synthetic" yaml:"synthetic" json:"synthetic"`
}

// PortfolioConfig bounds capital usage. Amounts are in SOL.
type PortfolioConfig struct {
	Bankroll     float64 `mapstructure:"bankroll" yaml:"bankroll" json:"bankroll"`
	PerTradeCap  float64 `mapstructure:"per_trade_cap" yaml:"per_trade_cap" json:"per_trade_cap"`
	MaxPositions int     `mapstructure:"max_positions" yaml:"max_positions" json:"max_positions"`
	SolUSDPrice  float64 `mapstructure:"sol_usd_price" yaml:"sol_usd_price" json:"sol_usd_price"`
}

// EntryConfig holds the hard filters and the admission threshold.
type EntryConfig struct {
	MarketCapMinUSD     float64 `mapstructure:"market_cap_min_usd" yaml:"market_cap_min_usd" json:"market_cap_min_usd"`
	MarketCapMaxUSD     float64 `mapstructure:"market_cap_max_usd" yaml:"market_cap_max_usd" json:"market_cap_max_usd"`
	MarketCapHardCapUSD float64 `mapstructure:"market_cap_hard_cap_usd" yaml:"market_cap_hard_cap_usd" json:"market_cap_hard_cap_usd"`
	DevHoldingCap       float64 `mapstructure:"dev_holding_cap" yaml:"dev_holding_cap" json:"dev_holding_cap"`
	MinHolders          int     `mapstructure:"min_holders" yaml:"min_holders" json:"min_holders"`
	MinLiquidityUSD     float64 `mapstructure:"min_liquidity_usd" yaml:"min_liquidity_usd" json:"min_liquidity_usd"`
	RequireMomentum     bool    `mapstructure:"require_momentum" yaml:"require_momentum" json:"require_momentum"`
	ScoreThreshold      float64 `mapstructure:"score_threshold" yaml:"score_threshold" json:"score_threshold"`
}

// ScoringWeights parameterizes the score formula.
type ScoringWeights struct {
	Base                   float64 `mapstructure:"base" yaml:"base" json:"base"`
	HolderBonusDivisor     float64 `mapstructure:"holder_bonus_divisor" yaml:"holder_bonus_divisor" json:"holder_bonus_divisor"`
	HolderBonusCap         float64 `mapstructure:"holder_bonus_cap" yaml:"holder_bonus_cap" json:"holder_bonus_cap"`
	HolderPenaltyDivisor   float64 `mapstructure:"holder_penalty_divisor" yaml:"holder_penalty_divisor" json:"holder_penalty_divisor"`
	HighDevThreshold       float64 `mapstructure:"high_dev_threshold" yaml:"high_dev_threshold" json:"high_dev_threshold"`
	HighDevPenaltyPerPct   float64 `mapstructure:"high_dev_penalty_per_pct" yaml:"high_dev_penalty_per_pct" json:"high_dev_penalty_per_pct"`
	LowDevThreshold        float64 `mapstructure:"low_dev_threshold" yaml:"low_dev_threshold" json:"low_dev_threshold"`
	LowDevBonus            float64 `mapstructure:"low_dev_bonus" yaml:"low_dev_bonus" json:"low_dev_bonus"`
	LiquidityBonusDivisor  float64 `mapstructure:"liquidity_bonus_divisor" yaml:"liquidity_bonus_divisor" json:"liquidity_bonus_divisor"`
	LiquidityBonusCap      float64 `mapstructure:"liquidity_bonus_cap" yaml:"liquidity_bonus_cap" json:"liquidity_bonus_cap"`
	SweetSpotBonus         float64 `mapstructure:"sweet_spot_bonus" yaml:"sweet_spot_bonus" json:"sweet_spot_bonus"`
	OutOfBandPenalty       float64 `mapstructure:"out_of_band_penalty" yaml:"out_of_band_penalty" json:"out_of_band_penalty"`
	MomentumBonus          float64 `mapstructure:"momentum_bonus" yaml:"momentum_bonus" json:"momentum_bonus"`
	GraduationBonus        float64 `mapstructure:"graduation_bonus" yaml:"graduation_bonus" json:"graduation_bonus"`
	UpgradeablePenalty     float64 `mapstructure:"upgradeable_penalty" yaml:"upgradeable_penalty" json:"upgradeable_penalty"`
	FreezeAuthorityPenalty float64 `mapstructure:"freeze_authority_penalty" yaml:"freeze_authority_penalty" json:"freeze_authority_penalty"`
}

// ExitConfig holds the position lifecycle thresholds.
// Percentages are fractions: 0.2 means 20%.
type ExitConfig struct {
	StopLossPct   float64 `mapstructure:"stop_loss_pct" yaml:"stop_loss_pct" json:"stop_loss_pct"`
	ProfitBandMin float64 `mapstructure:"profit_band_min" yaml:"profit_band_min" json:"profit_band_min"`
	ProfitBandMax float64 `mapstructure:"profit_band_max" yaml:"profit_band_max" json:"profit_band_max"`
	DevSpikeDelta float64 `mapstructure:"dev_spike_delta" yaml:"dev_spike_delta" json:"dev_spike_delta"`
	// LiquiditySpikeMultiplier closes a position when liquidity exceeds
	// entry liquidity times this value. Zero disables the rule.
	LiquiditySpikeMultiplier float64 `mapstructure:"liquidity_spike_multiplier" yaml:"liquidity_spike_multiplier" json:"liquidity_spike_multiplier"`
}

// RunConfig controls the simulated time span and the event source.
type RunConfig struct {
	Mode          Mode    `mapstructure:"mode" yaml:"mode" json:"mode"`
	DurationHours float64 `mapstructure:"duration_hours" yaml:"duration_hours" json:"duration_hours"`
	TicksPerHour  int     `mapstructure:"ticks_per_hour" yaml:"ticks_per_hour" json:"ticks_per_hour"`
	StartTimeMs   int64   `mapstructure:"start_time_ms" yaml:"start_time_ms" json:"start_time_ms"`
	Seed          int64   `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// SyntheticConfig parameterizes the synthetic token lifecycle generator.
type SyntheticConfig struct {
	ArrivalRate            float64 `mapstructure:"arrival_rate" yaml:"arrival_rate" json:"arrival_rate"` // new tokens per tick
	InitialMarketCapMinUSD float64 `mapstructure:"initial_market_cap_min_usd" yaml:"initial_market_cap_min_usd" json:"initial_market_cap_min_usd"`
	InitialMarketCapMaxUSD float64 `mapstructure:"initial_market_cap_max_usd" yaml:"initial_market_cap_max_usd" json:"initial_market_cap_max_usd"`
	MarketCapFloorUSD      float64 `mapstructure:"market_cap_floor_usd" yaml:"market_cap_floor_usd" json:"market_cap_floor_usd"`
	MarketCapCeilingUSD    float64 `mapstructure:"market_cap_ceiling_usd" yaml:"market_cap_ceiling_usd" json:"market_cap_ceiling_usd"`
	Drift                  float64 `mapstructure:"drift" yaml:"drift" json:"drift"`                // mean log return per tick
	Volatility             float64 `mapstructure:"volatility" yaml:"volatility" json:"volatility"` // stddev of log return per tick
	SupplyUnits            float64 `mapstructure:"supply_units" yaml:"supply_units" json:"supply_units"`

	InitialHoldersMin int     `mapstructure:"initial_holders_min" yaml:"initial_holders_min" json:"initial_holders_min"`
	InitialHoldersMax int     `mapstructure:"initial_holders_max" yaml:"initial_holders_max" json:"initial_holders_max"`
	HolderCeiling     int     `mapstructure:"holder_ceiling" yaml:"holder_ceiling" json:"holder_ceiling"`
	HolderGrowthRate  float64 `mapstructure:"holder_growth_rate" yaml:"holder_growth_rate" json:"holder_growth_rate"`

	InitialDevHoldingMin float64 `mapstructure:"initial_dev_holding_min" yaml:"initial_dev_holding_min" json:"initial_dev_holding_min"`
	InitialDevHoldingMax float64 `mapstructure:"initial_dev_holding_max" yaml:"initial_dev_holding_max" json:"initial_dev_holding_max"`
	DevDecayPerTick      float64 `mapstructure:"dev_decay_per_tick" yaml:"dev_decay_per_tick" json:"dev_decay_per_tick"`
	DevSpikeProbability  float64 `mapstructure:"dev_spike_probability" yaml:"dev_spike_probability" json:"dev_spike_probability"`
	DevSpikeSize         float64 `mapstructure:"dev_spike_size" yaml:"dev_spike_size" json:"dev_spike_size"`

	LiquidityRatio           float64 `mapstructure:"liquidity_ratio" yaml:"liquidity_ratio" json:"liquidity_ratio"`
	GraduationMarketCapUSD   float64 `mapstructure:"graduation_market_cap_usd" yaml:"graduation_market_cap_usd" json:"graduation_market_cap_usd"`
	GraduationProbability    float64 `mapstructure:"graduation_probability" yaml:"graduation_probability" json:"graduation_probability"`
	GraduationLiquidityBoost float64 `mapstructure:"graduation_liquidity_boost" yaml:"graduation_liquidity_boost" json:"graduation_liquidity_boost"`

	RugFlagProbability float64 `mapstructure:"rug_flag_probability" yaml:"rug_flag_probability" json:"rug_flag_probability"` // at birth
	RugPullProbability float64 `mapstructure:"rug_pull_probability" yaml:"rug_pull_probability" json:"rug_pull_probability"` // per tick
	LifespanTicksMin   int     `mapstructure:"lifespan_ticks_min" yaml:"lifespan_ticks_min" json:"lifespan_ticks_min"`
	LifespanTicksMax   int     `mapstructure:"lifespan_ticks_max" yaml:"lifespan_ticks_max" json:"lifespan_ticks_max"`
}
