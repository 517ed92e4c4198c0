// Package config loads and validates engine configuration from file,
// environment, and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/annuityworks/kestrel/internal/detect"
	"github.com/annuityworks/kestrel/internal/scoring"
	"github.com/annuityworks/kestrel/internal/screen"
	"github.com/annuityworks/kestrel/internal/sink"
)

// Config materializes application configuration.
type Config struct {
	App     AppConfig       `mapstructure:"app"`
	Logging LoggingConfig   `mapstructure:"logging"`
	Batch   BatchConfig     `mapstructure:"batch"`
	Sink    sink.Config     `mapstructure:"sink"`
	Screens []screen.Config `mapstructure:"screens"`
	Detect  DetectConfig    `mapstructure:"detect"`

	asOf time.Time
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BatchConfig governs one batch run. AsOf is the run's reference date: every
// date computation and output timestamp derives from it, so re-running the
// same snapshot with the same AsOf reproduces the output byte for byte.
type BatchConfig struct {
	InputDir string `mapstructure:"input_dir"`
	AsOf     string `mapstructure:"as_of"`
	Workers  int    `mapstructure:"workers"`
}

// DetectConfig bundles the per-family rulesets.
type DetectConfig struct {
	Replacement detect.ReplacementParams `mapstructure:"replacement"`
	Income      detect.IncomeParams      `mapstructure:"income"`
	Drift       detect.DriftParams       `mapstructure:"drift"`
	MissingInfo detect.MissingInfoParams `mapstructure:"missing_info"`
	Acquisition detect.AcquisitionParams `mapstructure:"acquisition"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KESTREL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "kestrel")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("batch.input_dir", "./data")
	v.SetDefault("batch.as_of", "2026-02-25")
	v.SetDefault("batch.workers", 8)

	v.SetDefault("sink.kind", "file")
	v.SetDefault("sink.path", "./alerts.json")
	v.SetDefault("sink.driver", "sqlite")
	v.SetDefault("sink.sqlite_path", "./kestrel.db")
	v.SetDefault("sink.max_open_conns", 10)
	v.SetDefault("sink.max_idle_conns", 5)
	v.SetDefault("sink.conn_max_lifetime", "30m")

	setDetectDefaults(v)
}

// setDetectDefaults mirrors the Default*Params constructors so a partial
// config file only overrides what it names.
func setDetectDefaults(v *viper.Viper) {
	r := detect.DefaultReplacementParams()
	v.SetDefault("detect.replacement.benchmark_cap_rate", r.BenchmarkCapRate)
	v.SetDefault("detect.replacement.trigger_gap", r.TriggerGap)
	v.SetDefault("detect.replacement.near_surrender_gap", r.NearSurrenderGap)
	v.SetDefault("detect.replacement.surrender_window_days", r.SurrenderWindowDays)
	v.SetDefault("detect.replacement.no_profile_score_cap", r.NoProfileScoreCap)
	v.SetDefault("detect.replacement.fee_bonus_threshold", r.FeeBonusThreshold)
	v.SetDefault("detect.replacement.weight_performance_gap", r.WeightPerformanceGap)
	v.SetDefault("detect.replacement.weight_suitability", r.WeightSuitability)
	v.SetDefault("detect.replacement.weight_cost_savings", r.WeightCostSavings)
	v.SetDefault("detect.replacement.weight_feature_upgrade", r.WeightFeatureUpgrade)

	i := detect.DefaultIncomeParams()
	v.SetDefault("detect.income.eligibility_age", i.EligibilityAge)
	v.SetDefault("detect.income.delay_years", i.DelayYears)
	v.SetDefault("detect.income.default_rollup_rate", i.DefaultRollupRate)
	v.SetDefault("detect.income.urgency_divisor", i.UrgencyDivisor)
	v.SetDefault("detect.income.complexity_factor", i.ComplexityFactor)
	v.SetDefault("detect.income.delay_horizon_years", i.DelayHorizonYears)
	v.SetDefault("detect.income.score_cap", i.ScoreCap)
	v.SetDefault("detect.income.high_window_days", i.HighWindowDays)
	v.SetDefault("detect.income.medium_window_days", i.MediumWindowDays)
	tiers := make([]map[string]any, 0, len(i.PayoutTiers))
	for _, tier := range i.PayoutTiers {
		tiers = append(tiers, map[string]any{"min_age": tier.MinAge, "rate": tier.Rate})
	}
	v.SetDefault("detect.income.payout_tiers", tiers)

	d := detect.DefaultDriftParams()
	v.SetDefault("detect.drift.risk_points_per_level", d.RiskPointsPerLevel)
	v.SetDefault("detect.drift.net_worth_ref", d.NetWorthRef)
	v.SetDefault("detect.drift.income_ref", d.IncomeRef)
	v.SetDefault("detect.drift.horizon_ref_years", d.HorizonRefYears)
	v.SetDefault("detect.drift.min_score", d.MinScore)
	v.SetDefault("detect.drift.weight_risk", d.WeightRisk)
	v.SetDefault("detect.drift.weight_objective", d.WeightObjective)
	v.SetDefault("detect.drift.weight_financial", d.WeightFinancial)
	v.SetDefault("detect.drift.weight_horizon", d.WeightHorizon)

	m := detect.DefaultMissingInfoParams()
	v.SetDefault("detect.missing_info.stale_years", m.StaleYears)
	v.SetDefault("detect.missing_info.aging_years", m.AgingYears)
	v.SetDefault("detect.missing_info.recent_years", m.RecentYears)
	v.SetDefault("detect.missing_info.stale_points", m.StalePoints)
	v.SetDefault("detect.missing_info.aging_points", m.AgingPoints)
	v.SetDefault("detect.missing_info.recent_points", m.RecentPoints)
	v.SetDefault("detect.missing_info.never_points", m.NeverPoints)
	v.SetDefault("detect.missing_info.unknown_points", m.UnknownPoints)
	v.SetDefault("detect.missing_info.weight_fields", m.WeightFields)
	v.SetDefault("detect.missing_info.weight_recency", m.WeightRecency)
	v.SetDefault("detect.missing_info.weight_regulatory", m.WeightRegulatory)
	v.SetDefault("detect.missing_info.weight_eligibility", m.WeightEligibility)

	a := detect.DefaultAcquisitionParams()
	v.SetDefault("detect.acquisition.best_myga_rate", a.BestMYGARate)
	v.SetDefault("detect.acquisition.best_fia_cap", a.BestFIACap)
	v.SetDefault("detect.acquisition.money_market_rate", a.MoneyMarketRate)
	v.SetDefault("detect.acquisition.glwb_payout_rate", a.GLWBPayoutRate)
	v.SetDefault("detect.acquisition.cash_allocation_floor", a.CashAllocationFloor)
	v.SetDefault("detect.acquisition.cash_amount_floor", a.CashAmountFloor)
	v.SetDefault("detect.acquisition.liquidity_age_max", a.LiquidityAgeMax)
	v.SetDefault("detect.acquisition.equity_allocation_floor", a.EquityAllocationFloor)
	v.SetDefault("detect.acquisition.protection_age_min", a.ProtectionAgeMin)
	v.SetDefault("detect.acquisition.cd_window_days", a.CDWindowDays)
	v.SetDefault("detect.acquisition.cd_amount_floor", a.CDAmountFloor)
	v.SetDefault("detect.acquisition.cd_rate_ceiling", a.CDRateCeiling)
	v.SetDefault("detect.acquisition.default_cd_rate", a.DefaultCDRate)
	v.SetDefault("detect.acquisition.income_gap_age_min", a.IncomeGapAgeMin)
	v.SetDefault("detect.acquisition.retirement_window_years", a.RetirementWindowYears)
	v.SetDefault("detect.acquisition.withdrawal_rate", a.WithdrawalRate)
	v.SetDefault("detect.acquisition.social_security_estimate", a.SocialSecurityEst)
	v.SetDefault("detect.acquisition.coverage_floor", a.CoverageFloor)
	v.SetDefault("detect.acquisition.tax_bracket_floor", a.TaxBracketFloor)
	v.SetDefault("detect.acquisition.taxable_income_floor", a.TaxableIncomeFloor)
	v.SetDefault("detect.acquisition.rmd_age", a.RMDAge)
	v.SetDefault("detect.acquisition.qualified_age_min", a.QualifiedAgeMin)
	v.SetDefault("detect.acquisition.qualified_value_floor", a.QualifiedValueFloor)
	v.SetDefault("detect.acquisition.estate_value_floor", a.EstateValueFloor)
	v.SetDefault("detect.acquisition.estate_age_min", a.EstateAgeMin)
	v.SetDefault("detect.acquisition.diversification_floor", a.DiversificationFloor)
	v.SetDefault("detect.acquisition.diversification_age_min", a.DiversificationAgeMin)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks. A bad weight table or an unparseable
// reference date would corrupt every score in a run, so both are fatal here
// rather than at first use.
func (c *Config) Validate() error {
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be greater than zero")
	}
	if c.Batch.InputDir == "" {
		return fmt.Errorf("batch.input_dir is required")
	}

	asOf, err := time.Parse("2006-01-02", c.Batch.AsOf)
	if err != nil {
		return fmt.Errorf("batch.as_of must be a YYYY-MM-DD date: %w", err)
	}
	c.asOf = asOf.UTC()

	// An empty payout table would zero every income-activation projection,
	// dividing the delay factor by zero.
	if len(c.Detect.Income.PayoutTiers) == 0 {
		return fmt.Errorf("detect.income.payout_tiers must list at least one tier")
	}

	for family, weights := range map[string]map[string]float64{
		"replacement":  c.Detect.Replacement.Weights(),
		"drift":        c.Detect.Drift.Weights(),
		"missing_info": c.Detect.MissingInfo.Weights(),
	} {
		if err := scoring.ValidateWeights(family, weights); err != nil {
			return err
		}
	}

	for _, b := range []scoring.Breakpoints{scoring.Standard, scoring.Review} {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	switch c.Sink.Kind {
	case "file", "sql":
	default:
		return fmt.Errorf("sink.kind must be file or sql, got %q", c.Sink.Kind)
	}

	return nil
}

// AsOf returns the parsed batch reference date. Only valid after Validate.
func (c *Config) AsOf() time.Time {
	return c.asOf
}
