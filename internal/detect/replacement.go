package detect

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/annuityworks/kestrel/internal/catalog"
	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/scoring"
)

// Category maxima on the replacement family's 95-point scale. The maxima sum
// to 94.5, so a replacement score never needs a terminal clamp and the
// breakdown always sums to the total.
const (
	replPerformanceMax = 40.0
	replSuitabilityMax = 24.5
	replCostMax        = 20.0
	replFeatureMax     = 10.0
)

// ReplacementParams is the replacement family's tunable configuration. Cap
// rates are in percentage points (5.5 means 5.5%).
type ReplacementParams struct {
	// BenchmarkCapRate is the market benchmark used by the trigger
	// prefilter; scoring uses the best catalog alternative when available.
	BenchmarkCapRate    float64 `mapstructure:"benchmark_cap_rate"`
	TriggerGap          float64 `mapstructure:"trigger_gap"`
	NearSurrenderGap    float64 `mapstructure:"near_surrender_gap"`
	SurrenderWindowDays int     `mapstructure:"surrender_window_days"`

	// NoProfileScoreCap caps the achievable score when no suitability
	// profile exists for the client.
	NoProfileScoreCap float64 `mapstructure:"no_profile_score_cap"`

	// FeeBonusThreshold is the fee differential (percentage points) above
	// which the cost-savings bonus applies.
	FeeBonusThreshold float64 `mapstructure:"fee_bonus_threshold"`

	WeightPerformanceGap float64 `mapstructure:"weight_performance_gap"`
	WeightSuitability    float64 `mapstructure:"weight_suitability"`
	WeightCostSavings    float64 `mapstructure:"weight_cost_savings"`
	WeightFeatureUpgrade float64 `mapstructure:"weight_feature_upgrade"`
}

// DefaultReplacementParams returns the documented baseline ruleset.
func DefaultReplacementParams() ReplacementParams {
	return ReplacementParams{
		BenchmarkCapRate:     5.5,
		TriggerGap:           2.0,
		NearSurrenderGap:     1.0,
		SurrenderWindowDays:  365,
		NoProfileScoreCap:    52,
		FeeBonusThreshold:    0.3,
		WeightPerformanceGap: 0.40,
		WeightSuitability:    0.30,
		WeightCostSavings:    0.20,
		WeightFeatureUpgrade: 0.10,
	}
}

// Weights exposes the family weight table for startup validation.
func (p ReplacementParams) Weights() map[string]float64 {
	return map[string]float64{
		"performance_gap":   p.WeightPerformanceGap,
		"suitability_match": p.WeightSuitability,
		"cost_savings":      p.WeightCostSavings,
		"feature_upgrade":   p.WeightFeatureUpgrade,
	}
}

// Replacement detects policies whose performance gap versus the market
// justifies an exchange review.
type Replacement struct {
	params  ReplacementParams
	catalog *catalog.Catalog
}

// NewReplacement builds the detector over the shared product catalog.
func NewReplacement(params ReplacementParams, cat *catalog.Catalog) *Replacement {
	return &Replacement{params: params, catalog: cat}
}

// Evaluate scores one policy. Returns (nil, nil) when the trigger condition
// does not hold.
func (d *Replacement) Evaluate(in PolicyInput) (*domain.Alert, error) {
	p := in.Policy
	if p.CurrentCapRate == nil {
		// Cannot evaluate a performance gap without a cap rate.
		return nil, nil
	}
	cap := *p.CurrentCapRate
	if cap <= 0 {
		return nil, fmt.Errorf("policy %s: cap rate %.2f out of range", p.ID, cap)
	}

	gap := d.params.BenchmarkCapRate - cap
	daysToEnd := p.SurrenderEndDate.DaysUntil(in.AsOf)
	endingSoon := daysToEnd >= 0 && daysToEnd < d.params.SurrenderWindowDays

	if !(gap > d.params.TriggerGap || (endingSoon && gap > d.params.NearSurrenderGap)) {
		return nil, nil
	}

	alert := newAlert("ALT-"+p.ID+"-REP", domain.AlertReplacement, in.AsOf)
	alert.PolicyID = p.ID
	alert.ClientAccountNumber = p.ClientAccountNumber
	alert.Title = "Replacement Opportunity"
	alert.ReasonShort = "Material performance gap vs. market alternatives"

	if in.Profile == nil {
		d.scoreWithoutProfile(alert, p, cap, endingSoon, daysToEnd)
		return alert, nil
	}
	d.scoreWithProfile(alert, in, cap, endingSoon, daysToEnd)
	return alert, nil
}

// scoreWithoutProfile produces the degraded, capped score the error taxonomy
// requires when the client's suitability profile is absent. No product
// recommendation is made.
func (d *Replacement) scoreWithoutProfile(alert *domain.Alert, p *domain.Policy, cap float64, endingSoon bool, daysToEnd int) {
	improvement := (d.params.BenchmarkCapRate - cap) / cap

	card := scoring.NewScorecard()
	card.Add("performance_gap", d.params.WeightPerformanceGap, improvement*replPerformanceMax, replPerformanceMax)
	card.Add("suitability_improvement", d.params.WeightSuitability, 0, replSuitabilityMax)
	card.Add("cost_savings", d.params.WeightCostSavings, d.costSavings(endingSoon, 0), replCostMax)
	card.Add("feature_upgrade", d.params.WeightFeatureUpgrade, 0, replFeatureMax)
	card.ScaleTo(d.params.NoProfileScoreCap)

	finishScore(alert, card)
	alert.Severity = scoring.Standard.Severity(alert.Score)
	alert.Confidence = scoring.Confidence(alert.Score)
	alert.ProfileRequired = true
	alert.DataPointsAnalyzed = 14
	alert.Reasons = []string{
		fmt.Sprintf("Current policy cap rate (%s) significantly below market benchmark (%s)", pct(cap), pct(d.params.BenchmarkCapRate)),
		d.surrenderReason(endingSoon, daysToEnd),
		"Suitability profile unavailable; score capped pending suitability review",
	}
}

func (d *Replacement) scoreWithProfile(alert *domain.Alert, in PolicyInput, cap float64, endingSoon bool, daysToEnd int) {
	p := in.Policy
	profile := &in.Profile.Current

	best := d.catalog.BestAlternative(p, profile)
	refCap := d.params.BenchmarkCapRate
	var feeDiff float64
	if best != nil {
		if c := best.Product.BestCapRate(); c > refCap {
			refCap = c
		}
		feeDiff = catalog.FeeDifferential(p, best.Product)
	}
	improvement := (refCap - cap) / cap

	card := scoring.NewScorecard()
	card.Add("performance_gap", d.params.WeightPerformanceGap, improvement*replPerformanceMax, replPerformanceMax)
	card.Add("suitability_improvement", d.params.WeightSuitability, d.suitabilityMatch(profile, best), replSuitabilityMax)
	card.Add("cost_savings", d.params.WeightCostSavings, d.costSavings(endingSoon, feeDiff), replCostMax)
	card.Add("feature_upgrade", d.params.WeightFeatureUpgrade, d.featureUpgrade(p, best), replFeatureMax)

	finishScore(alert, card)
	alert.Severity = scoring.Standard.Severity(alert.Score)
	alert.Confidence = scoring.Confidence(alert.Score)
	alert.DataPointsAnalyzed = 23

	alert.Reasons = []string{
		fmt.Sprintf("Current policy cap rate (%s) vs. available %s (%d%% improvement)", pct(cap), pct(refCap), int(improvement*100)),
		d.surrenderReason(endingSoon, daysToEnd),
	}

	expectedGain := p.AccountValue * (refCap - cap) / 100
	penalty := p.AccountValue * p.SurrenderChargePct / 100

	if best != nil {
		prod := best.Product
		alert.Recommendation = &domain.Recommendation{
			ProductType:            prod.Type,
			ProductID:              prod.ID,
			Carrier:                prod.Carrier,
			SuggestedAllocation:    decimal.NewFromFloat(p.AccountValue).Round(2),
			EstimatedAnnualBenefit: decimal.NewFromFloat(expectedGain).Round(2),
			GuaranteedRate:         refCap,
			Features:               prod.LiquidityFeatures,
		}
		if rider := prod.IncomeRider(); rider != nil && !p.HasIncomeRider() {
			alert.Reasons = append(alert.Reasons,
				fmt.Sprintf("Income rider opportunity: %s rollup available", pctOfFrac(rider.RollupRate)))
		} else if feeDiff > d.params.FeeBonusThreshold {
			alert.Reasons = append(alert.Reasons, "Better fee structure available")
		}
	}

	// HIGH additionally requires the surrender penalty to be less than the
	// expected annual gain from replacing.
	if alert.Severity == domain.SeverityHigh && penalty >= expectedGain {
		alert.Severity = domain.SeverityMedium
		alert.Reasons = append(alert.Reasons,
			fmt.Sprintf("Surrender penalty (%s) currently exceeds expected annual gain (%s)", usd(penalty), usd(expectedGain)))
	}
}

// costSavings awards the surrender-timing score plus the fee-differential
// bonus, clamped to the category maximum by the scorecard.
func (d *Replacement) costSavings(endingSoon bool, feeDiff float64) float64 {
	points := 10.0
	if endingSoon {
		points = 16.8
	}
	if feeDiff > d.params.FeeBonusThreshold {
		points += 3.2
	}
	return points
}

// suitabilityMatch sums the risk-tolerance (0-10), objective (0-8), and
// time-horizon (0-6.5) alignment sub-scores against the best alternative.
func (d *Replacement) suitabilityMatch(s *domain.Suitability, best *catalog.Match) float64 {
	if best == nil {
		// No concrete alternative to align against; partial credit only.
		return 10.0
	}
	prod := best.Product

	risk := 3.0
	switch diff := int(math.Abs(float64(domain.RiskLevel(prod.RiskProfile) - domain.RiskLevel(s.RiskTolerance)))); {
	case prod.RiskProfile == s.RiskTolerance:
		risk = 10.0
	case diff == 1:
		risk = 6.0
	}

	objective := 2.0
	if prod.SuitableForObjective(s.PrimaryObjective) {
		objective = 8.0
	} else if prod.SuitableForObjective(s.SecondaryObjective) {
		objective = 5.0
	}

	horizon := 2.0
	switch {
	case s.TimeHorizonYears >= prod.SurrenderYears:
		horizon = 6.5
	case s.TimeHorizonYears >= prod.SurrenderYears-2:
		horizon = 4.0
	}

	return risk + objective + horizon
}

// featureUpgrade awards base points for rider availability plus bonuses for
// superior death-benefit and liquidity features, hard-capped at 10 by the
// scorecard.
func (d *Replacement) featureUpgrade(p *domain.Policy, best *catalog.Match) float64 {
	if best == nil {
		return 1.5
	}
	prod := best.Product

	points := 1.5
	rider := prod.IncomeRider()
	switch {
	case rider != nil && !p.HasIncomeRider():
		points = 5.5
	case rider != nil && p.HasIncomeRider() && rider.RollupRate > p.RiderRollupRate:
		points = 3.0
	}
	if len(prod.DeathBenefitFeatures) > 0 {
		points += 2.0
	}
	if len(prod.LiquidityFeatures) > 0 {
		points += 1.5
	}
	return points
}

func (d *Replacement) surrenderReason(endingSoon bool, daysToEnd int) string {
	if endingSoon {
		return fmt.Sprintf("Surrender period ending in %s", plural(int(math.Ceil(float64(daysToEnd)/30)), "month"))
	}
	return "Approaching surrender schedule end"
}
