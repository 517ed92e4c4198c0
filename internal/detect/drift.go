package detect

import (
	"fmt"
	"math"

	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/scoring"
)

// Category maxima on the drift family's 100-point scale.
const (
	driftRiskMax      = 35.0
	driftObjectiveMax = 21.6
	driftFinancialMax = 20.0
	driftHorizonMax   = 15.0
)

// DriftParams is the suitability-drift family's tunable configuration.
type DriftParams struct {
	// RiskPointsPerLevel scores each ordinal step of risk-tolerance shift.
	RiskPointsPerLevel float64 `mapstructure:"risk_points_per_level"`

	// NetWorthRef and IncomeRef are the relative changes treated as full
	// financial drift (0.30 means a 30% net-worth swing saturates that
	// sub-score).
	NetWorthRef float64 `mapstructure:"net_worth_ref"`
	IncomeRef   float64 `mapstructure:"income_ref"`

	// HorizonRefYears is the time-horizon shortening, in years, treated as
	// full horizon drift.
	HorizonRefYears float64 `mapstructure:"horizon_ref_years"`

	// MinScore is the floor below which no alert fires (critical mismatches
	// always fire regardless).
	MinScore float64 `mapstructure:"min_score"`

	WeightRisk      float64 `mapstructure:"weight_risk"`
	WeightObjective float64 `mapstructure:"weight_objective"`
	WeightFinancial float64 `mapstructure:"weight_financial"`
	WeightHorizon   float64 `mapstructure:"weight_horizon"`
}

// DefaultDriftParams returns the documented baseline ruleset.
func DefaultDriftParams() DriftParams {
	return DriftParams{
		RiskPointsPerLevel: 12.6,
		NetWorthRef:        0.30,
		IncomeRef:          0.25,
		HorizonRefYears:    10,
		MinScore:           30,
		WeightRisk:         0.35,
		WeightObjective:    0.30,
		WeightFinancial:    0.20,
		WeightHorizon:      0.15,
	}
}

// Weights exposes the family weight table for startup validation.
func (p DriftParams) Weights() map[string]float64 {
	return map[string]float64{
		"risk_tolerance":    p.WeightRisk,
		"primary_objective": p.WeightObjective,
		"financial_profile": p.WeightFinancial,
		"time_horizon":      p.WeightHorizon,
	}
}

// SuitabilityDrift compares a client's current suitability snapshot against
// the snapshot captured at policy issuance and flags material divergence
// between what the client needs now and what the contract was sold to do.
type SuitabilityDrift struct {
	params DriftParams
}

// NewSuitabilityDrift builds the detector.
func NewSuitabilityDrift(params DriftParams) *SuitabilityDrift {
	return &SuitabilityDrift{params: params}
}

// Evaluate scores one policy. Requires the issue-time suitability snapshot;
// without it there is nothing to compare and ErrMissingSnapshot is returned
// so the orchestrator can skip and count the entity.
func (d *SuitabilityDrift) Evaluate(in PolicyInput) (*domain.Alert, error) {
	p := in.Policy
	if in.Profile == nil || in.Profile.Original == nil {
		return nil, ErrMissingSnapshot
	}
	cur := &in.Profile.Current
	orig := in.Profile.Original

	var analysis []domain.DriftCategory
	var critical []string

	// Risk tolerance: each ordinal level of shift scores equally, in either
	// direction.
	levelShift := math.Abs(float64(domain.RiskLevel(cur.RiskTolerance) - domain.RiskLevel(orig.RiskTolerance)))
	riskPoints := math.Min(driftRiskMax, d.params.RiskPointsPerLevel*levelShift)
	if levelShift > 0 {
		analysis = append(analysis, domain.DriftCategory{
			Category: "risk_tolerance",
			Original: orig.RiskTolerance,
			Current:  cur.RiskTolerance,
			Score:    round1(riskPoints),
			Severity: driftCategorySeverity(riskPoints, driftRiskMax),
		})
	}

	// Primary objective: a shift toward income need on a contract with no
	// activated income mechanism is the critical mismatch.
	objectivePoints := 0.0
	objectiveCritical := false
	switch {
	case cur.PrimaryObjective != orig.PrimaryObjective:
		objectivePoints = 15.0
		if cur.PrimaryObjective == "Income" && !p.HasIncomeRider() {
			objectivePoints = driftObjectiveMax
			objectiveCritical = true
			critical = append(critical,
				fmt.Sprintf("Client objective shifted to Income but policy %s has no income rider", p.ID))
		}
		cat := domain.DriftCategory{
			Category: "primary_objective",
			Original: orig.PrimaryObjective,
			Current:  cur.PrimaryObjective,
			Score:    round1(objectivePoints),
			Severity: driftCategorySeverity(objectivePoints, driftObjectiveMax),
		}
		if objectiveCritical {
			cat.Severity = domain.SeverityHigh
			cat.Mismatch = "Income objective with no income rider on contract"
		}
		analysis = append(analysis, cat)
	case cur.SecondaryObjective != orig.SecondaryObjective:
		objectivePoints = 5.0
		analysis = append(analysis, domain.DriftCategory{
			Category: "secondary_objective",
			Original: orig.SecondaryObjective,
			Current:  cur.SecondaryObjective,
			Score:    round1(objectivePoints),
			Severity: domain.SeverityLow,
		})
	}

	// Financial profile: mean of the relative net-worth and income changes,
	// each saturating at its reference move.
	nwChange := relativeChange(orig.NetWorth, cur.NetWorth)
	incChange := relativeChange(orig.AnnualIncome, cur.AnnualIncome)
	financialDrift := (scoring.Clamp01(math.Abs(nwChange)/d.params.NetWorthRef) +
		scoring.Clamp01(math.Abs(incChange)/d.params.IncomeRef)) / 2
	financialPoints := financialDrift * driftFinancialMax
	if financialPoints > 0 {
		analysis = append(analysis, domain.DriftCategory{
			Category: "financial_profile",
			Original: fmt.Sprintf("net worth %s, income %s", usd(orig.NetWorth), usd(orig.AnnualIncome)),
			Current:  fmt.Sprintf("net worth %s, income %s", usd(cur.NetWorth), usd(cur.AnnualIncome)),
			Score:    round1(financialPoints),
			Severity: driftCategorySeverity(financialPoints, driftFinancialMax),
		})
	}

	// Time horizon: only shortening counts. A client whose horizon grew is
	// not mismatched with a long surrender schedule.
	shortened := float64(orig.TimeHorizonYears - cur.TimeHorizonYears)
	horizonPoints := 0.0
	if shortened > 0 {
		horizonPoints = math.Min(driftHorizonMax, shortened/d.params.HorizonRefYears*driftHorizonMax)
		analysis = append(analysis, domain.DriftCategory{
			Category: "time_horizon",
			Original: plural(orig.TimeHorizonYears, "year"),
			Current:  plural(cur.TimeHorizonYears, "year"),
			Score:    round1(horizonPoints),
			Severity: driftCategorySeverity(horizonPoints, driftHorizonMax),
		})
	}

	card := scoring.NewScorecard()
	card.Add("risk_tolerance", d.params.WeightRisk, riskPoints, driftRiskMax)
	card.Add("primary_objective", d.params.WeightObjective, objectivePoints, driftObjectiveMax)
	card.Add("financial_profile", d.params.WeightFinancial, financialPoints, driftFinancialMax)
	card.Add("time_horizon", d.params.WeightHorizon, horizonPoints, driftHorizonMax)

	if card.Total() <= d.params.MinScore && !objectiveCritical {
		return nil, nil
	}

	alert := newAlert("ALT-"+p.ID+"-SUIT", domain.AlertSuitabilityDrift, in.AsOf)
	alert.PolicyID = p.ID
	alert.ClientAccountNumber = p.ClientAccountNumber
	alert.Title = "Suitability Profile Drift"
	alert.ReasonShort = "Client circumstances have diverged from issue-time profile"
	finishScore(alert, card)

	moderate := 0
	for _, cat := range analysis {
		if cat.Severity != domain.SeverityLow {
			moderate++
		}
	}
	switch {
	case objectiveCritical || alert.Score >= 75:
		alert.Severity = domain.SeverityHigh
	case alert.Score > 50 || moderate >= 2:
		alert.Severity = domain.SeverityMedium
	default:
		alert.Severity = domain.SeverityLow
	}
	alert.Confidence = scoring.Confidence(alert.Score)
	alert.DriftAnalysis = analysis
	alert.CriticalMismatches = critical
	alert.DataPointsAnalyzed = 16

	for _, cat := range analysis {
		alert.Reasons = append(alert.Reasons,
			fmt.Sprintf("%s: %s -> %s", cat.Category, cat.Original, cat.Current))
	}
	if objectiveCritical {
		alert.Reasons = append(alert.Reasons,
			"Critical mismatch: income objective cannot be met by the current contract")
	}

	return alert, nil
}

// driftCategorySeverity tiers one category by its share of the category
// maximum.
func driftCategorySeverity(points, max float64) domain.Severity {
	switch share := points / max; {
	case share >= 0.7:
		return domain.SeverityHigh
	case share >= 0.4:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// relativeChange returns (current-original)/original, 0 when the original
// value is unknown.
func relativeChange(original, current float64) float64 {
	if original == 0 {
		return 0
	}
	return (current - original) / original
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
