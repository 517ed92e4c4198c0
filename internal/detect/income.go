package detect

import (
	"fmt"
	"math"

	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/scoring"
)

// IncomeParams is the income-activation family's tunable configuration.
// Rates are fractions (0.07 means 7%).
type IncomeParams struct {
	EligibilityAge int `mapstructure:"eligibility_age"`
	DelayYears     int `mapstructure:"delay_years"`

	// DefaultRollupRate applies when the policy record omits the rider's
	// rollup rate.
	DefaultRollupRate float64 `mapstructure:"default_rollup_rate"`

	// PayoutTiers is the payout-by-age table used when the policy's rider
	// terms are not individually known.
	PayoutTiers []domain.PayoutTier `mapstructure:"payout_tiers"`

	// UrgencyDivisor converts days-to-optimal-window into urgency decay:
	// urgency = 100 - days/divisor.
	UrgencyDivisor float64 `mapstructure:"urgency_divisor"`

	ComplexityFactor float64 `mapstructure:"complexity_factor"`

	// DelayHorizonYears is the payment horizon over which the delay gain is
	// valued when normalizing the delay-cost factor.
	DelayHorizonYears int `mapstructure:"delay_horizon_years"`

	ScoreCap         float64 `mapstructure:"score_cap"`
	HighWindowDays   int     `mapstructure:"high_window_days"`
	MediumWindowDays int     `mapstructure:"medium_window_days"`
}

// DefaultIncomeParams returns the documented baseline ruleset.
func DefaultIncomeParams() IncomeParams {
	return IncomeParams{
		EligibilityAge:    59,
		DelayYears:        2,
		DefaultRollupRate: 0.07,
		PayoutTiers: []domain.PayoutTier{
			{MinAge: 59, Rate: 0.050},
			{MinAge: 62, Rate: 0.055},
			{MinAge: 65, Rate: 0.060},
			{MinAge: 70, Rate: 0.065},
		},
		UrgencyDivisor:    3.0,
		ComplexityFactor:  1.2,
		DelayHorizonYears: 10,
		ScoreCap:          92,
		HighWindowDays:    30,
		MediumWindowDays:  90,
	}
}

// IncomeActivation surfaces unactivated income riders whose activation
// timing warrants an advisor conversation. It never recommends an action:
// both the activate-now and delay scenarios are presented with their
// tradeoffs.
type IncomeActivation struct {
	params IncomeParams
}

// NewIncomeActivation builds the detector.
func NewIncomeActivation(params IncomeParams) *IncomeActivation {
	return &IncomeActivation{params: params}
}

// Evaluate scores one policy. Returns (nil, nil) unless the policy carries
// an unactivated income rider and the client is age-eligible with a stated
// income need.
func (d *IncomeActivation) Evaluate(in PolicyInput) (*domain.Alert, error) {
	p := in.Policy
	if !p.HasIncomeRider() || p.IncomeActivated {
		return nil, nil
	}
	if in.Profile == nil {
		return nil, ErrMissingSnapshot
	}
	s := &in.Profile.Current
	if s.Age < d.params.EligibilityAge || !s.NeedsIncomeSoon() {
		return nil, nil
	}

	base := p.AccountValue
	if p.IncomeBase != nil {
		base = *p.IncomeBase
	}
	if base <= 0 {
		return nil, fmt.Errorf("policy %s: income base %.2f out of range", p.ID, base)
	}

	rollup := p.RiderRollupRate
	if rollup == 0 {
		rollup = d.params.DefaultRollupRate
	}

	delay := d.params.DelayYears
	payoutNow := d.payoutRate(s.Age)
	payoutLater := d.payoutRate(s.Age + delay)

	annualNow := base * payoutNow
	baseAfterDelay := base * math.Pow(1+rollup, float64(delay))
	annualLater := baseAfterDelay * payoutLater
	foregone := annualNow * float64(delay)
	annualGain := annualLater - annualNow

	daysToOptimal := d.daysToOptimalWindow(in, s)
	urgency := math.Max(0, 100-float64(daysToOptimal)/d.params.UrgencyDivisor)

	// Delay cost normalized into a multiplicative factor: the net value of
	// delaying (gain over the payment horizon minus income foregone)
	// relative to the horizon's worth of current income.
	delayCost := annualGain*float64(d.params.DelayHorizonYears) - foregone
	delayFactor := scoring.Clamp(0.9+delayCost/(annualNow*float64(d.params.DelayHorizonYears))*0.5, 0.6, 1.25)

	complexity := 1.0
	inDeferralWindow := d.needWithinDeferralWindow(in, s)
	if inDeferralWindow {
		complexity = d.params.ComplexityFactor
	}

	score := math.Min(d.params.ScoreCap, urgency*delayFactor*complexity)

	card := scoring.NewScorecard()
	card.Add("urgency", 1.0, score, d.params.ScoreCap)

	alert := newAlert("ALT-"+p.ID+"-INC", domain.AlertIncomeActivation, in.AsOf)
	alert.PolicyID = p.ID
	alert.ClientAccountNumber = p.ClientAccountNumber
	alert.Title = "Income Activation Timing Review"
	alert.ReasonShort = "Client approaching optimal income activation window"
	finishScore(alert, card)

	switch {
	case daysToOptimal <= d.params.HighWindowDays || alert.Score >= 75:
		alert.Severity = domain.SeverityHigh
	case daysToOptimal <= d.params.MediumWindowDays || alert.Score > 60:
		alert.Severity = domain.SeverityMedium
	default:
		alert.Severity = domain.SeverityLow
	}
	alert.Confidence = scoring.Confidence(alert.Score)
	alert.DataPointsAnalyzed = 18

	alert.Scenarios = []domain.Scenario{
		{
			Action:        "Activate Now",
			IncomeBase:    usd(base),
			AnnualIncome:  fmt.Sprintf("%s (%s payout at age %d)", usd(annualNow), pctOfFrac(payoutNow), s.Age),
			MonthlyIncome: usd(annualNow / 12),
		},
		{
			Action:        fmt.Sprintf("Delay %s", plural(delay, "Year")),
			IncomeBase:    fmt.Sprintf("%s (after rollup)", usd(baseAfterDelay)),
			AnnualIncome:  fmt.Sprintf("%s (%s payout at age %d)", usd(annualLater), pctOfFrac(payoutLater), s.Age+delay),
			MonthlyIncome: usd(annualLater / 12),
			Tradeoff:      fmt.Sprintf("Give up %s in income to gain %s/year ongoing", usd(foregone), usd(annualGain)),
		},
	}

	alert.Reasons = []string{
		"Income rider available but not activated",
		fmt.Sprintf("%s annual rollup creates significant deferral value", pctOfFrac(rollup)),
		fmt.Sprintf("Payout rate increases from %s to %s at age %d", pctOfFrac(payoutNow), pctOfFrac(payoutLater), s.Age+delay),
		"Deferral vs. activation tradeoffs warrant discussion",
	}
	if inDeferralWindow {
		alert.Reasons = append(alert.Reasons, "Stated income need falls within the deferral window")
	}

	return alert, nil
}

func (d *IncomeActivation) payoutRate(age int) float64 {
	rate := 0.0
	for _, tier := range d.params.PayoutTiers {
		if age >= tier.MinAge && tier.Rate > rate {
			rate = tier.Rate
		}
	}
	return rate
}

// daysToOptimalWindow estimates days until the activation window opens: the
// later of "already eligible" and the stated income-need date. Unknown need
// dates fall back to a mid-range 180 days.
func (d *IncomeActivation) daysToOptimalWindow(in PolicyInput, s *domain.Suitability) int {
	if s.IncomeNeedDate == nil {
		if s.CurrentIncomeNeed == "Now" {
			return 0
		}
		return 180
	}
	days := s.IncomeNeedDate.DaysUntil(in.AsOf)
	if days < 0 {
		return 0
	}
	return days
}

// needWithinDeferralWindow reports whether the stated income need lands
// inside the deferral period, the scenario that requires explanatory
// context.
func (d *IncomeActivation) needWithinDeferralWindow(in PolicyInput, s *domain.Suitability) bool {
	if s.IncomeNeedDate == nil {
		return s.CurrentIncomeNeed == "Soon"
	}
	years := s.IncomeNeedDate.YearsUntil(in.AsOf)
	return years >= 0 && years <= float64(d.params.DelayYears)
}
