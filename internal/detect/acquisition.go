package detect

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/scoring"
)

// acqScale is the acquisition family's score ceiling. Each sub-detector's
// category maxima sum to at most this, so totals never need a terminal
// clamp.
const acqScale = 95.0

// AcquisitionParams is the acquisition family's tunable configuration.
// Rates are fractions (0.055 means 5.5%).
type AcquisitionParams struct {
	// Market reference rates.
	BestMYGARate    float64 `mapstructure:"best_myga_rate"`
	BestFIACap      float64 `mapstructure:"best_fia_cap"`
	MoneyMarketRate float64 `mapstructure:"money_market_rate"`
	GLWBPayoutRate  float64 `mapstructure:"glwb_payout_rate"`

	// Excess liquidity gates.
	CashAllocationFloor float64 `mapstructure:"cash_allocation_floor"`
	CashAmountFloor     float64 `mapstructure:"cash_amount_floor"`
	LiquidityAgeMax     int     `mapstructure:"liquidity_age_max"`

	// Unprotected portfolio gates.
	EquityAllocationFloor float64 `mapstructure:"equity_allocation_floor"`
	ProtectionAgeMin      int     `mapstructure:"protection_age_min"`

	// CD maturity gates.
	CDWindowDays  int     `mapstructure:"cd_window_days"`
	CDAmountFloor float64 `mapstructure:"cd_amount_floor"`
	CDRateCeiling float64 `mapstructure:"cd_rate_ceiling"`
	DefaultCDRate float64 `mapstructure:"default_cd_rate"`

	// Income gap gates and estimates.
	IncomeGapAgeMin       int     `mapstructure:"income_gap_age_min"`
	RetirementWindowYears int     `mapstructure:"retirement_window_years"`
	WithdrawalRate        float64 `mapstructure:"withdrawal_rate"`
	SocialSecurityEst     float64 `mapstructure:"social_security_estimate"`
	CoverageFloor         float64 `mapstructure:"coverage_floor"`

	// Tax inefficiency gates.
	TaxBracketFloor    float64 `mapstructure:"tax_bracket_floor"`
	TaxableIncomeFloor float64 `mapstructure:"taxable_income_floor"`

	// Qualified opportunity gates.
	RMDAge              int     `mapstructure:"rmd_age"`
	QualifiedAgeMin     int     `mapstructure:"qualified_age_min"`
	QualifiedValueFloor float64 `mapstructure:"qualified_value_floor"`

	// Beneficiary planning gates.
	EstateValueFloor float64 `mapstructure:"estate_value_floor"`
	EstateAgeMin     int     `mapstructure:"estate_age_min"`

	// Diversification gap gates.
	DiversificationFloor  float64 `mapstructure:"diversification_floor"`
	DiversificationAgeMin int     `mapstructure:"diversification_age_min"`
}

// DefaultAcquisitionParams returns the documented baseline ruleset.
func DefaultAcquisitionParams() AcquisitionParams {
	return AcquisitionParams{
		BestMYGARate:    0.055,
		BestFIACap:      0.065,
		MoneyMarketRate: 0.005,
		GLWBPayoutRate:  0.055,

		CashAllocationFloor: 0.10,
		CashAmountFloor:     50_000,
		LiquidityAgeMax:     75,

		EquityAllocationFloor: 0.60,
		ProtectionAgeMin:      55,

		CDWindowDays:  90,
		CDAmountFloor: 50_000,
		CDRateCeiling: 0.04,
		DefaultCDRate: 0.035,

		IncomeGapAgeMin:       60,
		RetirementWindowYears: 3,
		WithdrawalRate:        0.04,
		SocialSecurityEst:     35_000,
		CoverageFloor:         0.50,

		TaxBracketFloor:    24,
		TaxableIncomeFloor: 100_000,

		RMDAge:              73,
		QualifiedAgeMin:     70,
		QualifiedValueFloor: 250_000,

		EstateValueFloor: 750_000,
		EstateAgeMin:     65,

		DiversificationFloor:  500_000,
		DiversificationAgeMin: 50,
	}
}

// Acquisition runs the eight client-level sub-detectors over one portfolio
// snapshot. Unlike the policy detectors these look for new-business
// opportunities, so each one requires a suitability profile; without one no
// acquisition alert fires.
type Acquisition struct {
	params AcquisitionParams
}

// NewAcquisition builds the detector.
func NewAcquisition(params AcquisitionParams) *Acquisition {
	return &Acquisition{params: params}
}

// Evaluate runs every sub-detector and returns the alerts that fired, in
// fixed sub-detector order.
func (d *Acquisition) Evaluate(in PortfolioInput) []*domain.Alert {
	if in.Portfolio == nil || in.Profile == nil {
		return nil
	}
	subs := []func(PortfolioInput) *domain.Alert{
		d.excessLiquidity,
		d.portfolioUnprotected,
		d.cdMaturity,
		d.incomeGap,
		d.taxInefficiency,
		d.qualifiedOpportunity,
		d.beneficiaryPlanning,
		d.diversificationGap,
	}
	var alerts []*domain.Alert
	for _, sub := range subs {
		if a := sub(in); a != nil {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// newAcqAlert stamps the fields every acquisition alert shares.
func (d *Acquisition) newAcqAlert(suffix string, typ domain.AlertType, in PortfolioInput) *domain.Alert {
	a := newAlert("ACQ-"+suffix+"-"+accountSuffix(in.Portfolio.ClientAccountNumber), typ, in.AsOf)
	a.ClientAccountNumber = in.Portfolio.ClientAccountNumber
	return a
}

// acqAdd appends one category with its weight derived from the category's
// share of the family scale.
func acqAdd(card *scoring.Scorecard, category string, points, max float64) {
	card.Add(category, max/acqScale, points, max)
}

// excessLiquidity flags portfolios parked in cash well beyond a prudent
// reserve while rates on protected products run an order of magnitude
// higher.
func (d *Acquisition) excessLiquidity(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current
	cash := pf.Summary.TotalCash
	alloc := pf.Summary.CashAllocation

	if alloc <= d.params.CashAllocationFloor || cash <= d.params.CashAmountFloor || s.Age >= d.params.LiquidityAgeMax {
		return nil
	}

	suggested := cash * 0.60
	gain := suggested * (d.params.BestFIACap - d.params.MoneyMarketRate)

	card := scoring.NewScorecard()
	acqAdd(card, "cash_amount", cash/100_000*10, 40)
	acqAdd(card, "opportunity", gain/5_000*10, 30)
	urgency := 10.0
	if s.LiquidityImportance == "Low" {
		urgency = 20
	}
	acqAdd(card, "urgency", urgency, 25)

	a := d.newAcqAlert("EXL", domain.AlertExcessLiquidity, in)
	a.Title = fmt.Sprintf("Excess Cash: %s Earning %s", usd(cash), pctOfFrac(d.params.MoneyMarketRate))
	a.ReasonShort = fmt.Sprintf("Move %s to annuity for %s/year gain", usd(suggested), usd(gain))
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	a.Confidence = acquisitionConfidence(a.Score, suggested)
	a.DataPointsAnalyzed = 12
	a.Reasons = []string{
		fmt.Sprintf("%.0f%% cash allocation (recommended: 10-15%%)", alloc*100),
		fmt.Sprintf("%s earning ~%s in money market", usd(cash), pctOfFrac(d.params.MoneyMarketRate)),
		fmt.Sprintf("Fixed indexed annuity available at %s cap", pctOfFrac(d.params.BestFIACap)),
		fmt.Sprintf("Liquidity importance: %s (permits annuity allocation)", s.LiquidityImportance),
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Fixed Indexed Annuity",
		SuggestedAllocation:    decimal.NewFromFloat(suggested).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(gain).Round(2),
		GuaranteedRate:         d.params.BestFIACap * 100,
		Features:               []string{"10% annual penalty-free withdrawals", "Principal protection", "Index upside participation"},
	}
	return a
}

// portfolioUnprotected flags heavy equity exposure at or past the
// retirement transition with no guaranteed-income layer at all.
func (d *Acquisition) portfolioUnprotected(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current
	equity := pf.Summary.EquityAllocation

	if equity <= d.params.EquityAllocationFloor || s.Age < d.params.ProtectionAgeMin || pf.Summary.AnnuityAllocation > 0 {
		return nil
	}
	if s.LifeStage != "Pre-Retirement" && s.LifeStage != "Retired" {
		return nil
	}
	if s.PrimaryObjective != "Income" && s.PrimaryObjective != "Preservation" {
		return nil
	}

	suggested := pf.TotalValue * 0.20
	income := suggested * d.params.GLWBPayoutRate

	card := scoring.NewScorecard()
	acqAdd(card, "equity_excess", (equity-d.params.EquityAllocationFloor)*100, 25)
	acqAdd(card, "age_urgency", float64(s.Age-d.params.ProtectionAgeMin)*2, 20)
	objective := 25.0
	if s.PrimaryObjective == "Income" {
		objective = 35
	}
	acqAdd(card, "objective_match", objective, 35)
	acqAdd(card, "unprotected", 15, 15)

	a := d.newAcqAlert("UNP", domain.AlertPortfolioUnprotected, in)
	a.Title = fmt.Sprintf("%.0f%% Equities at Age %d with No Guaranteed Income", equity*100, s.Age)
	a.ReasonShort = fmt.Sprintf("Allocate %s to annuity with GLWB for downside protection", usd(suggested))
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	a.Confidence = acquisitionConfidence(a.Score, suggested)
	a.DataPointsAnalyzed = 15
	a.Reasons = []string{
		fmt.Sprintf("%.0f%% equity allocation (exposed to market volatility)", equity*100),
		fmt.Sprintf("Age %d, life stage: %s", s.Age, s.LifeStage),
		fmt.Sprintf("Primary objective: %s (needs guaranteed income)", s.PrimaryObjective),
		"Zero allocation to annuities or guaranteed income products",
		fmt.Sprintf("GLWB could provide %s/year guaranteed income", usd(income)),
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Variable Annuity with GLWB Rider",
		SuggestedAllocation:    decimal.NewFromFloat(suggested).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(income).Round(2),
		Features:               []string{"Guaranteed Lifetime Withdrawal Benefit", "Market participation", "Downside protection"},
	}
	return a
}

// cdMaturity flags the most urgent maturing CD whose renewal rate loses to
// the best available multi-year guaranteed rate.
func (d *Acquisition) cdMaturity(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio

	var best *domain.Position
	bestDays := 0
	for i := range pf.Positions {
		pos := &pf.Positions[i]
		if pos.AssetClass != domain.AssetFixedIncome || pos.MaturityDate == nil {
			continue
		}
		days := pos.MaturityDate.DaysUntil(in.AsOf)
		if days <= 0 || days > d.params.CDWindowDays {
			continue
		}
		if best == nil || days < bestDays {
			best = pos
			bestDays = days
		}
	}
	if best == nil {
		return nil
	}

	amount := best.MarketValue
	rate := d.params.DefaultCDRate
	if best.CurrentRate != nil {
		rate = *best.CurrentRate
	}
	if amount <= d.params.CDAmountFloor || rate >= d.params.CDRateCeiling {
		return nil
	}

	diff := d.params.BestMYGARate - rate
	gain := amount * diff

	card := scoring.NewScorecard()
	acqAdd(card, "amount", amount/100_000*15, 30)
	acqAdd(card, "rate_gap", diff/0.01*10, 40)
	acqAdd(card, "urgency", 30-float64(bestDays)/3, 25)

	a := d.newAcqAlert("CDM", domain.AlertCDMaturity, in)
	a.Title = fmt.Sprintf("%s CD Maturing in %s at %s", usd(amount), plural(bestDays, "Day"), pctOfFrac(rate))
	a.ReasonShort = fmt.Sprintf("Multi-year guaranteed annuity (MYGA) offering %s", pctOfFrac(d.params.BestMYGARate))
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	if bestDays <= 30 {
		a.Severity = domain.SeverityHigh
	}
	a.Confidence = acquisitionConfidence(a.Score, amount)
	a.DataPointsAnalyzed = 8
	a.Reasons = []string{
		fmt.Sprintf("CD matures on %s (%s)", best.MaturityDate.String(), plural(bestDays, "day")),
		fmt.Sprintf("Current CD rate: %s", pctOfFrac(rate)),
		fmt.Sprintf("Best MYGA rate: %s (%.1f%% improvement)", pctOfFrac(d.params.BestMYGARate), diff*100),
		fmt.Sprintf("Estimated gain: %s/year", usd(gain)),
		"Time-sensitive: act before auto-renewal",
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Multi-Year Guaranteed Annuity (MYGA)",
		SuggestedAllocation:    decimal.NewFromFloat(amount).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(gain).Round(2),
		GuaranteedRate:         d.params.BestMYGARate * 100,
		Features:               []string{"Guaranteed rate", "Tax deferral", "Principal protection"},
	}
	return a
}

// incomeGap flags clients at the retirement doorstep whose guaranteed
// income sources cover less than half of estimated expenses.
func (d *Acquisition) incomeGap(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current

	yearsToRetirement := s.RetirementTargetYear - in.AsOf.Year()
	if s.Age < d.params.IncomeGapAgeMin || yearsToRetirement > d.params.RetirementWindowYears || pf.Summary.AnnuityAllocation > 0 {
		return nil
	}
	if s.PrimaryObjective != "Income" {
		return nil
	}

	expenses := pf.TotalValue * d.params.WithdrawalRate
	guaranteed := d.params.SocialSecurityEst
	gap := expenses - guaranteed
	if gap <= 0 || guaranteed/expenses >= d.params.CoverageFloor {
		return nil
	}
	required := gap / d.params.GLWBPayoutRate

	card := scoring.NewScorecard()
	acqAdd(card, "gap_severity", gap/10_000*5, 40)
	acqAdd(card, "urgency", 30-float64(yearsToRetirement)*10, 30)
	acqAdd(card, "income_objective", 20, 20)
	acqAdd(card, "age", float64(s.Age-d.params.IncomeGapAgeMin), 5)

	a := d.newAcqAlert("ING", domain.AlertIncomeGap, in)
	a.Title = fmt.Sprintf("Retirement in %s: %s Income Gap", plural(yearsToRetirement, "Year"), usd(gap))
	a.ReasonShort = "Deferred income annuity to close gap with guaranteed lifetime payment"
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	if yearsToRetirement <= 1 {
		a.Severity = domain.SeverityHigh
	}
	a.Confidence = acquisitionConfidence(a.Score, required)
	a.DataPointsAnalyzed = 14
	a.Reasons = []string{
		fmt.Sprintf("Retirement target: %d (%s away)", s.RetirementTargetYear, plural(yearsToRetirement, "year")),
		fmt.Sprintf("Estimated annual expenses: %s", usd(expenses)),
		fmt.Sprintf("Guaranteed income sources: %s (Social Security)", usd(guaranteed)),
		fmt.Sprintf("Income gap: %s/year", usd(gap)),
		fmt.Sprintf("Only %.0f%% of expenses covered by guaranteed sources", guaranteed/expenses*100),
	}
	productType := "Deferred Income Annuity (DIA)"
	if yearsToRetirement <= 1 {
		productType = "Immediate Annuity (SPIA)"
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            productType,
		SuggestedAllocation:    decimal.NewFromFloat(required).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(gap).Round(2),
		Features:               []string{"Lifetime income guarantee", "Inflation protection option", "Joint-life available"},
	}
	return a
}

// taxInefficiency flags large taxable fixed-income holdings throwing off
// ordinary income for clients in upper brackets, where tax deferral has
// measurable annual value.
func (d *Acquisition) taxInefficiency(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current

	if s.TaxBracketPct < d.params.TaxBracketFloor {
		return nil
	}

	taxableFixed := 0.0
	annualInterest := 0.0
	for i := range pf.Positions {
		pos := &pf.Positions[i]
		if pos.AccountType != domain.AccountTaxable || pos.AssetClass != domain.AssetFixedIncome {
			continue
		}
		taxableFixed += pos.MarketValue
		yield := 0.04
		if pos.CurrentYield != nil {
			yield = *pos.CurrentYield
		} else if pos.CurrentRate != nil {
			yield = *pos.CurrentRate
		}
		annualInterest += pos.MarketValue * yield
	}
	if taxableFixed <= d.params.TaxableIncomeFloor || annualInterest <= 0 {
		return nil
	}

	annualTaxDrag := annualInterest * s.TaxBracketPct / 100

	card := scoring.NewScorecard()
	acqAdd(card, "taxable_interest", annualInterest/2_500*10, 40)
	acqAdd(card, "tax_bracket", (s.TaxBracketPct-d.params.TaxBracketFloor)*2+15, 30)
	acqAdd(card, "deferral_benefit", annualTaxDrag/1_000*5, 25)

	a := d.newAcqAlert("TXI", domain.AlertTaxInefficiency, in)
	a.Title = fmt.Sprintf("%s/Year Taxable Interest in %.0f%% Bracket", usd(annualInterest), s.TaxBracketPct)
	a.ReasonShort = fmt.Sprintf("Tax-deferred annuity would defer %s/year in current taxes", usd(annualTaxDrag))
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	a.Confidence = acquisitionConfidence(a.Score, taxableFixed)
	a.DataPointsAnalyzed = 11
	a.Reasons = []string{
		fmt.Sprintf("%s in taxable fixed income generating %s/year ordinary income", usd(taxableFixed), usd(annualInterest)),
		fmt.Sprintf("Marginal tax bracket: %.0f%%", s.TaxBracketPct),
		fmt.Sprintf("Annual tax drag: %s", usd(annualTaxDrag)),
		"Deferred annuity interest compounds untaxed until withdrawal",
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Multi-Year Guaranteed Annuity (MYGA)",
		SuggestedAllocation:    decimal.NewFromFloat(taxableFixed).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(annualTaxDrag).Round(2),
		GuaranteedRate:         d.params.BestMYGARate * 100,
		Features:               []string{"Tax deferral", "Guaranteed rate", "Principal protection"},
	}
	return a
}

// qualifiedOpportunity flags large qualified balances approaching required
// minimum distributions with no income structure in place.
func (d *Acquisition) qualifiedOpportunity(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current

	yearsToRMD := d.params.RMDAge - s.Age
	if s.Age < d.params.QualifiedAgeMin || yearsToRMD < 0 || pf.Summary.AnnuityAllocation > 0 {
		return nil
	}
	qualified := pf.Summary.QualifiedValue
	if qualified <= d.params.QualifiedValueFloor {
		return nil
	}

	suggested := qualified * 0.25
	income := suggested * d.params.GLWBPayoutRate

	card := scoring.NewScorecard()
	acqAdd(card, "qualified_size", qualified/250_000*12, 35)
	acqAdd(card, "rmd_urgency", 35-float64(yearsToRMD)*10, 35)
	suitability := 10.0
	if s.PrimaryObjective == "Income" || s.PrimaryObjective == "Preservation" {
		suitability = 25
	}
	acqAdd(card, "suitability", suitability, 25)

	a := d.newAcqAlert("QUO", domain.AlertQualifiedOpportunity, in)
	a.Title = fmt.Sprintf("%s Qualified Balance, RMDs Begin in %s", usd(qualified), plural(yearsToRMD, "Year"))
	a.ReasonShort = "Qualified annuity would convert required distributions into structured lifetime income"
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	a.Confidence = acquisitionConfidence(a.Score, suggested)
	a.DataPointsAnalyzed = 13
	a.Reasons = []string{
		fmt.Sprintf("%s in qualified accounts with RMDs starting at age %d", usd(qualified), d.params.RMDAge),
		fmt.Sprintf("Age %d: %s until required distributions", s.Age, plural(yearsToRMD, "year")),
		"No annuity structure in place for distribution income",
		fmt.Sprintf("Income rider would guarantee %s/year on a %s allocation", usd(income), usd(suggested)),
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Qualified Fixed Indexed Annuity with Income Rider",
		SuggestedAllocation:    decimal.NewFromFloat(suggested).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(income).Round(2),
		Features:               []string{"RMD-friendly income structuring", "Guaranteed Lifetime Withdrawal Benefit", "Tax-deferred growth"},
	}
	return a
}

// beneficiaryPlanning flags sizable estates with dependents and no
// insurance product carrying a death benefit.
func (d *Acquisition) beneficiaryPlanning(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current

	if pf.TotalValue < d.params.EstateValueFloor || s.Age < d.params.EstateAgeMin || s.Dependents < 1 || pf.Summary.AnnuityAllocation > 0 {
		return nil
	}

	suggested := pf.TotalValue * 0.10

	card := scoring.NewScorecard()
	acqAdd(card, "estate_size", pf.TotalValue/750_000*15, 40)
	acqAdd(card, "age", float64(s.Age-d.params.EstateAgeMin)*2, 25)
	acqAdd(card, "dependents", float64(s.Dependents)*12, 30)

	a := d.newAcqAlert("BEN", domain.AlertBeneficiaryPlanning, in)
	a.Title = fmt.Sprintf("%s Estate with %s and No Death-Benefit Product", usd(pf.TotalValue), plural(s.Dependents, "Dependent"))
	a.ReasonShort = "Annuity with enhanced death benefit would pass assets outside probate"
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	// Estate planning is never time-critical in a batch window.
	if a.Severity == domain.SeverityHigh {
		a.Severity = domain.SeverityMedium
	}
	a.Confidence = acquisitionConfidence(a.Score, suggested)
	a.DataPointsAnalyzed = 9
	a.Reasons = []string{
		fmt.Sprintf("%s estate, %s, no product with a named-beneficiary death benefit", usd(pf.TotalValue), plural(s.Dependents, "dependent")),
		"Annuity death benefits transfer by beneficiary designation, bypassing probate",
		fmt.Sprintf("Age %d: underwriting-free annuity purchase still available", s.Age),
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Fixed Indexed Annuity with Enhanced Death Benefit",
		SuggestedAllocation:    decimal.NewFromFloat(suggested).Round(2),
		EstimatedAnnualBenefit: decimal.Zero,
		Features:               []string{"Enhanced death benefit", "Probate bypass", "Beneficiary designation control"},
	}
	return a
}

// diversificationGap flags large conservative portfolios with no insurance
// products at all. Advisory rather than urgent; capped at MEDIUM.
func (d *Acquisition) diversificationGap(in PortfolioInput) *domain.Alert {
	pf := in.Portfolio
	s := &in.Profile.Current

	if pf.TotalValue <= d.params.DiversificationFloor || pf.Summary.AnnuityAllocation > 0 || s.Age < d.params.DiversificationAgeMin {
		return nil
	}
	if s.RiskTolerance != "Conservative" && s.RiskTolerance != "Moderate" {
		return nil
	}

	suggested := pf.TotalValue * 0.15

	card := scoring.NewScorecard()
	acqAdd(card, "portfolio_size", pf.TotalValue/500_000*10, 30)
	risk := 20.0
	if s.RiskTolerance == "Conservative" {
		risk = 30
	}
	acqAdd(card, "risk_match", risk, 30)
	acqAdd(card, "age", float64(s.Age-d.params.DiversificationAgeMin), 20)
	acqAdd(card, "missing_allocation", 15, 15)

	a := d.newAcqAlert("DVG", domain.AlertDiversificationGap, in)
	a.Title = fmt.Sprintf("%s Portfolio with 0%% Insurance Products", usd(pf.TotalValue))
	a.ReasonShort = fmt.Sprintf("Diversify with 15%% annuity allocation (%s)", usd(suggested))
	finishScore(a, card)
	a.Severity = scoring.Standard.Severity(a.Score)
	if a.Severity == domain.SeverityHigh {
		a.Severity = domain.SeverityMedium
	}
	a.Confidence = acquisitionConfidence(a.Score, suggested)
	a.DataPointsAnalyzed = 10
	a.Reasons = []string{
		fmt.Sprintf("%s portfolio with zero annuity allocation", usd(pf.TotalValue)),
		fmt.Sprintf("Risk tolerance: %s (insurance products appropriate)", s.RiskTolerance),
		fmt.Sprintf("Age %d (suitable for annuity time horizon)", s.Age),
		"Missing downside protection and guaranteed growth layer",
	}
	a.Recommendation = &domain.Recommendation{
		ProductType:            "Fixed Indexed Annuity",
		SuggestedAllocation:    decimal.NewFromFloat(suggested).Round(2),
		EstimatedAnnualBenefit: decimal.NewFromFloat(suggested * (d.params.BestFIACap - d.params.MoneyMarketRate)).Round(2),
		Features:               []string{"Principal protection", "Tax deferral", "Guaranteed growth floor", "Index upside"},
	}
	return a
}
