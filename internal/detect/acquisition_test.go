package detect

import (
	"math"
	"strings"
	"testing"

	"github.com/annuityworks/kestrel/internal/domain"
)

// quietPortfolio is a snapshot no sub-detector fires on: modest cash, an
// existing annuity sleeve, no maturing positions.
func quietPortfolio() *domain.Portfolio {
	return &domain.Portfolio{
		ClientAccountNumber: "ACC-789-234",
		AsOfDate:            domain.Date{Time: testAsOf},
		TotalValue:          200_000,
		Summary: domain.PortfolioSummary{
			EquityAllocation:  0.50,
			CashAllocation:    0.05,
			AnnuityAllocation: 0.10,
			TotalCash:         10_000,
		},
	}
}

func acqProfile() *domain.ClientProfile {
	profile := alignedProfile()
	profile.Current.LiquidityImportance = "High"
	profile.Current.TaxBracketPct = 22
	profile.Current.RetirementTargetYear = 2036
	return profile
}

func acqInput(modify func(*domain.Portfolio, *domain.ClientProfile)) PortfolioInput {
	pf := quietPortfolio()
	profile := acqProfile()
	if modify != nil {
		modify(pf, profile)
	}
	return PortfolioInput{Portfolio: pf, Profile: profile, AsOf: testAsOf}
}

func TestAcquisitionQuietPortfolioNoAlerts(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())
	if alerts := d.Evaluate(acqInput(nil)); len(alerts) != 0 {
		t.Errorf("quiet portfolio produced %d alerts: %+v", len(alerts), alerts)
	}
}

func TestAcquisitionRequiresProfile(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())
	in := acqInput(nil)
	in.Profile = nil
	if alerts := d.Evaluate(in); alerts != nil {
		t.Errorf("alerts without a suitability profile: %+v", alerts)
	}
}

func excessCash(pf *domain.Portfolio, c *domain.ClientProfile) {
	pf.Summary.TotalCash = 300_000
	pf.Summary.CashAllocation = 0.30
	c.Current.LiquidityImportance = "Low"
}

func TestExcessLiquidity(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(excessCash))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-EXL-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	if a.Type != domain.AlertExcessLiquidity {
		t.Errorf("Type = %s", a.Type)
	}
	if a.Recommendation == nil || a.Recommendation.ProductType != "Fixed Indexed Annuity" {
		t.Errorf("recommendation = %+v", a.Recommendation)
	}
	if a.Recommendation.SuggestedAllocation.IsZero() {
		t.Error("suggested allocation is zero")
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"allocation under floor", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.Summary.CashAllocation = 0.08
		}},
		{"amount under floor", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.Summary.TotalCash = 40_000
		}},
		{"client too old", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.Age = 80
		}},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
				excessCash(pf, c)
				g.modify(pf, c)
			})); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func unprotectedEquity(pf *domain.Portfolio, c *domain.ClientProfile) {
	pf.TotalValue = 500_000
	pf.Summary.EquityAllocation = 0.75
	pf.Summary.AnnuityAllocation = 0
	c.Current.PrimaryObjective = "Income"
}

func TestPortfolioUnprotected(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(unprotectedEquity))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-UNP-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	// 15 equity excess + 14 age + 35 objective + 15 unprotected.
	if a.Score < 77 || a.Score > 81 {
		t.Errorf("score = %.1f, want ~79", a.Score)
	}
	if a.Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want HIGH", a.Severity)
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"growth objective", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.PrimaryObjective = "Growth"
		}},
		{"annuity sleeve exists", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.Summary.AnnuityAllocation = 0.10
		}},
		{"accumulation life stage", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.LifeStage = "Accumulation"
		}},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
				unprotectedEquity(pf, c)
				g.modify(pf, c)
			})); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func maturingCD(days int, rate float64) func(*domain.Portfolio, *domain.ClientProfile) {
	return func(pf *domain.Portfolio, c *domain.ClientProfile) {
		maturity := domain.Date{Time: testAsOf.AddDate(0, 0, days)}
		pf.Positions = append(pf.Positions, domain.Position{
			ID:           "POS-CD-01",
			AssetClass:   domain.AssetFixedIncome,
			AccountType:  domain.AccountTaxable,
			Description:  "Bank CD",
			MarketValue:  150_000,
			CurrentRate:  &rate,
			MaturityDate: &maturity,
		})
	}
}

func TestCDMaturity(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(maturingCD(20, 0.02)))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-CDM-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	if a.Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want HIGH inside 30 days", a.Severity)
	}
	if a.Recommendation == nil || a.Recommendation.GuaranteedRate != 5.5 {
		t.Errorf("recommendation = %+v, want 5.5%% MYGA", a.Recommendation)
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name string
		days int
		rate float64
	}{
		{"outside the window", 120, 0.02},
		{"already matured", -5, 0.02},
		{"rate already competitive", 20, 0.045},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(maturingCD(g.days, g.rate))); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func retirementGap(pf *domain.Portfolio, c *domain.ClientProfile) {
	pf.TotalValue = 2_000_000
	pf.Summary.AnnuityAllocation = 0
	c.Current.Age = 63
	c.Current.RiskTolerance = "Aggressive"
	c.Current.PrimaryObjective = "Income"
	c.Current.RetirementTargetYear = 2027
}

func TestIncomeGap(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(retirementGap))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-ING-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	if a.Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want HIGH within a year of retirement", a.Severity)
	}
	if a.Recommendation == nil || !strings.Contains(a.Recommendation.ProductType, "SPIA") {
		t.Errorf("recommendation = %+v, want immediate annuity inside one year", a.Recommendation)
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"coverage already adequate", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.TotalValue = 1_000_000 // 40k expenses vs 35k guaranteed
		}},
		{"growth objective", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.PrimaryObjective = "Growth"
		}},
		{"retirement too far out", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.RetirementTargetYear = 2032
		}},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
				retirementGap(pf, c)
				g.modify(pf, c)
			})); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func taxableInterest(pf *domain.Portfolio, c *domain.ClientProfile) {
	yield := 0.05
	pf.Positions = append(pf.Positions, domain.Position{
		ID:           "POS-BOND-01",
		AssetClass:   domain.AssetFixedIncome,
		AccountType:  domain.AccountTaxable,
		Description:  "Corporate bond ladder",
		MarketValue:  400_000,
		CurrentYield: &yield,
	})
	c.Current.TaxBracketPct = 32
}

func TestTaxInefficiency(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(taxableInterest))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-TXI-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	// All three categories saturate: 40 + 30 + 25.
	if a.Score != 95 {
		t.Errorf("score = %.1f, want 95", a.Score)
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"bracket under floor", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.TaxBracketPct = 22
		}},
		{"holding in an IRA", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.Positions[len(pf.Positions)-1].AccountType = domain.AccountIRA
		}},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
				taxableInterest(pf, c)
				g.modify(pf, c)
			})); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func qualifiedBalance(pf *domain.Portfolio, c *domain.ClientProfile) {
	pf.Summary.AnnuityAllocation = 0
	pf.Summary.QualifiedValue = 600_000
	c.Current.Age = 71
}

func TestQualifiedOpportunity(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(qualifiedBalance))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-QUO-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"under qualifying age", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.Age = 68
		}},
		{"past RMD age", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.Age = 75
		}},
		{"balance under floor", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.Summary.QualifiedValue = 200_000
		}},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
				qualifiedBalance(pf, c)
				g.modify(pf, c)
			})); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func sizableEstate(pf *domain.Portfolio, c *domain.ClientProfile) {
	pf.TotalValue = 900_000
	pf.Summary.AnnuityAllocation = 0
	c.Current.Age = 68
	c.Current.RiskTolerance = "Aggressive"
	c.Current.Dependents = 2
}

func TestBeneficiaryPlanning(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(sizableEstate))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-BEN-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	if a.Severity == domain.SeverityHigh {
		t.Error("estate planning alert escalated to HIGH")
	}
	assertBreakdownSums(t, a)

	if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
		sizableEstate(pf, c)
		c.Current.Dependents = 0
	})); len(alerts) != 0 {
		t.Error("alert fired without dependents")
	}
}

func conservativePortfolio(pf *domain.Portfolio, c *domain.ClientProfile) {
	pf.TotalValue = 800_000
	pf.Summary.AnnuityAllocation = 0
	c.Current.Age = 60
	c.Current.RiskTolerance = "Conservative"
}

func TestDiversificationGap(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(conservativePortfolio))
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	a := alerts[0]
	if a.ID != "ACQ-DVG-ACC789234" {
		t.Errorf("ID = %s", a.ID)
	}
	if a.Severity == domain.SeverityHigh {
		t.Error("advisory diversification alert escalated to HIGH")
	}
	assertBreakdownSums(t, a)

	gates := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"aggressive tolerance", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			c.Current.RiskTolerance = "Aggressive"
		}},
		{"portfolio under floor", func(pf *domain.Portfolio, c *domain.ClientProfile) {
			pf.TotalValue = 400_000
		}},
	}
	for _, g := range gates {
		t.Run(g.name, func(t *testing.T) {
			if alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
				conservativePortfolio(pf, c)
				g.modify(pf, c)
			})); len(alerts) != 0 {
				t.Errorf("alert fired despite %s", g.name)
			}
		})
	}
}

func TestAcquisitionSubDetectorOrderIsFixed(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	alerts := d.Evaluate(acqInput(func(pf *domain.Portfolio, c *domain.ClientProfile) {
		excessCash(pf, c)
		conservativePortfolio(pf, c)
	}))
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want excess liquidity and diversification", len(alerts))
	}
	if !strings.HasPrefix(alerts[0].ID, "ACQ-EXL-") || !strings.HasPrefix(alerts[1].ID, "ACQ-DVG-") {
		t.Errorf("order = [%s, %s]", alerts[0].ID, alerts[1].ID)
	}
}

// Category weights derive from each maximum's share of the family scale, so
// every sub-detector's maxima must cover the scale exactly.
func TestAcquisitionWeightsSumToOne(t *testing.T) {
	d := NewAcquisition(DefaultAcquisitionParams())

	fixtures := []struct {
		name   string
		modify func(*domain.Portfolio, *domain.ClientProfile)
	}{
		{"excess liquidity", excessCash},
		{"portfolio unprotected", unprotectedEquity},
		{"cd maturity", maturingCD(20, 0.02)},
		{"income gap", retirementGap},
		{"tax inefficiency", taxableInterest},
		{"qualified opportunity", qualifiedBalance},
		{"beneficiary planning", sizableEstate},
		{"diversification gap", conservativePortfolio},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			alerts := d.Evaluate(acqInput(f.modify))
			if len(alerts) != 1 {
				t.Fatalf("alerts = %d, want 1", len(alerts))
			}
			sum := 0.0
			for _, c := range alerts[0].Breakdown {
				sum += c.Weight
			}
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("%s weights sum to %.12f, want 1.0", alerts[0].ID, sum)
			}
		})
	}
}
