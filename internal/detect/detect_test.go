package detect

import (
	"math"
	"testing"
	"time"

	"github.com/annuityworks/kestrel/internal/domain"
)

var testAsOf = time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)

// fiaPolicy is a surrender-period FIA with a weak cap and no income rider.
func fiaPolicy(cap float64) *domain.Policy {
	return &domain.Policy{
		ID:                     "POL-2024-001847",
		ClientAccountNumber:    "ACC-789-234",
		Carrier:                "Meridian Life",
		ProductType:            "Fixed Indexed Annuity",
		IssueDate:              domain.NewDate(2021, time.March, 15),
		ApplicationState:       "TX",
		AccountValue:           250_000,
		CurrentCapRate:         &cap,
		SurrenderScheduleYears: 7,
		SurrenderEndDate:       domain.NewDate(2026, time.August, 25),
		SurrenderChargePct:     2,
		Fees:                   domain.PolicyFees{MEFee: 1.0, RiderFee: 0.35},
	}
}

// alignedProfile matches the test catalog product on risk, objective, and
// horizon.
func alignedProfile() *domain.ClientProfile {
	return &domain.ClientProfile{
		AccountNumber: "ACC-789-234",
		Name:          "Jordan Hale",
		Email:         "jordan.hale@example.com",
		Current: domain.Suitability{
			Age:              62,
			State:            "TX",
			LifeStage:        "Pre-Retirement",
			RiskTolerance:    "Moderate",
			PrimaryObjective: "Growth",
			TimeHorizonYears: 10,
			AnnualIncome:     120_000,
			NetWorth:         800_000,
		},
	}
}

func assertBreakdownSums(t *testing.T, a *domain.Alert) {
	t.Helper()
	sum := 0.0
	weightSum := 0.0
	for _, c := range a.Breakdown {
		sum += c.Points
		weightSum += c.Weight
		if c.Points < 0 || c.Points > c.Max {
			t.Errorf("category %s: %.1f outside [0, %.1f]", c.Category, c.Points, c.Max)
		}
	}
	if math.Abs(sum-a.Score) > 0.01 {
		t.Errorf("breakdown sums to %.2f, score is %.2f", sum, a.Score)
	}
	if math.Abs(weightSum-1.0) > 1e-9 {
		t.Errorf("breakdown weights sum to %.12f, want 1.0", weightSum)
	}
}
