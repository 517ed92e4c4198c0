package detect

import (
	"errors"
	"testing"

	"github.com/annuityworks/kestrel/internal/domain"
)

// driftedProfile is a Growth client at issue who now needs income.
func driftedProfile() *domain.ClientProfile {
	profile := alignedProfile()
	original := profile.Current // copy
	original.RiskTolerance = "Moderate"
	original.PrimaryObjective = "Growth"
	original.TimeHorizonYears = 15
	original.NetWorth = 800_000
	original.AnnualIncome = 120_000
	profile.Original = &original

	profile.Current.RiskTolerance = "Conservative"
	profile.Current.PrimaryObjective = "Income"
	profile.Current.TimeHorizonYears = 8
	profile.Current.NetWorth = 700_000
	profile.Current.AnnualIncome = 90_000
	return profile
}

func TestDriftRequiresOriginalSnapshot(t *testing.T) {
	d := NewSuitabilityDrift(DefaultDriftParams())

	_, err := d.Evaluate(PolicyInput{Policy: fiaPolicy(5.0), AsOf: testAsOf})
	if !errors.Is(err, ErrMissingSnapshot) {
		t.Errorf("nil profile: err = %v, want ErrMissingSnapshot", err)
	}

	_, err = d.Evaluate(PolicyInput{Policy: fiaPolicy(5.0), Profile: alignedProfile(), AsOf: testAsOf})
	if !errors.Is(err, ErrMissingSnapshot) {
		t.Errorf("nil original: err = %v, want ErrMissingSnapshot", err)
	}
}

func TestDriftNoChangeNoAlert(t *testing.T) {
	d := NewSuitabilityDrift(DefaultDriftParams())
	profile := alignedProfile()
	original := profile.Current
	profile.Original = &original

	alert, err := d.Evaluate(PolicyInput{Policy: fiaPolicy(5.0), Profile: profile, AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if alert != nil {
		t.Errorf("alert fired on identical snapshots: %+v", alert)
	}
}

func TestDriftCriticalMismatchForcesHigh(t *testing.T) {
	d := NewSuitabilityDrift(DefaultDriftParams())
	p := fiaPolicy(5.0) // no income rider

	alert, err := d.Evaluate(PolicyInput{Policy: p, Profile: driftedProfile(), AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if alert == nil {
		t.Fatal("expected alert for growth-to-income shift without rider")
	}

	if alert.ID != "ALT-POL-2024-001847-SUIT" {
		t.Errorf("ID = %s", alert.ID)
	}
	if alert.Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want HIGH on critical mismatch", alert.Severity)
	}
	if len(alert.CriticalMismatches) == 0 {
		t.Error("critical mismatch list empty")
	}
	if len(alert.DriftAnalysis) < 3 {
		t.Errorf("drift analysis has %d categories, want risk/objective/financial/horizon", len(alert.DriftAnalysis))
	}
	assertBreakdownSums(t, alert)
}

func TestDriftIncomeShiftWithRiderNotCritical(t *testing.T) {
	d := NewSuitabilityDrift(DefaultDriftParams())
	p := riderPolicy() // income rider present

	alert, err := d.Evaluate(PolicyInput{Policy: p, Profile: driftedProfile(), AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if alert == nil {
		t.Fatal("expected alert, drift is still material")
	}
	if len(alert.CriticalMismatches) != 0 {
		t.Errorf("critical mismatch recorded despite income rider: %v", alert.CriticalMismatches)
	}
}

func TestDriftBelowThresholdSuppressed(t *testing.T) {
	d := NewSuitabilityDrift(DefaultDriftParams())
	profile := alignedProfile()
	original := profile.Current
	original.NetWorth = 820_000 // ~2.4% move, well under the reference
	profile.Original = &original

	alert, err := d.Evaluate(PolicyInput{Policy: fiaPolicy(5.0), Profile: profile, AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if alert != nil {
		t.Errorf("minor financial drift fired an alert: score %.1f", alert.Score)
	}
}

func TestDriftHorizonOnlyCountsShortening(t *testing.T) {
	d := NewSuitabilityDrift(DefaultDriftParams())
	profile := alignedProfile()
	original := profile.Current
	original.TimeHorizonYears = 5 // horizon grew from 5 to 10
	profile.Original = &original

	alert, err := d.Evaluate(PolicyInput{Policy: fiaPolicy(5.0), Profile: profile, AsOf: testAsOf})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if alert != nil {
		t.Errorf("lengthened horizon fired an alert: %+v", alert)
	}
}
