package batch

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/annuityworks/kestrel/internal/config"
	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/loader"
	"github.com/annuityworks/kestrel/internal/screen"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	return cfg
}

func allowAll(t *testing.T) *screen.Screener {
	t.Helper()
	s, err := screen.New(nil, discardLogger())
	if err != nil {
		t.Fatalf("building screener: %v", err)
	}
	return s
}

// testSnapshot carries one weak-cap policy with a clear replacement
// alternative and one well-positioned policy, plus an excess-cash portfolio.
func testSnapshot() *loader.Snapshot {
	weakCap := 3.4
	strongCap := 6.2
	return &loader.Snapshot{
		Policies: []domain.Policy{
			{
				ID:                     "POL-A",
				ClientAccountNumber:    "ACC-1",
				Carrier:                "Meridian Life",
				ProductType:            "Fixed Indexed Annuity",
				IssueDate:              domain.NewDate(2021, time.March, 15),
				ApplicationState:       "TX",
				AccountValue:           250_000,
				CurrentCapRate:         &weakCap,
				SurrenderScheduleYears: 7,
				SurrenderEndDate:       domain.NewDate(2028, time.March, 15),
				SurrenderChargePct:     2,
				Fees:                   domain.PolicyFees{MEFee: 1.0, RiderFee: 0.35},
			},
			{
				ID:                     "POL-B",
				ClientAccountNumber:    "ACC-2",
				Carrier:                "Meridian Life",
				ProductType:            "Fixed Indexed Annuity",
				IssueDate:              domain.NewDate(2024, time.June, 1),
				ApplicationState:       "TX",
				AccountValue:           150_000,
				CurrentCapRate:         &strongCap,
				SurrenderScheduleYears: 7,
				SurrenderEndDate:       domain.NewDate(2031, time.June, 1),
				SurrenderChargePct:     7,
			},
		},
		Clients: []domain.ClientProfile{
			{
				AccountNumber: "ACC-1",
				Name:          "Jordan Hale",
				Current: domain.Suitability{
					Age: 62, State: "TX", LifeStage: "Pre-Retirement",
					RiskTolerance: "Moderate", PrimaryObjective: "Growth",
					TimeHorizonYears: 10, AnnualIncome: 120_000, NetWorth: 800_000,
					LiquidityImportance: "Low",
				},
			},
			{
				AccountNumber: "ACC-2",
				Name:          "Riley Moss",
				Current: domain.Suitability{
					Age: 55, State: "TX", LifeStage: "Accumulation",
					RiskTolerance: "Moderate", PrimaryObjective: "Growth",
					TimeHorizonYears: 20, AnnualIncome: 150_000, NetWorth: 600_000,
				},
			},
		},
		Products: []domain.Product{
			{
				ID:      "FIA-SUMMIT-7",
				Carrier: "Summit Annuity",
				Name:    "Summit Index Advantage 7",
				Type:    "Fixed Indexed Annuity",
				IndexOptions: []domain.IndexOption{
					{IndexName: "S&P 500", Strategy: "Annual PTP", CurrentCap: 6.0},
				},
				Fees:           domain.ProductFees{MEFee: 1.0, AdminFee: 0.2},
				SurrenderYears: 7,
				MinPremium:     25_000,
				AgeMin:         45,
				AgeMax:         85,
				RiskProfile:    "Moderate",
				SuitableFor:    []string{"Growth"},
			},
		},
		Portfolios: []domain.Portfolio{
			{
				ClientAccountNumber: "ACC-1",
				TotalValue:          400_000,
				Summary: domain.PortfolioSummary{
					CashAllocation:    0.30,
					TotalCash:         120_000,
					EquityAllocation:  0.50,
					AnnuityAllocation: 0.20,
				},
			},
		},
		Skipped: map[string]int{"policies.json": 1},
	}
}

func TestEngineRunProducesOrderedAlerts(t *testing.T) {
	cfg := testConfig(t)
	engine := New(cfg, allowAll(t), discardLogger())

	out, err := engine.Run(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.PolicyAlerts) == 0 {
		t.Fatal("no policy alerts generated")
	}
	if len(out.AcquisitionAlerts) == 0 {
		t.Fatal("no acquisition alerts generated")
	}

	for i := 1; i < len(out.PolicyAlerts); i++ {
		prev, cur := out.PolicyAlerts[i-1], out.PolicyAlerts[i]
		if prev.Severity.Rank() > cur.Severity.Rank() {
			t.Fatalf("alerts out of severity order: %s(%s) before %s(%s)",
				prev.ID, prev.Severity, cur.ID, cur.Severity)
		}
		if prev.Severity == cur.Severity && prev.Score < cur.Score {
			t.Fatalf("alerts out of score order: %.1f before %.1f", prev.Score, cur.Score)
		}
	}

	foundReplacement := false
	for _, a := range out.PolicyAlerts {
		if a.ID == "ALT-POL-A-REP" {
			foundReplacement = true
		}
	}
	if !foundReplacement {
		t.Error("weak-cap policy produced no replacement alert")
	}
}

func TestEngineRunIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	engine := New(cfg, allowAll(t), discardLogger())
	ctx := context.Background()

	first, err := engine.Run(ctx, testSnapshot())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.Run(ctx, testSnapshot())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same snapshot differ")
	}
}

func TestEngineRunStats(t *testing.T) {
	cfg := testConfig(t)
	engine := New(cfg, allowAll(t), discardLogger())

	out, err := engine.Run(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Stats.PoliciesAnalyzed != 2 || out.Stats.PortfoliosAnalyzed != 1 {
		t.Errorf("stats = %+v", out.Stats)
	}
	if got := len(out.PolicyAlerts) + len(out.AcquisitionAlerts); out.Stats.AlertsGenerated != got {
		t.Errorf("AlertsGenerated = %d, alerts present = %d", out.Stats.AlertsGenerated, got)
	}
	// One loader skip carried through.
	if out.Stats.EntitiesSkipped < 1 {
		t.Errorf("EntitiesSkipped = %d, want loader skip counted", out.Stats.EntitiesSkipped)
	}
	if !out.GeneratedAt.Equal(cfg.AsOf()) {
		t.Errorf("GeneratedAt = %v, want the configured as-of date %v", out.GeneratedAt, cfg.AsOf())
	}
}

func TestEngineScreensSuppressFamilies(t *testing.T) {
	cfg := testConfig(t)
	screener, err := screen.New([]screen.Config{
		{Name: "block-all-policies", Target: screen.TargetPolicy, Expression: "false"},
	}, discardLogger())
	if err != nil {
		t.Fatalf("building screener: %v", err)
	}
	engine := New(cfg, screener, discardLogger())

	out, err := engine.Run(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.PolicyAlerts) != 0 {
		t.Errorf("policy alerts = %d despite a blanket policy screen", len(out.PolicyAlerts))
	}
	if len(out.AcquisitionAlerts) == 0 {
		t.Error("portfolio alerts suppressed by a policy-target screen")
	}
}

func TestEngineRunWithoutPortfolios(t *testing.T) {
	cfg := testConfig(t)
	engine := New(cfg, allowAll(t), discardLogger())

	snap := testSnapshot()
	snap.Portfolios = nil
	out, err := engine.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.AcquisitionAlerts) != 0 {
		t.Errorf("acquisition alerts = %d with no portfolios", len(out.AcquisitionAlerts))
	}
	for _, a := range out.PolicyAlerts {
		if strings.HasPrefix(a.ID, "ACQ-") {
			t.Errorf("acquisition alert %s in policy alert list", a.ID)
		}
	}
}
