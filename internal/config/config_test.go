package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/annuityworks/kestrel/internal/detect"
	"github.com/annuityworks/kestrel/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "kestrel" {
		t.Errorf("app.name = %s", cfg.App.Name)
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("batch.workers = %d", cfg.Batch.Workers)
	}
	if cfg.Sink.Kind != "file" {
		t.Errorf("sink.kind = %s", cfg.Sink.Kind)
	}
	want := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)
	if !cfg.AsOf().Equal(want) {
		t.Errorf("AsOf = %v, want %v", cfg.AsOf(), want)
	}
	if cfg.Detect.Replacement.BenchmarkCapRate == 0 {
		t.Error("detect defaults not applied")
	}
	if len(cfg.Detect.Income.PayoutTiers) != 4 {
		t.Errorf("payout tiers = %d, want the 4-row default table", len(cfg.Detect.Income.PayoutTiers))
	}
}

// Loaded income params must score a policy the same way the constructor
// defaults do; a missing payout table leaves every projection at zero and
// poisons the score with NaN.
func TestLoadIncomeParamsDriveDetector(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	base := 500_000.0
	d := detect.NewIncomeActivation(cfg.Detect.Income)
	alert, err := d.Evaluate(detect.PolicyInput{
		Policy: &domain.Policy{
			ID:                  "POL-2024-002210",
			ClientAccountNumber: "ACC-556-901",
			AccountValue:        250_000,
			RiderType:           "Guaranteed Lifetime Income",
			RiderRollupRate:     0.06,
			IncomeBase:          &base,
		},
		Profile: &domain.ClientProfile{
			AccountNumber: "ACC-556-901",
			Current:       domain.Suitability{Age: 65, CurrentIncomeNeed: "Soon"},
		},
		AsOf: cfg.AsOf(),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if alert == nil {
		t.Fatal("expected alert")
	}
	if math.IsNaN(alert.Score) || alert.Score <= 0 || alert.Score > 92 {
		t.Errorf("score = %v, want finite within (0, 92]", alert.Score)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
batch:
  input_dir: /srv/snapshots
  as_of: "2026-03-01"
  workers: 2
sink:
  kind: sql
  driver: sqlite
screens:
  - name: big-policies
    target: policy
    expression: "account_value >= 100000.0"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.InputDir != "/srv/snapshots" || cfg.Batch.Workers != 2 {
		t.Errorf("batch = %+v", cfg.Batch)
	}
	if cfg.Sink.Kind != "sql" {
		t.Errorf("sink.kind = %s", cfg.Sink.Kind)
	}
	if len(cfg.Screens) != 1 || cfg.Screens[0].Name != "big-policies" {
		t.Errorf("screens = %+v", cfg.Screens)
	}
	if cfg.AsOf().Month() != time.March {
		t.Errorf("AsOf = %v", cfg.AsOf())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KESTREL_BATCH_WORKERS", "3")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("batch.workers = %d, want env override 3", cfg.Batch.Workers)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"zero workers",
			"batch:\n  workers: 0\n",
			"batch.workers",
		},
		{
			"bad as_of",
			"batch:\n  as_of: not-a-date\n",
			"batch.as_of",
		},
		{
			"unbalanced weights",
			"detect:\n  drift:\n    weight_risk: 0.9\n",
			"weights sum",
		},
		{
			"empty payout table",
			"detect:\n  income:\n    payout_tiers: []\n",
			"payout_tiers",
		},
		{
			"unknown sink kind",
			"sink:\n  kind: kafka\n",
			"sink.kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("Load accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load succeeded with an explicit path that does not exist")
	}
}
