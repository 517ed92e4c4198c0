// Package batch orchestrates one alert generation run: score every policy
// and portfolio through the detector families, order the results, and hand
// them to the sink.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annuityworks/kestrel/internal/catalog"
	"github.com/annuityworks/kestrel/internal/config"
	"github.com/annuityworks/kestrel/internal/detect"
	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/loader"
	"github.com/annuityworks/kestrel/internal/screen"
)

// Detector family names, as referenced by eligibility screens.
const (
	FamilyReplacement = "replacement"
	FamilyIncome      = "income"
	FamilyDrift       = "drift"
	FamilyMissingInfo = "missing_info"
	FamilyAcquisition = "acquisition"
)

// Engine runs the batch pipeline.
type Engine struct {
	cfg      *config.Config
	screener *screen.Screener
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New builds the engine. The screener must already be compiled.
func New(cfg *config.Config, screener *screen.Screener, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		screener: screener,
		logger:   logger,
		tracer:   otel.Tracer("kestrel/batch"),
	}
}

// policyResult holds one policy's alerts in detector order.
type policyResult struct {
	alerts  []*domain.Alert
	skipped bool
}

// Run scores one snapshot and returns the ordered batch output. The output
// is a pure function of the snapshot and configuration: all dates derive
// from the configured as-of date and ordering is fully deterministic.
func (e *Engine) Run(ctx context.Context, snap *loader.Snapshot) (*domain.BatchOutput, error) {
	ctx, span := e.tracer.Start(ctx, "batch.run",
		trace.WithAttributes(
			attribute.Int("policies", len(snap.Policies)),
			attribute.Int("portfolios", len(snap.Portfolios)),
		))
	defer span.End()

	asOf := e.cfg.AsOf()
	start := time.Now()

	cat := catalog.New(snap.Products)
	profiles := snap.ProfileByAccount()

	policyAlerts, policySkipped := e.scorePolicies(ctx, snap, cat, profiles, asOf)
	acqAlerts := e.scorePortfolios(ctx, snap, profiles, asOf)

	_, sortSpan := e.tracer.Start(ctx, "batch.sort")
	sortAlerts(policyAlerts)
	sortAlerts(acqAlerts)
	sortSpan.End()

	out := &domain.BatchOutput{
		GeneratedAt:       asOf,
		AlgorithmVersion:  detect.AlgorithmVersion,
		PolicyAlerts:      policyAlerts,
		AcquisitionAlerts: acqAlerts,
		Stats: domain.RunStats{
			PoliciesAnalyzed:   len(snap.Policies),
			PortfoliosAnalyzed: len(snap.Portfolios),
			AlertsGenerated:    len(policyAlerts) + len(acqAlerts),
			EntitiesSkipped:    policySkipped + snap.SkippedTotal(),
		},
	}

	e.logger.Info("batch run complete",
		"policies", out.Stats.PoliciesAnalyzed,
		"portfolios", out.Stats.PortfoliosAnalyzed,
		"alerts", out.Stats.AlertsGenerated,
		"skipped", out.Stats.EntitiesSkipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// scorePolicies fans policies out across the worker pool. Results are
// collected per policy index so concurrency never affects output order.
func (e *Engine) scorePolicies(ctx context.Context, snap *loader.Snapshot, cat *catalog.Catalog, profiles map[string]*domain.ClientProfile, asOf time.Time) ([]domain.Alert, int) {
	ctx, span := e.tracer.Start(ctx, "batch.score_policies")
	defer span.End()

	replacement := detect.NewReplacement(e.cfg.Detect.Replacement, cat)
	income := detect.NewIncomeActivation(e.cfg.Detect.Income)
	drift := detect.NewSuitabilityDrift(e.cfg.Detect.Drift)
	missing := detect.NewMissingInfo(e.cfg.Detect.MissingInfo)

	results := make([]policyResult, len(snap.Policies))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.cfg.Batch.Workers)

	for i := range snap.Policies {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			p := &snap.Policies[idx]
			in := detect.PolicyInput{
				Policy:  p,
				Profile: profiles[p.ClientAccountNumber],
				AsOf:    asOf,
			}

			detectors := []struct {
				family string
				eval   func(detect.PolicyInput) (*domain.Alert, error)
			}{
				{FamilyReplacement, replacement.Evaluate},
				{FamilyIncome, income.Evaluate},
				{FamilyDrift, drift.Evaluate},
				{FamilyMissingInfo, missing.Evaluate},
			}

			for _, d := range detectors {
				if !e.screener.AllowPolicy(d.family, p, in.Profile) {
					continue
				}
				alert, err := d.eval(in)
				if err != nil {
					if errors.Is(err, detect.ErrMissingSnapshot) {
						e.logger.Debug("detector skipped, snapshot missing",
							"family", d.family, "policy_id", p.ID)
						continue
					}
					e.logger.Warn("detector rejected policy",
						"family", d.family, "policy_id", p.ID, "error", err)
					results[idx].skipped = true
					continue
				}
				if alert != nil {
					results[idx].alerts = append(results[idx].alerts, alert)
				}
			}
		}(i)
	}
	wg.Wait()

	var alerts []domain.Alert
	skipped := 0
	for _, r := range results {
		for _, a := range r.alerts {
			alerts = append(alerts, *a)
		}
		if r.skipped {
			skipped++
		}
	}
	return alerts, skipped
}

// scorePortfolios runs the acquisition family over every portfolio.
func (e *Engine) scorePortfolios(ctx context.Context, snap *loader.Snapshot, profiles map[string]*domain.ClientProfile, asOf time.Time) []domain.Alert {
	_, span := e.tracer.Start(ctx, "batch.score_portfolios")
	defer span.End()

	acquisition := detect.NewAcquisition(e.cfg.Detect.Acquisition)

	results := make([][]*domain.Alert, len(snap.Portfolios))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.cfg.Batch.Workers)

	for i := range snap.Portfolios {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			pf := &snap.Portfolios[idx]
			profile := profiles[pf.ClientAccountNumber]
			if profile == nil {
				e.logger.Debug("portfolio without client profile, skipping acquisition analysis",
					"account", pf.ClientAccountNumber)
				return
			}
			if !e.screener.AllowPortfolio(FamilyAcquisition, pf, profile) {
				return
			}
			results[idx] = acquisition.Evaluate(detect.PortfolioInput{
				Portfolio: pf,
				Profile:   profile,
				AsOf:      asOf,
			})
		}(i)
	}
	wg.Wait()

	var alerts []domain.Alert
	for _, group := range results {
		for _, a := range group {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}

// sortAlerts orders by severity (HIGH first), then score descending, then
// alert ID ascending as the deterministic tiebreaker.
func sortAlerts(alerts []domain.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
		}
		if alerts[i].Score != alerts[j].Score {
			return alerts[i].Score > alerts[j].Score
		}
		return alerts[i].ID < alerts[j].ID
	})
}
