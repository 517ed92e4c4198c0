// Package domain defines the typed records the engine reads and the alerts it emits.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType identifies the detector family (or acquisition sub-type) that produced an alert.
type AlertType string

const (
	// Policy-level alert types.
	AlertReplacement      AlertType = "REPLACEMENT"
	AlertIncomeActivation AlertType = "INCOME_ACTIVATION"
	AlertSuitabilityDrift AlertType = "SUITABILITY_DRIFT"
	AlertMissingInfo      AlertType = "MISSING_INFO"

	// Client-level acquisition alert types.
	AlertExcessLiquidity      AlertType = "EXCESS_LIQUIDITY"
	AlertPortfolioUnprotected AlertType = "PORTFOLIO_UNPROTECTED"
	AlertTaxInefficiency      AlertType = "TAX_INEFFICIENCY"
	AlertCDMaturity           AlertType = "CD_MATURITY"
	AlertIncomeGap            AlertType = "INCOME_GAP"
	AlertQualifiedOpportunity AlertType = "QUALIFIED_OPPORTUNITY"
	AlertBeneficiaryPlanning  AlertType = "BENEFICIARY_PLANNING"
	AlertDiversificationGap   AlertType = "DIVERSIFICATION_GAP"
)

// Severity is the review tier derived from a numeric score.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Rank orders severities for sorting (HIGH first).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Contribution is one weighted category in a score breakdown.
// Points is the category's contribution to the total score; the sum of
// Points across a breakdown equals the alert score.
type Contribution struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
	Points   float64 `json:"points"`
	Max      float64 `json:"max"`
}

// Scenario is one comparative income-activation projection.
type Scenario struct {
	Action        string `json:"action"`
	IncomeBase    string `json:"incomeBase"`
	AnnualIncome  string `json:"annualIncome"`
	MonthlyIncome string `json:"monthlyIncome"`
	Tradeoff      string `json:"tradeoff,omitempty"`
}

// DriftCategory reports one suitability dimension's before/current values.
type DriftCategory struct {
	Category string   `json:"category"`
	Original string   `json:"original"`
	Current  string   `json:"current"`
	Score    float64  `json:"driftScore"`
	Severity Severity `json:"severity"`
	Mismatch string   `json:"mismatch,omitempty"`
}

// FieldComparison is one row of the missing-info field table. Downstream
// systems use it to pre-fill corrective administrative forms.
type FieldComparison struct {
	Field              string `json:"field"`
	PolicyValue        string `json:"policyValue"`
	ProfileValue       string `json:"profileValue,omitempty"`
	Priority           string `json:"priority"`
	AutoUpdateEligible bool   `json:"autoUpdateEligible"`
}

// Recommendation is a concrete product suggestion attached to acquisition
// and replacement alerts.
type Recommendation struct {
	ProductType            string          `json:"productType"`
	ProductID              string          `json:"productId,omitempty"`
	Carrier                string          `json:"carrier,omitempty"`
	SuggestedAllocation    decimal.Decimal `json:"suggestedAllocation"`
	EstimatedAnnualBenefit decimal.Decimal `json:"estimatedAnnualBenefit"`
	GuaranteedRate         float64         `json:"guaranteedRate,omitempty"`
	Features               []string        `json:"features,omitempty"`
}

// Alert is the sole entity the engine creates. Alerts are immutable: a later
// batch run either reproduces an alert byte-for-byte or omits it.
type Alert struct {
	ID                  string    `json:"alertId"`
	Type                AlertType `json:"type"`
	Severity            Severity  `json:"severity"`
	Title               string    `json:"title"`
	ReasonShort         string    `json:"reasonShort"`
	Reasons             []string  `json:"reasons"`
	PolicyID            string    `json:"policyId,omitempty"`
	ClientAccountNumber string    `json:"clientAccountNumber"`

	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Breakdown  []Contribution `json:"scoringBreakdown"`

	// ProfileRequired marks a degraded score produced without a
	// suitability profile.
	ProfileRequired bool `json:"profileRequired,omitempty"`

	Scenarios          []Scenario        `json:"scenarios,omitempty"`
	DriftAnalysis      []DriftCategory   `json:"driftAnalysis,omitempty"`
	CriticalMismatches []string          `json:"criticalMismatches,omitempty"`
	FieldComparisons   []FieldComparison `json:"fieldComparisons,omitempty"`
	Recommendation     *Recommendation   `json:"recommendation,omitempty"`

	DataPointsAnalyzed int       `json:"dataPointsAnalyzed"`
	GeneratedAt        time.Time `json:"generatedAt"`
	AlgorithmVersion   string    `json:"algorithmVersion"`
}

// BatchOutput is the engine's contract with downstream consumers: two
// ordered alert collections plus run attribution.
type BatchOutput struct {
	GeneratedAt       time.Time `json:"generatedAt"`
	AlgorithmVersion  string    `json:"algorithmVersion"`
	PolicyAlerts      []Alert   `json:"policyAlerts"`
	AcquisitionAlerts []Alert   `json:"acquisitionAlerts"`
	Stats             RunStats  `json:"stats"`
}

// RunStats summarizes one batch cycle.
type RunStats struct {
	PoliciesAnalyzed   int `json:"policiesAnalyzed"`
	PortfoliosAnalyzed int `json:"portfoliosAnalyzed"`
	AlertsGenerated    int `json:"alertsGenerated"`
	EntitiesSkipped    int `json:"entitiesSkipped"`
}
