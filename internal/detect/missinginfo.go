package detect

import (
	"fmt"

	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/scoring"
)

// Category maxima on the missing-info family's 100-point scale.
const (
	missFieldsMax      = 40.0
	missRecencyMax     = 30.0
	missRegulatoryMax  = 20.0
	missEligibilityMax = 10.0
)

// Field priorities, in descending order of regulatory weight.
const (
	priorityCritical  = "critical"
	priorityImportant = "important"
	priorityRoutine   = "routine"
)

// MissingInfoParams is the missing-info family's tunable configuration.
type MissingInfoParams struct {
	// Recency buckets, in years since the non-financial data was last
	// reviewed.
	StaleYears    float64 `mapstructure:"stale_years"`    // > this: full staleness
	AgingYears    float64 `mapstructure:"aging_years"`    // > this: moderate
	RecentYears   float64 `mapstructure:"recent_years"`   // > this: mild
	StalePoints   float64 `mapstructure:"stale_points"`   // 30
	AgingPoints   float64 `mapstructure:"aging_points"`   // 18
	RecentPoints  float64 `mapstructure:"recent_points"`  // 9
	NeverPoints   float64 `mapstructure:"never_points"`   // 20
	UnknownPoints float64 `mapstructure:"unknown_points"` // 15

	WeightFields      float64 `mapstructure:"weight_fields"`
	WeightRecency     float64 `mapstructure:"weight_recency"`
	WeightRegulatory  float64 `mapstructure:"weight_regulatory"`
	WeightEligibility float64 `mapstructure:"weight_eligibility"`
}

// DefaultMissingInfoParams returns the documented baseline ruleset.
func DefaultMissingInfoParams() MissingInfoParams {
	return MissingInfoParams{
		StaleYears:        5,
		AgingYears:        3,
		RecentYears:       1,
		StalePoints:       30,
		AgingPoints:       18,
		RecentPoints:      9,
		NeverPoints:       20,
		UnknownPoints:     15,
		WeightFields:      0.40,
		WeightRecency:     0.30,
		WeightRegulatory:  0.20,
		WeightEligibility: 0.10,
	}
}

// Weights exposes the family weight table for startup validation.
func (p MissingInfoParams) Weights() map[string]float64 {
	return map[string]float64{
		"missing_fields":       p.WeightFields,
		"data_recency":         p.WeightRecency,
		"regulatory_exposure":  p.WeightRegulatory,
		"remediation_eligible": p.WeightEligibility,
	}
}

// fieldIssue is one missing or incomplete administrative field found during
// the audit.
type fieldIssue struct {
	field        string
	points       float64
	priority     string
	policyValue  string
	profileValue string
	autoEligible bool
}

// MissingInfo audits the administrative completeness of a policy's
// non-financial data. It is the one detector that never needs a suitability
// profile; when one exists, its contact data seeds the remediation table.
type MissingInfo struct {
	params MissingInfoParams
}

// NewMissingInfo builds the detector.
func NewMissingInfo(params MissingInfoParams) *MissingInfo {
	return &MissingInfo{params: params}
}

// Evaluate scores one policy. Returns (nil, nil) when the record is
// administratively complete and recently reviewed.
func (d *MissingInfo) Evaluate(in PolicyInput) (*domain.Alert, error) {
	p := in.Policy
	issues := d.audit(p, in.Profile)

	recencyPoints, recencyReason := d.recency(p, in)
	if len(issues) == 0 && recencyPoints == 0 {
		return nil, nil
	}

	fieldPoints := 0.0
	criticalCount := 0
	importantCount := 0
	eligibleCount := 0
	for _, is := range issues {
		fieldPoints += is.points
		switch is.priority {
		case priorityCritical:
			criticalCount++
		case priorityImportant:
			importantCount++
		}
		if is.autoEligible {
			eligibleCount++
		}
	}

	// Regulatory exposure keys off the worst outstanding priority.
	regulatoryPoints := 0.0
	switch {
	case criticalCount > 0:
		regulatoryPoints = missRegulatoryMax
	case importantCount > 0:
		regulatoryPoints = 12.0
	}

	// Remediation share: how much of the gap the administrative channel can
	// close without wet-ink forms.
	eligibilityPoints := 0.0
	if len(issues) > 0 {
		eligibilityPoints = float64(eligibleCount) / float64(len(issues)) * missEligibilityMax
	}

	card := scoring.NewScorecard()
	card.Add("missing_fields", d.params.WeightFields, fieldPoints, missFieldsMax)
	card.Add("data_recency", d.params.WeightRecency, recencyPoints, missRecencyMax)
	card.Add("regulatory_exposure", d.params.WeightRegulatory, regulatoryPoints, missRegulatoryMax)
	card.Add("remediation_eligible", d.params.WeightEligibility, eligibilityPoints, missEligibilityMax)

	alert := newAlert("ALT-"+p.ID+"-MISS", domain.AlertMissingInfo, in.AsOf)
	alert.PolicyID = p.ID
	alert.ClientAccountNumber = p.ClientAccountNumber
	alert.Title = "Missing Policy Information"
	alert.ReasonShort = "Administrative record incomplete or stale"
	finishScore(alert, card)

	alert.Severity = scoring.Review.Severity(alert.Score)
	switch {
	case criticalCount > 0:
		// A missing critical field is never LOW regardless of score, and a
		// stale critical gap is HIGH.
		if recencyPoints >= d.params.NeverPoints || alert.Score >= 60 {
			alert.Severity = domain.SeverityHigh
		} else if alert.Severity == domain.SeverityLow {
			alert.Severity = domain.SeverityMedium
		}
	case importantCount >= 2 && alert.Severity == domain.SeverityLow:
		alert.Severity = domain.SeverityMedium
	}

	// Confidence here reflects how directly the gap was observed: a present
	// non-financial block with holes is near-certain, a wholly absent block
	// slightly less so.
	if p.NonFinancial != nil {
		alert.Confidence = 0.92
	} else {
		alert.Confidence = 0.85
	}
	alert.DataPointsAnalyzed = 12

	for _, is := range issues {
		alert.FieldComparisons = append(alert.FieldComparisons, domain.FieldComparison{
			Field:              is.field,
			PolicyValue:        is.policyValue,
			ProfileValue:       is.profileValue,
			Priority:           is.priority,
			AutoUpdateEligible: is.autoEligible,
		})
		alert.Reasons = append(alert.Reasons, fmt.Sprintf("%s: %s", is.field, is.policyValue))
	}
	if recencyReason != "" {
		alert.Reasons = append(alert.Reasons, recencyReason)
	}
	if eligibleCount > 0 {
		alert.Reasons = append(alert.Reasons,
			fmt.Sprintf("%d of %d gaps eligible for automated update", eligibleCount, len(issues)))
	}

	return alert, nil
}

// audit walks the administrative fields and collects every gap. Beneficiary
// designations require forms; contact and withholding gaps are eligible for
// the automated update channel, pre-filled from the client profile when one
// exists.
func (d *MissingInfo) audit(p *domain.Policy, profile *domain.ClientProfile) []fieldIssue {
	nf := p.NonFinancial
	var issues []fieldIssue

	profileVal := func(get func(*domain.ClientProfile) string) string {
		if profile == nil {
			return ""
		}
		return get(profile)
	}

	if nf == nil || nf.PrimaryBeneficiary == nil || nf.PrimaryBeneficiary.Name == "" {
		issues = append(issues, fieldIssue{
			field:       "primary_beneficiary",
			points:      15,
			priority:    priorityCritical,
			policyValue: "not designated",
		})
	} else if !nf.PrimaryBeneficiary.Complete() {
		issues = append(issues, fieldIssue{
			field:       "primary_beneficiary",
			points:      10,
			priority:    priorityCritical,
			policyValue: "designated without SSN/DOB",
		})
	}

	if nf == nil || nf.ContingentBeneficiary == nil || nf.ContingentBeneficiary.Name == "" {
		issues = append(issues, fieldIssue{
			field:       "contingent_beneficiary",
			points:      2,
			priority:    priorityRoutine,
			policyValue: "not designated",
		})
	}

	if nf == nil || !nf.TaxWithholding.Elected() {
		issues = append(issues, fieldIssue{
			field:        "tax_withholding",
			points:       8,
			priority:     priorityImportant,
			policyValue:  "no election on file",
			autoEligible: true,
		})
	}

	contact := (*domain.ContactInfo)(nil)
	if nf != nil {
		contact = nf.ContactInfo
	}
	if contact == nil || contact.Email == "" {
		issues = append(issues, fieldIssue{
			field:        "email",
			points:       5,
			priority:     priorityImportant,
			policyValue:  "missing",
			profileValue: profileVal(func(c *domain.ClientProfile) string { return c.Email }),
			autoEligible: true,
		})
	}
	if contact == nil || contact.Address == "" {
		issues = append(issues, fieldIssue{
			field:        "address",
			points:       3,
			priority:     priorityImportant,
			policyValue:  "missing",
			profileValue: profileVal(func(c *domain.ClientProfile) string { return c.Address }),
			autoEligible: true,
		})
	}
	if contact == nil || contact.Phone == "" {
		issues = append(issues, fieldIssue{
			field:        "phone",
			points:       2,
			priority:     priorityRoutine,
			policyValue:  "missing",
			profileValue: profileVal(func(c *domain.ClientProfile) string { return c.Phone }),
			autoEligible: true,
		})
	}

	return issues
}

// recency scores how long the administrative record has gone unreviewed.
func (d *MissingInfo) recency(p *domain.Policy, in PolicyInput) (float64, string) {
	nf := p.NonFinancial
	if nf == nil || nf.LastUpdated == nil {
		return d.params.NeverPoints, "Non-financial data never reviewed"
	}
	years := in.AsOf.Sub(*nf.LastUpdated).Hours() / 24 / 365.25
	switch {
	case years < 0:
		// A future timestamp is unparseable in practice.
		return d.params.UnknownPoints, "Non-financial data review date invalid"
	case years > d.params.StaleYears:
		return d.params.StalePoints, fmt.Sprintf("Non-financial data not reviewed in over %s", plural(int(d.params.StaleYears), "year"))
	case years > d.params.AgingYears:
		return d.params.AgingPoints, fmt.Sprintf("Non-financial data not reviewed in over %s", plural(int(d.params.AgingYears), "year"))
	case years > d.params.RecentYears:
		return d.params.RecentPoints, fmt.Sprintf("Non-financial data last reviewed %.1f years ago", years)
	default:
		return 0, ""
	}
}
