package domain

import (
	"strings"
	"time"
)

// Beneficiary is a beneficiary designation on a policy of record.
type Beneficiary struct {
	Name              string  `json:"name,omitempty"`
	Relationship      string  `json:"relationship,omitempty"`
	SSN               string  `json:"ssn,omitempty"`
	DateOfBirth       string  `json:"dateOfBirth,omitempty"`
	AllocationPercent float64 `json:"allocationPercent,omitempty"`
}

// Complete reports whether the designation carries the identifying details
// regulators expect (SSN and date of birth).
func (b *Beneficiary) Complete() bool {
	return b != nil && b.SSN != "" && b.DateOfBirth != ""
}

// TaxWithholding holds federal/state withholding elections. Nil percentages
// mean the election was never made.
type TaxWithholding struct {
	Federal *float64 `json:"federal"`
	State   *float64 `json:"state"`
}

// Elected reports whether any withholding election exists.
func (t *TaxWithholding) Elected() bool {
	return t != nil && (t.Federal != nil || t.State != nil)
}

// ContactInfo is the owner contact data on file with the carrier.
type ContactInfo struct {
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// NonFinancialData groups the administrative fields updatable through the
// external administrative channel.
type NonFinancialData struct {
	OwnerName             string          `json:"ownerName,omitempty"`
	OwnerSSN              string          `json:"ownerSSN,omitempty"`
	PrimaryBeneficiary    *Beneficiary    `json:"primaryBeneficiary"`
	ContingentBeneficiary *Beneficiary    `json:"contingentBeneficiary"`
	ContactInfo           *ContactInfo    `json:"contactInfo"`
	TaxWithholding        *TaxWithholding `json:"taxWithholding"`
	LastUpdated           *time.Time      `json:"lastUpdated"`
}

// PolicyFees is the in-force fee structure, in percentage points.
type PolicyFees struct {
	MEFee    float64 `json:"meFee"`
	RiderFee float64 `json:"riderFee"`
}

// Total returns combined annual fees in percentage points.
func (f PolicyFees) Total() float64 {
	return f.MEFee + f.RiderFee
}

// Policy is one in-force contract, owned by the external policy-of-record
// system. The engine only reads it; a policy is immutable within a batch run.
type Policy struct {
	ID                  string `json:"policyId"`
	ClientAccountNumber string `json:"clientAccountNumber"`
	Label               string `json:"policyLabel"`
	Carrier             string `json:"carrier"`
	ProductType         string `json:"productType"`
	IssueDate           Date   `json:"issueDate"`
	ApplicationState    string `json:"applicationState"`

	AccountValue   float64  `json:"accountValue"`
	CurrentCapRate *float64 `json:"currentCapRate"`
	RenewalCapRate *float64 `json:"renewalCapRate"`

	SurrenderScheduleYears int     `json:"surrenderScheduleYears"`
	SurrenderEndDate       Date    `json:"surrenderEndDate"`
	SurrenderChargePct     float64 `json:"surrenderChargePct"`

	RiderType       string   `json:"riderType"`
	RiderRollupRate float64  `json:"riderRollupRate,omitempty"`
	IncomeBase      *float64 `json:"incomeBase"`
	IncomeActivated bool     `json:"incomeActivated"`

	Fees         PolicyFees        `json:"fees"`
	NonFinancial *NonFinancialData `json:"nonFinancialData"`
	Notes        string            `json:"notes,omitempty"`
}

// HasIncomeRider reports whether the policy carries a living-income rider.
func (p *Policy) HasIncomeRider() bool {
	return strings.Contains(strings.ToLower(p.RiderType), "income") || p.IncomeBase != nil
}

// YearsToSurrenderEnd returns fractional years until the surrender schedule
// ends, measured from asOf. Negative means the schedule already ended.
func (p *Policy) YearsToSurrenderEnd(asOf time.Time) float64 {
	return p.SurrenderEndDate.YearsUntil(asOf)
}

// PolicyAge returns fractional years since issue.
func (p *Policy) PolicyAge(asOf time.Time) float64 {
	return p.IssueDate.YearsSince(asOf)
}
