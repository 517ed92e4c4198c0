package domain

// AssetClass categorizes a holding.
type AssetClass string

const (
	AssetEquity       AssetClass = "EQUITY"
	AssetFixedIncome  AssetClass = "FIXED_INCOME"
	AssetCash         AssetClass = "CASH"
	AssetAnnuity      AssetClass = "ANNUITY"
	AssetAlternatives AssetClass = "ALTERNATIVES"
	AssetRealEstate   AssetClass = "REAL_ESTATE"
)

// AccountType determines a holding's tax treatment.
type AccountType string

const (
	AccountTaxable         AccountType = "TAXABLE"
	AccountIRA             AccountType = "IRA"
	AccountRothIRA         AccountType = "ROTH_IRA"
	AccountTraditional401K AccountType = "TRADITIONAL_401K"
	AccountRoth401K        AccountType = "ROTH_401K"
	AccountSEPIRA          AccountType = "SEP_IRA"
	AccountInheritedIRA    AccountType = "INHERITED_IRA"
)

// Qualified reports whether the account type is tax-qualified.
func (a AccountType) Qualified() bool {
	return a != AccountTaxable
}

// Position is one holding in a client portfolio snapshot.
type Position struct {
	ID           string      `json:"positionId"`
	AssetClass   AssetClass  `json:"assetClass"`
	AccountType  AccountType `json:"accountType"`
	Symbol       string      `json:"symbol,omitempty"`
	Description  string      `json:"description"`
	MarketValue  float64     `json:"marketValue"`
	CostBasis    *float64    `json:"costBasis"`
	CurrentYield *float64    `json:"currentYield"`
	CurrentRate  *float64    `json:"currentRate"`
	MaturityDate *Date       `json:"maturityDate"`
}

// PortfolioSummary is the precomputed allocation view of a portfolio.
// Allocations are fractions of total portfolio value (0.00-1.00).
type PortfolioSummary struct {
	EquityAllocation      float64 `json:"equityAllocation"`
	FixedIncomeAllocation float64 `json:"fixedIncomeAllocation"`
	CashAllocation        float64 `json:"cashAllocation"`
	AnnuityAllocation     float64 `json:"annuityAllocation"`
	TaxableValue          float64 `json:"taxableValue"`
	QualifiedValue        float64 `json:"qualifiedValue"`
	TotalCash             float64 `json:"totalCash"`
	TotalEquities         float64 `json:"totalEquities"`
	TotalFixedIncome      float64 `json:"totalFixedIncome"`
	TotalAnnuities        float64 `json:"totalAnnuities"`
}

// Portfolio is a per-client position snapshot. Read-only input to the
// acquisition detectors.
type Portfolio struct {
	ClientAccountNumber string           `json:"clientAccountNumber"`
	AsOfDate            Date             `json:"asOfDate"`
	TotalValue          float64          `json:"totalPortfolioValue"`
	Positions           []Position       `json:"positions"`
	Summary             PortfolioSummary `json:"summary"`
}
