package domain

import "time"

// Risk tolerance levels, ordered. Drift math measures how many levels a
// client has shifted.
var riskLevels = map[string]int{
	"Conservative": 1,
	"Moderate":     2,
	"Aggressive":   3,
}

// RiskLevel maps a tolerance label to its ordinal (0 for unknown labels).
func RiskLevel(tolerance string) int {
	return riskLevels[tolerance]
}

// Suitability is one point-in-time suitability snapshot for a client.
type Suitability struct {
	Age                  int     `json:"age"`
	State                string  `json:"state"`
	LifeStage            string  `json:"lifeStage"`
	MaritalStatus        string  `json:"maritalStatus,omitempty"`
	Dependents           int     `json:"dependents"`
	RiskTolerance        string  `json:"riskTolerance"`
	PrimaryObjective     string  `json:"primaryObjective"`
	SecondaryObjective   string  `json:"secondaryObjective,omitempty"`
	TimeHorizonYears     int     `json:"timeHorizonYears"`
	LiquidityImportance  string  `json:"liquidityImportance"`
	CurrentIncomeNeed    string  `json:"currentIncomeNeed"`
	IncomeNeedDate       *Date   `json:"incomeNeedDate"`
	AnnualIncomeRange    string  `json:"annualIncomeRange,omitempty"`
	AnnualIncome         float64 `json:"annualIncome"`
	NetWorthRange        string  `json:"netWorthRange,omitempty"`
	NetWorth             float64 `json:"netWorth"`
	TaxBracketPct        float64 `json:"taxBracketPct"`
	RetirementTargetYear int     `json:"retirementTargetYear,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// NeedsIncomeSoon reports whether the client's stated income need is
// immediate or near-term.
func (s *Suitability) NeedsIncomeSoon() bool {
	return s.CurrentIncomeNeed == "Now" || s.CurrentIncomeNeed == "Soon"
}

// ClientProfile pairs a client with its current suitability snapshot and,
// when captured at policy issuance, the original snapshot used for drift
// comparison. Owned externally; read-only input.
type ClientProfile struct {
	AccountNumber string `json:"clientAccountNumber"`
	Name          string `json:"clientName"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`

	Current  Suitability  `json:"clientSuitabilityProfile"`
	Original *Suitability `json:"originalSuitabilityProfile"`
}
