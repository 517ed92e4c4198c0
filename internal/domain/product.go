package domain

import "strings"

// PayoutTier is one row of an income rider's payout-by-age table.
type PayoutTier struct {
	MinAge int     `json:"minAge" mapstructure:"min_age"`
	Rate   float64 `json:"rate" mapstructure:"rate"`
}

// RiderOption is a rider available on a catalog product.
type RiderOption struct {
	Name        string       `json:"riderName"`
	Type        string       `json:"riderType"`
	AnnualFee   float64      `json:"annualFee"`
	RollupRate  float64      `json:"rollupRate,omitempty"`
	PayoutByAge []PayoutTier `json:"payoutByAge,omitempty"`
	Features    []string     `json:"features,omitempty"`
}

// PayoutRateAt returns the payout rate for the given age from the rider's
// tier table (the highest tier whose MinAge is satisfied), or 0 when the
// table is empty or the age is below every tier.
func (r *RiderOption) PayoutRateAt(age int) float64 {
	rate := 0.0
	for _, tier := range r.PayoutByAge {
		if age >= tier.MinAge && tier.Rate > rate {
			rate = tier.Rate
		}
	}
	return rate
}

// IndexOption is one index crediting strategy on an FIA product.
type IndexOption struct {
	IndexName  string  `json:"indexName"`
	Strategy   string  `json:"strategy"`
	CurrentCap float64 `json:"currentCap"`
	Floor      float64 `json:"floor"`
}

// ProductFees is a catalog product's fee structure, in percentage points.
type ProductFees struct {
	MEFee    float64 `json:"meFee"`
	AdminFee float64 `json:"administrativeFee"`
}

// Total returns combined annual fees in percentage points.
func (f ProductFees) Total() float64 {
	return f.MEFee + f.AdminFee
}

// Product is one candidate replacement/acquisition product in the catalog.
// Read-only reference data, not entity-specific.
type Product struct {
	ID               string        `json:"productId"`
	Carrier          string        `json:"carrier"`
	CarrierRating    string        `json:"carrierRating,omitempty"`
	Name             string        `json:"productName"`
	Type             string        `json:"productType"`
	AvailableStates  []string      `json:"availableStates"`
	IndexOptions     []IndexOption `json:"indexOptions,omitempty"`
	CurrentFixedRate *float64      `json:"currentFixedRate"`
	Fees             ProductFees   `json:"fees"`
	Riders           []RiderOption `json:"availableRiders,omitempty"`

	SurrenderYears int      `json:"surrenderYears"`
	MinPremium     float64  `json:"minimumPremium"`
	MaxPremium     *float64 `json:"maximumPremium"`
	AgeMin         int      `json:"ageMin"`
	AgeMax         int      `json:"ageMax"`

	BonusRate            *float64 `json:"bonusRate"`
	DeathBenefitFeatures []string `json:"deathBenefitFeatures,omitempty"`
	LiquidityFeatures    []string `json:"liquidityFeatures,omitempty"`
	SuitableFor          []string `json:"suitableFor,omitempty"`
	RiskProfile          string   `json:"riskProfile,omitempty"`
}

// BestCapRate returns the highest cap across the product's index options,
// falling back to the fixed rate for fixed products.
func (p *Product) BestCapRate() float64 {
	best := 0.0
	for _, opt := range p.IndexOptions {
		if opt.CurrentCap > best {
			best = opt.CurrentCap
		}
	}
	if best == 0 && p.CurrentFixedRate != nil {
		best = *p.CurrentFixedRate
	}
	return best
}

// IncomeRider returns the product's income rider, if any.
func (p *Product) IncomeRider() *RiderOption {
	for i := range p.Riders {
		if strings.Contains(strings.ToLower(p.Riders[i].Type), "income") {
			return &p.Riders[i]
		}
	}
	return nil
}

// AvailableIn reports state availability; an empty state list means
// nationwide availability.
func (p *Product) AvailableIn(state string) bool {
	if len(p.AvailableStates) == 0 {
		return true
	}
	for _, s := range p.AvailableStates {
		if s == state {
			return true
		}
	}
	return false
}

// SuitableForObjective reports whether the product is tagged for the given
// investment objective.
func (p *Product) SuitableForObjective(objective string) bool {
	for _, o := range p.SuitableFor {
		if o == objective {
			return true
		}
	}
	return false
}
