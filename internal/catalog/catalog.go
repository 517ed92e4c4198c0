// Package catalog indexes the product catalog and matches candidate
// replacement products to a policy and client profile.
package catalog

import (
	"sort"

	"github.com/annuityworks/kestrel/internal/domain"
)

// Catalog holds the read-only product reference data for one batch run.
type Catalog struct {
	products []domain.Product
}

// New builds a catalog over the given products.
func New(products []domain.Product) *Catalog {
	return &Catalog{products: products}
}

// Size returns the number of catalog entries.
func (c *Catalog) Size() int {
	return len(c.products)
}

// Match is a ranked candidate product.
type Match struct {
	Product *domain.Product
	Score   float64
}

// FindAlternatives returns up to max candidate products of the same product
// type, ranked by suitability fit against the policy and profile. Products
// unavailable in the policy's application state are excluded.
func (c *Catalog) FindAlternatives(p *domain.Policy, s *domain.Suitability, max int) []Match {
	var matches []Match
	for i := range c.products {
		prod := &c.products[i]
		if prod.Type != p.ProductType {
			continue
		}
		if !prod.AvailableIn(p.ApplicationState) {
			continue
		}
		matches = append(matches, Match{Product: prod, Score: c.score(prod, p, s)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Product.ID < matches[j].Product.ID
	})
	if len(matches) > max {
		matches = matches[:max]
	}
	return matches
}

// BestAlternative returns the top-ranked candidate, or nil when the catalog
// offers nothing for this policy's type and state.
func (c *Catalog) BestAlternative(p *domain.Policy, s *domain.Suitability) *Match {
	matches := c.FindAlternatives(p, s, 1)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// score ranks a product for a policy and profile. Higher is better.
func (c *Catalog) score(prod *domain.Product, p *domain.Policy, s *domain.Suitability) float64 {
	score := 0.0

	if s != nil {
		if prod.SuitableForObjective(s.PrimaryObjective) {
			score += 30
		} else if prod.SuitableForObjective(s.SecondaryObjective) {
			score += 15
		}
		if prod.RiskProfile == s.RiskTolerance {
			score += 20
		}
		if prod.AgeMin <= s.Age && s.Age <= prod.AgeMax {
			score += 5
		}
	}

	// Reward rate improvement over the in-force contract.
	current := 0.0
	if p.RenewalCapRate != nil {
		current = *p.RenewalCapRate
	} else if p.CurrentCapRate != nil {
		current = *p.CurrentCapRate
	}
	if best := prod.BestCapRate(); best > current {
		score += (best - current) * 5
	}

	if prod.SurrenderYears < p.SurrenderScheduleYears {
		score += 15
	}
	if prod.BonusRate != nil {
		score += *prod.BonusRate * 2
	}
	if p.AccountValue >= prod.MinPremium &&
		(prod.MaxPremium == nil || p.AccountValue <= *prod.MaxPremium) {
		score += 5
	}

	return score
}

// FeeDifferential returns the in-force fee total minus the product's fee
// total, in percentage points. Positive means the alternative is cheaper.
func FeeDifferential(p *domain.Policy, prod *domain.Product) float64 {
	return p.Fees.Total() - prod.Fees.Total()
}
