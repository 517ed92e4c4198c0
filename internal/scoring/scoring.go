// Package scoring provides the aggregation law shared by every detector
// family: a score is the sum of weighted category contributions, weights per
// family sum to 1.0, and severity and confidence are pure functions of the
// resulting score.
package scoring

import (
	"fmt"
	"math"

	"github.com/annuityworks/kestrel/internal/domain"
)

// WeightTolerance bounds how far a family's weights may drift from 1.0
// before configuration is rejected.
const WeightTolerance = 1e-9

// Breakpoints maps scores to severities. Scores above High are HIGH, above
// Medium are MEDIUM, otherwise LOW.
type Breakpoints struct {
	High   float64
	Medium float64
}

// Standard breakpoints: the 75/60 pair shared by the replacement, income and
// acquisition families, and the 75/50 pair used by the review-oriented drift
// and missing-info families.
var (
	Standard = Breakpoints{High: 75, Medium: 60}
	Review   = Breakpoints{High: 75, Medium: 50}
)

// Severity maps a score to its tier. Monotonically non-decreasing in score.
func (b Breakpoints) Severity(score float64) domain.Severity {
	switch {
	case score >= b.High:
		return domain.SeverityHigh
	case score >= b.Medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// Validate rejects inconsistent breakpoint pairs.
func (b Breakpoints) Validate() error {
	if b.High <= b.Medium {
		return fmt.Errorf("breakpoints inconsistent: high %.2f must exceed medium %.2f", b.High, b.Medium)
	}
	return nil
}

// Confidence is the shared completeness-based confidence mapping. It reflects
// input completeness, not statistical certainty; detectors operating on
// partial records additionally cap their achievable score.
func Confidence(score float64) float64 {
	switch {
	case score >= 75:
		return math.Min(0.95, 0.85+(score-75)*0.01)
	case score >= 60:
		return 0.75 + (score-60)*0.01
	default:
		return 0.65
	}
}

// Clamp saturates v into [lo, hi]. Scoring never raises on out-of-range
// numeric inputs.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Clamp01 saturates v into [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// ValidateWeights checks that a family's category weights sum to 1.0 within
// tolerance. Failing this is fatal at startup: a bad weight table would
// silently corrupt every score in the family.
func ValidateWeights(family string, weights map[string]float64) error {
	sum := 0.0
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("family %s: weight %s is negative (%.4f)", family, name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("family %s: weights sum to %.12f, want 1.0", family, sum)
	}
	return nil
}

// Scorecard accumulates weighted category contributions for one alert.
// Each category's points are clamped to its documented maximum; category
// maxima per family sum to at most the family scale, so the total is always
// the exact sum of the breakdown.
type Scorecard struct {
	components []domain.Contribution
}

// NewScorecard returns an empty scorecard.
func NewScorecard() *Scorecard {
	return &Scorecard{}
}

// Add records one category. points is clamped into [0, max].
func (s *Scorecard) Add(category string, weight, points, max float64) {
	s.components = append(s.components, domain.Contribution{
		Category: category,
		Weight:   weight,
		Points:   Clamp(points, 0, max),
		Max:      max,
	})
}

// Total returns the sum of category contributions.
func (s *Scorecard) Total() float64 {
	total := 0.0
	for _, c := range s.components {
		total += c.Points
	}
	return total
}

// ScaleTo proportionally rescales every component so the total equals cap,
// preserving the breakdown-sums-to-total invariant. Used by degraded paths
// that cap the achievable score (e.g. scoring without a suitability
// profile). No-op when the total is already within the cap.
func (s *Scorecard) ScaleTo(cap float64) {
	total := s.Total()
	if total <= cap || total == 0 {
		return
	}
	factor := cap / total
	for i := range s.components {
		s.components[i].Points = round1(s.components[i].Points * factor)
	}
	// Absorb rounding drift into the largest component.
	if diff := cap - s.Total(); diff != 0 {
		largest := 0
		for i := range s.components {
			if s.components[i].Points > s.components[largest].Points {
				largest = i
			}
		}
		s.components[largest].Points = round1(s.components[largest].Points + diff)
	}
}

// Components returns the breakdown in insertion order, points rounded to one
// decimal for stable serialization.
func (s *Scorecard) Components() []domain.Contribution {
	out := make([]domain.Contribution, len(s.components))
	for i, c := range s.components {
		c.Points = round1(c.Points)
		out[i] = c
	}
	return out
}

// RoundedTotal returns the total over the rounded components, which is what
// an alert reports so the published breakdown sums exactly to the published
// score.
func (s *Scorecard) RoundedTotal() float64 {
	total := 0.0
	for _, c := range s.Components() {
		total += c.Points
	}
	return round1(total)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
