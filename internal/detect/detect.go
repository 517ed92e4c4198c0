// Package detect implements the five alert detector families. Every
// detector is a pure function of its inputs: it reads one entity's records
// plus shared reference data and emits zero or one alert with a full
// explainability payload.
package detect

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/annuityworks/kestrel/internal/domain"
	"github.com/annuityworks/kestrel/internal/scoring"
)

// AlgorithmVersion tags every alert with the ruleset that produced it, so
// historical alerts remain attributable after threshold tuning.
const AlgorithmVersion = "1.0.0"

// ErrMissingSnapshot marks a detector whose mandatory comparison input is
// absent (e.g. no issue-time suitability snapshot for a drift check). The
// orchestrator skips the detector for that entity and continues.
var ErrMissingSnapshot = errors.New("required snapshot not available")

// PolicyInput carries one policy entity and its (possibly absent) client
// profile into the policy-level detectors.
type PolicyInput struct {
	Policy  *domain.Policy
	Profile *domain.ClientProfile // nil when the client is unknown
	AsOf    time.Time
}

// PortfolioInput carries one client portfolio into the acquisition
// detectors.
type PortfolioInput struct {
	Portfolio *domain.Portfolio
	Profile   *domain.ClientProfile
	AsOf      time.Time
}

// newAlert stamps the fields every alert shares.
func newAlert(id string, typ domain.AlertType, asOf time.Time) *domain.Alert {
	return &domain.Alert{
		ID:               id,
		Type:             typ,
		GeneratedAt:      asOf,
		AlgorithmVersion: AlgorithmVersion,
	}
}

// finishScore copies a scorecard's rounded total and breakdown onto an
// alert. The published breakdown sums exactly to the published score.
func finishScore(a *domain.Alert, card *scoring.Scorecard) {
	a.Score = card.RoundedTotal()
	a.Breakdown = card.Components()
}

// acquisitionConfidence maps an acquisition score and the dollar amount at
// stake into the family's 0.70-0.95 confidence band; larger, more certain
// amounts push confidence up.
func acquisitionConfidence(score, amount float64) float64 {
	conf := 0.70 + score/400 + math.Min(0.05, amount/2_000_000*0.05)
	return scoring.Clamp(conf, 0.70, 0.95)
}

// accountSuffix strips separators from a client account number for use in
// deterministic alert identifiers.
func accountSuffix(account string) string {
	return strings.ReplaceAll(account, "-", "")
}

// usd formats a dollar amount with thousands separators, no cents.
func usd(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

// pct formats a rate in percentage points with up to one decimal.
func pct(points float64) string {
	return strconv.FormatFloat(math.Round(points*10)/10, 'f', -1, 64) + "%"
}

// pctOfFrac formats a fractional rate (0.055) as percentage points (5.5%).
func pctOfFrac(frac float64) string {
	return pct(frac * 100)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
