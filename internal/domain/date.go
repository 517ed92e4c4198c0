package domain

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date that marshals as "2006-01-02". Input snapshots
// carry plain dates for issue/maturity/surrender fields; RFC 3339 timestamps
// are accepted on unmarshal for tolerance.
type Date struct {
	time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// String formats the date as "2006-01-02".
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// DaysUntil returns whole days from asOf to the date (negative if past).
func (d Date) DaysUntil(asOf time.Time) int {
	return int(d.Sub(asOf).Hours() / 24)
}

// YearsUntil returns fractional years from asOf to the date.
func (d Date) YearsUntil(asOf time.Time) float64 {
	return d.Sub(asOf).Hours() / 24 / 365.25
}

// YearsSince returns fractional years from the date to asOf.
func (d Date) YearsSince(asOf time.Time) float64 {
	return asOf.Sub(d.Time).Hours() / 24 / 365.25
}
