package billing

import (
	"fmt"
	"time"
)

// Period identifies one calendar month, the billing granularity.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses the canonical "2006-01" form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// Start returns the first instant of the period in the given location.
func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}

// End returns the first instant of the following period. The period covers
// [Start, End).
func (p Period) End(loc *time.Location) time.Time {
	return p.Next().Start(loc)
}

// DueDate is the moment rent for the period falls due: the start of the next
// period.
func (p Period) DueDate(loc *time.Location) time.Time {
	return p.End(loc)
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// AddMonths returns the period n months after p; n may be negative.
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start(time.UTC).AddDate(0, n, 0))
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// After reports whether p is strictly later than other.
func (p Period) After(other Period) bool {
	return other.Before(p)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label returns the human form used in notification messages, e.g. "June 2024".
func (p Period) Label() string {
	return p.Start(time.UTC).Format("January 2006")
}
