package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod indicates a year/month pair outside the accepted range.
var ErrInvalidPeriod = errors.New("period invalid")

const (
	minPeriodYear = 2000
	maxPeriodYear = 2100
)

// Period identifies one reporting month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewPeriod validates and builds a Period.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	if year < minPeriodYear || year > maxPeriodYear {
		return Period{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return Period{Year: year, Month: month}, nil
}

// PeriodOf returns the period containing t (UTC).
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Previous returns the month before p, wrapping January to December of the prior year.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Shift moves the period by n months (negative n goes back in time).
func (p Period) Shift(n int) Period {
	idx := p.Year*12 + (p.Month - 1) + n
	return Period{Year: idx / 12, Month: idx%12 + 1}
}

// Before reports whether p is chronologically earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// FirstDay returns the first calendar day of the period.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last calendar day of the period.
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

// Trailing lists the n periods ending at p, oldest first.
func (p Period) Trailing(n int) []Period {
	if n <= 0 {
		return nil
	}
	periods := make([]Period, n)
	for i := 0; i < n; i++ {
		periods[i] = p.Shift(i - (n - 1))
	}
	return periods
}
