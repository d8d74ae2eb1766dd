package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the sampling cadence of a series. It is always supplied by the
// caller; the library never guesses it.
type Frequency string

const (
	Hourly       Frequency = "H"
	Daily        Frequency = "D"
	Weekly       Frequency = "W"
	MonthStart   Frequency = "MS"
	MonthEnd     Frequency = "ME"
	QuarterStart Frequency = "QS"
	YearStart    Frequency = "YS"
)

// ParseFrequency accepts the short codes above (case-insensitive) plus a few long names.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H", "HOURLY":
		return Hourly, nil
	case "D", "DAILY":
		return Daily, nil
	case "W", "WEEKLY":
		return Weekly, nil
	case "MS", "MONTHLY":
		return MonthStart, nil
	case "ME", "M":
		return MonthEnd, nil
	case "QS", "QUARTERLY":
		return QuarterStart, nil
	case "YS", "Y", "YEARLY":
		return YearStart, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Hourly, Daily, Weekly, MonthStart, MonthEnd, QuarterStart, YearStart:
		return true
	}
	return false
}

// PeriodsPerYear is the number of observations in one yearly cycle, rounded.
// It returns 0 for unknown frequencies.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Hourly:
		return 8766
	case Daily:
		return 365
	case Weekly:
		return 52
	case MonthStart, MonthEnd:
		return 12
	case QuarterStart:
		return 4
	case YearStart:
		return 1
	}
	return 0
}

// Step returns the n-th grid point after from. Step(from, 0) is from itself.
//
// Calendar frequencies snap to their anchor: MonthStart steps land on the first
// day of the month, MonthEnd on the last, QuarterStart on the first day of a
// quarter, YearStart on January 1st. The clock time of from is preserved.
func (f Frequency) Step(from time.Time, n int) time.Time {
	if n == 0 {
		return from
	}
	y, m, d := from.Date()
	hh, mm, ss := from.Clock()
	ns := from.Nanosecond()
	loc := from.Location()

	switch f {
	case Hourly:
		return from.Add(time.Duration(n) * time.Hour)
	case Daily:
		return from.AddDate(0, 0, n)
	case Weekly:
		return from.AddDate(0, 0, 7*n)
	case MonthStart:
		return time.Date(y, m+time.Month(n), 1, hh, mm, ss, ns, loc)
	case MonthEnd:
		// day 0 of the following month is the last day of the target month
		if d == daysIn(y, m) {
			return time.Date(y, m+time.Month(n)+1, 0, hh, mm, ss, ns, loc)
		}
		return time.Date(y, m+time.Month(n), 0, hh, mm, ss, ns, loc)
	case QuarterStart:
		q := (int(m) - 1) / 3
		return time.Date(y, time.Month(3*(q+n)+1), 1, hh, mm, ss, ns, loc)
	case YearStart:
		return time.Date(y+n, time.January, 1, hh, mm, ss, ns, loc)
	}
	return from
}

// Grid returns the periods timestamps following from.
func (f Frequency) Grid(from time.Time, periods int) []time.Time {
	if periods <= 0 {
		return nil
	}
	out := make([]time.Time, periods)
	for i := range out {
		out[i] = f.Step(from, i+1)
	}
	return out
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
