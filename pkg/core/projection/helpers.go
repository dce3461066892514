package projection

import (
	"math"
	"strconv"
	"time"
)

// Rounding precisions for emitted rows
const (
	moneyPlaces  = 2
	marginPlaces = 4
)

// Float returns a pointer to f, handy for building Assumptions literals.
func Float(f float64) *float64 { return &f }

// round rounds the exact binary value of x to the given number of decimals,
// ties to even. Non-finite values pass through unchanged.
func round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// maxOf returns b only when it is strictly greater than a, so a NaN in b
// keeps a.
func maxOf(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}

// monthStart normalizes t to the first day of its month (UTC).
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// addMonths advances t by n calendar months and normalizes to the first of the month.
// time.Date handles the year rollover.
func addMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// FormatMonth renders a month label as YYYY-MM.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01")
}
