package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a currency string like "$1,234.50" into a decimal,
// stripping currency symbols and thousand separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}
	return d, nil
}

// ParseScheduleDate parses the M/D/YYYY column used by driver schedules.
func ParseScheduleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("1/2/2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule date '%s': %w", s, err)
	}
	return t, nil
}

// ParseStatementDate combines the month-abbrev/day pair that statement
// lines carry with the year taken from the statement period header.
func ParseStatementDate(monthAbbrev, day string, year int) (time.Time, error) {
	if year == 0 {
		return time.Time{}, fmt.Errorf("statement year is unknown")
	}
	t, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %d", monthAbbrev, strings.TrimLeft(day, "0"), year))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid statement date '%s %s': %w", monthAbbrev, day, err)
	}
	return t, nil
}

// ParseRemittanceDate parses dates of the form "Jan 2, 2006" used in
// payment remittance headers.
func ParseRemittanceDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range []string{"Jan 2, 2006", "January 2, 2006"} {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid remittance date '%s'", s)
}

// DateDistanceDays returns the absolute whole-day distance between two
// dates, ignoring time-of-day.
func DateDistanceDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	diff := da.Sub(db)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// AmountsWithinTolerance compares two decimal amounts with a tolerance.
func AmountsWithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
