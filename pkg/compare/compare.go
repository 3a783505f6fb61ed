// Package compare holds the amount and date comparisons shared by the
// matcher and the index filters. Amounts are decimals so equality within a
// tolerance never depends on floating-point rounding.
package compare

import (
	"github.com/shopspring/decimal"

	"github.com/yurifrl/bankrec/pkg/models"
)

// AmountWithin reports whether |a − b| ≤ tolerance.
func AmountWithin(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// EntryAmountWithin compares a possibly unknown entry amount with target.
// Entries without an amount never match.
func EntryAmountWithin(amount *decimal.Decimal, target, tolerance decimal.Decimal) bool {
	if amount == nil {
		return false
	}
	return AmountWithin(*amount, target, tolerance)
}

// DaysBetween returns the absolute distance in days between a and b, or nil
// when either date is unknown.
func DaysBetween(a, b *models.Date) *int {
	if a == nil || b == nil {
		return nil
	}
	days := a.DaysUntil(*b)
	if days < 0 {
		days = -days
	}
	return &days
}

// InRange reports whether d lies within [start, end]. Zero bounds are open.
// Unknown dates are outside every bounded range.
func InRange(d *models.Date, start, end models.Date) bool {
	if start.IsZero() && end.IsZero() {
		return true
	}
	if d == nil {
		return false
	}
	if !start.IsZero() && d.Before(start.Time) {
		return false
	}
	if !end.IsZero() && d.After(end.Time) {
		return false
	}
	return true
}
