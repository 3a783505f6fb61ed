package index

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/bankrec/pkg/compare"
	"github.com/yurifrl/bankrec/pkg/models"
)

// Filter selects index entries. Zero fields match everything.
type Filter struct {
	Start        models.Date
	End          models.Date
	Min          *decimal.Decimal
	Max          *decimal.Decimal
	Counterparty string // case-insensitive substring of the payee
}

// Match reports whether e passes every set criterion. Entries without a date
// or an amount fail the corresponding bounded criterion.
func (f Filter) Match(e *models.IndexEntry) bool {
	if !compare.InRange(e.SettlementDate(), f.Start, f.End) {
		return false
	}
	if f.Min != nil && (e.Amount == nil || e.Amount.LessThan(*f.Min)) {
		return false
	}
	if f.Max != nil && (e.Amount == nil || e.Amount.GreaterThan(*f.Max)) {
		return false
	}
	if f.Counterparty != "" && !strings.Contains(strings.ToLower(e.Payee()), strings.ToLower(f.Counterparty)) {
		return false
	}
	return true
}

// Apply returns the entries accepted by f, in order.
func (f Filter) Apply(entries []models.IndexEntry) []models.IndexEntry {
	out := make([]models.IndexEntry, 0, len(entries))
	for i := range entries {
		if f.Match(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// ParseFilter builds a Filter from textual bounds as they arrive from flags
// or query strings. Empty values leave the criterion unset. Dates are
// YYYY-MM-DD.
func ParseFilter(start, end, minAmount, maxAmount, counterparty string) (Filter, error) {
	f := Filter{Counterparty: strings.TrimSpace(counterparty)}
	var err error
	if start != "" {
		if f.Start, err = models.ParseDate(start); err != nil {
			return Filter{}, fmt.Errorf("start: %w", err)
		}
	}
	if end != "" {
		if f.End, err = models.ParseDate(end); err != nil {
			return Filter{}, fmt.Errorf("end: %w", err)
		}
	}
	if minAmount != "" {
		d, err := decimal.NewFromString(minAmount)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid minimum amount %q: %w", minAmount, err)
		}
		f.Min = &d
	}
	if maxAmount != "" {
		d, err := decimal.NewFromString(maxAmount)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid maximum amount %q: %w", maxAmount, err)
		}
		f.Max = &d
	}
	return f, nil
}
