// Package matcher ranks index entries that may settle an invoice.
//
// A candidate must match a target amount within 0.001 and, when both dates
// are known, lie within the configured window (120 days by default) of the
// invoice date. Candidates are ordered by date distance, then reference
// score, then name score.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	candidates, err := m.Match(&invoice, idx.Operations)
//	if len(candidates) > 0 {
//		best := candidates[0]
//	}
package matcher

import (
	"fmt"
	"sort"

	"github.com/yurifrl/bankrec/pkg/compare"
	"github.com/yurifrl/bankrec/pkg/models"
)

// Matcher matches invoices with index entries
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// Match returns up to MaxCandidates ranked candidates for inv. No candidates
// is an empty slice, not an error; only an invoice without an amount fails.
func (m *Matcher) Match(inv *models.Invoice, entries []models.IndexEntry) ([]models.MatchCandidate, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: nil invoice", ErrInvalidInvoice)
	}
	if inv.Amount.IsZero() {
		return nil, fmt.Errorf("%w: %s has no amount", ErrInvalidInvoice, inv.Label())
	}

	invoiceDate := inv.ReferenceDate()
	selected := make(map[int]bool)
	result := make([]models.MatchCandidate, 0)

	for _, tgt := range m.targets(inv) {
		candidates := make([]models.MatchCandidate, 0)
		positions := make(map[*models.IndexEntry]int)

		for i := range entries {
			entry := &entries[i]
			if !compare.EntryAmountWithin(entry.Amount, tgt.value, m.config.AmountTolerance) {
				continue
			}
			days := compare.DaysBetween(entry.SettlementDate(), invoiceDate)
			if days != nil && *days > m.config.WindowDays {
				continue
			}

			c := models.MatchCandidate{
				TargetLabel: tgt.label,
				Entry:       entry,
				DaysDiff:    days,
				RefScore:    RefScore(inv.Number, entry),
				NameScore:   NameScore(inv.ClientName, entry.Counterparty.Name),
			}
			c.Confidence = Confidence(ScoreInput{
				DaysDiff:    c.DaysDiff,
				RefScore:    c.RefScore,
				NameScore:   c.NameScore,
				TargetLabel: c.TargetLabel,
			})
			positions[entry] = i
			candidates = append(candidates, c)
		}

		rank(candidates)

		// Skip entries already selected for a higher-priority target
		for _, c := range candidates {
			pos := positions[c.Entry]
			if selected[pos] {
				continue
			}
			selected[pos] = true
			result = append(result, c)
		}
	}

	if m.config.MaxCandidates > 0 && len(result) > m.config.MaxCandidates {
		result = result[:m.config.MaxCandidates]
	}
	return result, nil
}

// targets lists the amounts inv may have been paid with: always the full
// amount, plus the part already paid when it is significant.
func (m *Matcher) targets(inv *models.Invoice) []target {
	out := []target{{label: TargetInvoiceAmount, value: inv.Amount}}
	paid := inv.Amount.Sub(inv.Balance)
	if paid.GreaterThan(m.config.PartialThreshold) && !paid.Equal(inv.Amount) {
		out = append(out, target{label: TargetPartialPayment, value: paid})
	}
	return out
}

// rank orders candidates by days (unknown last), then refScore and nameScore
// descending. Ties keep index order.
func rank(candidates []models.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.DaysDiff == nil && b.DaysDiff != nil:
			return false
		case a.DaysDiff != nil && b.DaysDiff == nil:
			return true
		case a.DaysDiff != nil && b.DaysDiff != nil && *a.DaysDiff != *b.DaysDiff:
			return *a.DaysDiff < *b.DaysDiff
		}
		if a.RefScore != b.RefScore {
			return a.RefScore > b.RefScore
		}
		return a.NameScore > b.NameScore
	})
}
