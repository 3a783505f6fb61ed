// Package reconcile runs the matcher over a batch of invoices and collects
// the outcome of each one into a report. It is isolated from any UI so the
// CLI executors and the HTTP server share the same data model.
package reconcile

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/conc/iter"

	"github.com/yurifrl/bankrec/pkg/matcher"
	"github.com/yurifrl/bankrec/pkg/models"
)

// Status indicates the reconciliation result for one invoice.
//
//   - Matched: at least one candidate operation.
//   - NoMatch: no operation qualifies; not an error.
//   - Invalid: the invoice could not be matched at all.
type Status int

const (
	Matched Status = iota
	NoMatch
	Invalid
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case NoMatch:
		return "no_match"
	default:
		return "invalid"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry links an invoice with its ranked candidates.
type Entry struct {
	Invoice    models.Invoice
	Candidates []models.MatchCandidate
	Status     Status
	Err        error // set when Status == Invalid
}

// Best returns the top candidate, or nil.
func (e Entry) Best() *models.MatchCandidate {
	if len(e.Candidates) == 0 {
		return nil
	}
	return &e.Candidates[0]
}

// Report holds one entry per invoice, in input order.
type Report struct {
	Items []Entry
}

// Build matches every invoice against entries. Invoices are matched in
// parallel; the index is only read. A cancelled context stops the batch and
// its error is returned alongside the partial report.
func Build(ctx context.Context, m *matcher.Matcher, invoices []models.Invoice, entries []models.IndexEntry) (*Report, error) {
	items := iter.Map(invoices, func(inv *models.Invoice) Entry {
		if err := ctx.Err(); err != nil {
			return Entry{Invoice: *inv, Status: Invalid, Err: err}
		}
		candidates, err := m.Match(inv, entries)
		if err != nil {
			return Entry{Invoice: *inv, Status: Invalid, Err: err}
		}
		if len(candidates) == 0 {
			return Entry{Invoice: *inv, Candidates: candidates, Status: NoMatch}
		}
		return Entry{Invoice: *inv, Candidates: candidates, Status: Matched}
	})

	report := &Report{Items: items}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Report) count(status Status) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// MatchedCount returns how many invoices have at least one candidate.
func (r *Report) MatchedCount() int {
	return r.count(Matched)
}

// NoMatchCount returns how many invoices have no candidate.
func (r *Report) NoMatchCount() int {
	return r.count(NoMatch)
}

// InvalidCount returns how many invoices could not be matched.
func (r *Report) InvalidCount() int {
	return r.count(Invalid)
}

type entryJSON struct {
	Invoice    models.Invoice          `json:"invoice"`
	Status     Status                  `json:"status"`
	Candidates []models.MatchCandidate `json:"candidates"`
	Error      string                  `json:"error,omitempty"`
}

type reportJSON struct {
	Matched int         `json:"matched"`
	NoMatch int         `json:"noMatch"`
	Invalid int         `json:"invalid"`
	Items   []entryJSON `json:"items"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Matched: r.MatchedCount(),
		NoMatch: r.NoMatchCount(),
		Invalid: r.InvalidCount(),
		Items:   make([]entryJSON, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		e := entryJSON{Invoice: item.Invoice, Status: item.Status, Candidates: item.Candidates}
		if e.Candidates == nil {
			e.Candidates = []models.MatchCandidate{}
		}
		if item.Err != nil {
			e.Error = item.Err.Error()
		}
		out.Items = append(out.Items, e)
	}
	return json.Marshal(out)
}
