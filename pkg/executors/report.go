package executors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/bankrec/pkg/csv"
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/matcher"
	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/reconcile"
	"github.com/yurifrl/bankrec/pkg/store"
)

var (
	highStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	mediumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	lowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	invoiceStyle = lipgloss.NewStyle().Bold(true)
)

func confidenceStyle(confidence int) lipgloss.Style {
	switch {
	case confidence >= 80:
		return highStyle
	case confidence >= 50:
		return mediumStyle
	default:
		return lowStyle
	}
}

// Match reconciles invoices against the index entries and prints the
// report, as text or JSON.
func (e *Executor) Match(ctx context.Context, invoices []models.Invoice, entries []models.IndexEntry, asJSON bool) (*reconcile.Report, error) {
	var runID string
	if e.store != nil {
		id, err := e.store.StartRun(store.RunMatch)
		if err != nil {
			return nil, err
		}
		runID = id
	}

	m := matcher.NewMatcher(e.config.MatcherConfig())
	report, err := reconcile.Build(ctx, m, invoices, entries)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("processing match report",
		"invoices", len(report.Items),
		"matched", report.MatchedCount(),
		"no_match", report.NoMatchCount(),
		"invalid", report.InvalidCount(),
	)

	if e.store != nil {
		stats := store.RunStats{Documents: len(invoices), Parsed: report.MatchedCount(), Failed: report.InvalidCount()}
		if err := e.store.CompleteRun(runID, stats); err != nil {
			return nil, err
		}
	}

	if asJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return report, enc.Encode(report)
	}
	e.renderReport(report)
	return report, nil
}

func (e *Executor) renderReport(report *reconcile.Report) {
	for _, item := range report.Items {
		inv := item.Invoice
		head := fmt.Sprintf("%s | %s | %s", inv.Label(), inv.Amount.StringFixed(2), formatDate(inv.ReferenceDate()))
		if inv.ClientName != "" {
			head += " | " + inv.ClientName
		}
		fmt.Fprintln(e.out, invoiceStyle.Render(head))

		switch item.Status {
		case reconcile.Invalid:
			fmt.Fprintln(e.out, invalidStyle.Render(fmt.Sprintf("  x invalid: %v", item.Err)))
			continue
		case reconcile.NoMatch:
			fmt.Fprintln(e.out, lowStyle.Render("  - no match"))
			continue
		}

		for _, c := range item.Candidates {
			fmt.Fprintln(e.out, confidenceStyle(c.Confidence).Render("  "+formatCandidate(c)))
		}
	}

	fmt.Fprintf(e.out, "\nMatch: %d matched, %d without match, %d invalid\n",
		report.MatchedCount(), report.NoMatchCount(), report.InvalidCount())
}

func formatCandidate(c models.MatchCandidate) string {
	days := "?"
	if c.DaysDiff != nil {
		days = fmt.Sprintf("%d", *c.DaysDiff)
	}
	amount := ""
	if c.Entry.Amount != nil {
		amount = c.Entry.Amount.StringFixed(2)
	}
	return fmt.Sprintf("%2d%% %s | %s | %s | %-30s | ref=%d name=%d days=%s [%s]",
		c.Confidence,
		c.Entry.Key(),
		formatDate(c.Entry.SettlementDate()),
		amount,
		c.Entry.Payee(),
		c.RefScore,
		c.NameScore,
		days,
		c.TargetLabel,
	)
}

func formatDate(d *models.Date) string {
	if d == nil {
		return "----------"
	}
	return d.String()
}

// List prints the entries accepted by filter, as a table or as CSV.
func (e *Executor) List(entries []models.IndexEntry, filter index.Filter, asCSV bool) []models.IndexEntry {
	selected := filter.Apply(entries)

	if asCSV {
		records := make([]*models.IndexEntry, len(entries))
		for i := range entries {
			records[i] = &entries[i]
		}
		_, _ = e.out.Write(csv.Create(records, filter.Match))
		return selected
	}

	for i := range selected {
		entry := &selected[i]
		amount := "      -"
		style := lowStyle
		if entry.Amount != nil {
			amount = entry.Amount.StringFixed(2)
			if entry.Direction == models.DirectionCredit {
				style = highStyle
			} else {
				style = mediumStyle
			}
		}
		line := fmt.Sprintf("%s | %-22s | %12s | %-30s | %s",
			formatDate(entry.SettlementDate()), entry.Key(), amount, entry.Payee(), entry.Memo())
		fmt.Fprintln(e.out, style.Render(strings.TrimRight(line, " |")))
	}
	fmt.Fprintf(e.out, "\n%d operation(s)\n", len(selected))
	return selected
}
