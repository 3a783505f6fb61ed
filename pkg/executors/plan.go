package executors

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/service"
)

// Plan parses inputs and prints what Apply would write, without writing.
func (e *Executor) Plan(ctx context.Context, inputs []service.Input, opts BuildOptions) (*BatchResult, error) {
	e.logger.Debug("planning batch", "documents", len(inputs), "output", opts.OutputDir)

	results := e.processor.ProcessFiles(ctx, inputs)
	res := &BatchResult{
		Documents:  len(inputs),
		Statements: service.Statements(results),
		Failures:   service.Failures(results),
	}
	b := e.builder(opts)

	writeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))    // green
	conflictStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))      // red

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintln(e.out, failStyle.Render(fmt.Sprintf("x %s | %v", r.Name, r.Err)))
			continue
		}
		st := r.Statement
		err := b.Check(st)
		var conflict *index.ConflictError
		switch {
		case errors.As(err, &conflict):
			res.Conflicts = append(res.Conflicts, conflict)
			fmt.Fprintln(e.out, conflictStyle.Render(fmt.Sprintf("! %s | %-24s | exists: %s", r.Name, st.StatementID, conflict.Path)))
		case err != nil:
			return nil, err
		default:
			line := fmt.Sprintf("+ %s | %-24s | %d operation(s) | %s", r.Name, st.StatementID, len(st.Operations), filepath.Base(b.ArtifactPath(st.StatementID)))
			fmt.Fprintln(e.out, writeStyle.Render(line))
		}
	}

	res.Index = b.Build(res.Statements)
	writes := len(res.Statements) - len(res.Conflicts)
	fmt.Fprintf(e.out, "\nPlan: %d artifact(s) will be written, %d conflict(s), %d failure(s); index will hold %d operation(s)\n",
		writes, len(res.Conflicts), len(res.Failures), len(res.Index.Operations))

	return res, nil
}
