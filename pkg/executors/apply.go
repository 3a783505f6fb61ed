package executors

import (
	"context"
	"fmt"

	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/service"
	"github.com/yurifrl/bankrec/pkg/store"
)

// Apply parses inputs, writes statement artifacts and the operations index,
// and mirrors the index into the store when one is configured. Document
// failures and conflicts do not stop the batch; they make Apply return
// ErrBatchFailures at the end.
func (e *Executor) Apply(ctx context.Context, inputs []service.Input, opts BuildOptions) (*BatchResult, error) {
	e.logger.Debug("applying batch", "documents", len(inputs), "output", opts.OutputDir, "overwrite", opts.Overwrite)

	var runID string
	if e.store != nil {
		id, err := e.store.StartRun(store.RunBuild)
		if err != nil {
			return nil, err
		}
		runID = id
	}

	results := e.processor.ProcessFiles(ctx, inputs)
	res := &BatchResult{
		Documents:  len(inputs),
		Statements: service.Statements(results),
		Failures:   service.Failures(results),
		RunID:      runID,
	}

	built, err := e.builder(opts).Run(res.Statements)
	if err != nil {
		return nil, err
	}
	res.Conflicts = built.Conflicts
	for _, failure := range built.Failures {
		res.Failures = append(res.Failures, writeFailure(res.Statements, failure))
	}
	res.Written = built.Written
	res.Index = built.Index
	res.IndexPath = built.IndexPath

	if e.store != nil {
		if err := e.store.ReplaceOperations(res.Index.Operations); err != nil {
			return nil, fmt.Errorf("failed to mirror index: %w", err)
		}
		if err := e.store.CompleteRun(runID, res.stats()); err != nil {
			return nil, err
		}
	}

	for _, f := range res.Failures {
		e.logger.Warn("document failed", "document", f.Name, "error", f.Err)
	}
	e.logger.Info("batch complete",
		"documents", res.Documents,
		"parsed", len(res.Statements),
		"failed", len(res.Failures),
		"conflicts", len(res.Conflicts),
		"operations", len(res.Index.Operations),
	)
	fmt.Fprintf(e.out, "Apply: %d artifact(s) written, %d conflict(s), %d failure(s); index %s holds %d operation(s)\n",
		len(res.Written), len(res.Conflicts), len(res.Failures), res.IndexPath, len(res.Index.Operations))

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if res.Failed() {
		return res, ErrBatchFailures
	}
	return res, nil
}

// writeFailure reports an artifact write error against the document the
// statement came from.
func writeFailure(stmts []*models.Statement, failure *index.WriteError) service.Result {
	for _, st := range stmts {
		if st.StatementID == failure.StatementID {
			return service.Result{Name: st.Source.EntryName, Path: st.Source.OriginPath, Statement: st, Err: failure}
		}
	}
	return service.Result{Name: failure.StatementID, Err: failure}
}
