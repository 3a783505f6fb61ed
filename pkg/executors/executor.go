package executors

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/yurifrl/bankrec/pkg/config"
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/parser"
	"github.com/yurifrl/bankrec/pkg/service"
	"github.com/yurifrl/bankrec/pkg/store"
)

// ErrBatchFailures is returned when a batch finished with failed documents
// or conflicting artifacts. The batch itself ran to completion.
var ErrBatchFailures = errors.New("batch finished with failures")

type Executor struct {
	logger    *log.Logger
	config    *config.Config
	processor *service.Processor
	fs        afero.Fs
	store     store.Repository
	out       io.Writer
}

type Option func(*Executor)

// WithFs sets the filesystem artifacts are written to.
func WithFs(fs afero.Fs) Option {
	return func(e *Executor) {
		e.fs = fs
	}
}

// WithStore mirrors built indexes and run records into repo.
func WithStore(repo store.Repository) Option {
	return func(e *Executor) {
		e.store = repo
	}
}

func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.out = w
	}
}

func New(logger *log.Logger, cfg *config.Config, opts ...Option) *Executor {
	p := parser.New(logger, parser.WithDefaultCurrency(cfg.Parser.DefaultCurrency))
	e := &Executor{
		logger:    logger,
		config:    cfg,
		processor: service.NewProcessor(p, logger, cfg.Workers),
		fs:        afero.NewOsFs(),
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildOptions say where artifacts go.
type BuildOptions struct {
	OutputDir string
	Overwrite bool
}

func (e *Executor) builder(opts BuildOptions) *index.Builder {
	return index.NewBuilder(e.fs, opts.OutputDir, e.logger, index.WithOverwrite(opts.Overwrite))
}

// BatchResult summarises a plan or apply run.
type BatchResult struct {
	Documents  int
	Statements []*models.Statement
	Failures   []service.Result
	Conflicts  []*index.ConflictError
	Written    []string
	Index      *models.Index
	IndexPath  string
	RunID      string
}

// Failed reports whether any document failed or conflicted.
func (r *BatchResult) Failed() bool {
	return len(r.Failures) > 0 || len(r.Conflicts) > 0
}

func (r *BatchResult) stats() store.RunStats {
	stats := store.RunStats{
		Documents: r.Documents,
		Parsed:    len(r.Statements),
		Failed:    len(r.Failures),
		Conflicts: len(r.Conflicts),
	}
	if r.Index != nil {
		stats.Operations = len(r.Index.Operations)
	}
	return stats
}
