// Package service runs the parser over batches of statement files.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/iter"

	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/parser"
	"github.com/yurifrl/bankrec/pkg/source"
)

// ErrSkipped marks documents that were not parsed because the batch was
// cancelled first.
var ErrSkipped = errors.New("skipped")

// Input names one statement file. An empty Type is detected from the file name.
type Input struct {
	Path string
	Type source.Type
}

// Result is the outcome of one document. Exactly one of Statement and Err is set.
type Result struct {
	Name      string
	Path      string
	Statement *models.Statement
	Err       error
}

// Skipped reports whether the document was never attempted.
func (r Result) Skipped() bool {
	return errors.Is(r.Err, ErrSkipped)
}

type Processor struct {
	parser  *parser.Parser
	logger  *log.Logger
	workers int
}

// NewProcessor returns a processor parsing up to workers documents at once.
// workers <= 0 uses one goroutine per document.
func NewProcessor(p *parser.Parser, logger *log.Logger, workers int) *Processor {
	return &Processor{
		parser:  p,
		logger:  logger,
		workers: workers,
	}
}

// ParseAll parses docs in parallel. Results keep the order of docs.
func (p *Processor) ParseAll(ctx context.Context, docs []*source.Document) []Result {
	mapper := iter.Mapper[*source.Document, Result]{MaxGoroutines: p.workers}
	return mapper.Map(docs, func(doc **source.Document) Result {
		d := *doc
		if err := ctx.Err(); err != nil {
			return Result{Name: d.Name, Path: d.Path, Err: fmt.Errorf("%w: %v", ErrSkipped, err)}
		}
		return p.parse(d)
	})
}

// ProcessFiles loads and parses inputs in parallel. Results keep input order.
func (p *Processor) ProcessFiles(ctx context.Context, inputs []Input) []Result {
	mapper := iter.Mapper[Input, Result]{MaxGoroutines: p.workers}
	return mapper.Map(inputs, func(in *Input) Result {
		name := filepath.Base(in.Path)
		if err := ctx.Err(); err != nil {
			return Result{Name: name, Path: in.Path, Err: fmt.Errorf("%w: %v", ErrSkipped, err)}
		}

		p.logger.Info("processing file", "path", in.Path, "type", in.Type)
		doc, err := load(in)
		if err != nil {
			p.logger.Error("failed to load file", "path", in.Path, "error", err)
			return Result{Name: name, Path: in.Path, Err: err}
		}
		return p.parse(doc)
	})
}

func (p *Processor) parse(doc *source.Document) Result {
	st, err := p.parser.Parse(doc)
	if err != nil {
		p.logger.Error("failed to parse document", "document", doc.Name, "error", err)
		return Result{Name: doc.Name, Path: doc.Path, Err: err}
	}
	return Result{Name: doc.Name, Path: doc.Path, Statement: st}
}

func load(in *Input) (*source.Document, error) {
	if in.Type == "" {
		return source.Load(in.Path)
	}
	return source.LoadAs(in.Path, in.Type)
}

// Statements returns the parsed statements of results, in order.
func Statements(results []Result) []*models.Statement {
	out := make([]*models.Statement, 0, len(results))
	for _, r := range results {
		if r.Statement != nil {
			out = append(out, r.Statement)
		}
	}
	return out
}

// Failures returns the results that produced no statement.
func Failures(results []Result) []Result {
	out := make([]Result, 0)
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Discover expands paths into the statement files they name. Directories are
// listed one level deep and only files with a supported extension are kept;
// glob patterns are expanded. Explicit file paths are kept as given.
func Discover(paths []string) ([]Input, error) {
	var out []Input
	for _, pattern := range paths {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files found matching pattern %s", pattern)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", match, err)
			}
			if !info.IsDir() {
				out = append(out, Input{Path: match})
				continue
			}
			found, err := discoverDirectory(match)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
	}
	return out, nil
}

func discoverDirectory(dir string) ([]Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var out []Input
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileType, err := source.DetectType(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, Input{Path: filepath.Join(dir, entry.Name()), Type: fileType})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
