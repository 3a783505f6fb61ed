// Package index persists parsed statements and aggregates their operations
// into the flat operations index.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/yurifrl/bankrec/pkg/models"
)

// IndexFile is the name of the aggregated index inside the output directory.
const IndexFile = "operations-index.json"

type Builder struct {
	fs        afero.Fs
	dir       string
	overwrite bool
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*Builder)

// WithOverwrite allows replacing existing statement artifacts.
func WithOverwrite(overwrite bool) Option {
	return func(b *Builder) {
		b.overwrite = overwrite
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(fs afero.Fs, dir string, logger *log.Logger, opts ...Option) *Builder {
	b := &Builder{
		fs:     fs,
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ArtifactName is the file name of a statement artifact.
func ArtifactName(statementID string) string {
	return statementID + ".json"
}

func (b *Builder) ArtifactPath(statementID string) string {
	return filepath.Join(b.dir, ArtifactName(statementID))
}

func (b *Builder) IndexPath() string {
	return filepath.Join(b.dir, IndexFile)
}

// Check returns a *ConflictError when writing st would replace an existing
// artifact without permission.
func (b *Builder) Check(st *models.Statement) error {
	if b.overwrite {
		return nil
	}
	path := b.ArtifactPath(st.StatementID)
	exists, err := afero.Exists(b.fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}
	if exists {
		return &ConflictError{StatementID: st.StatementID, Path: path}
	}
	return nil
}

// WriteStatement writes the artifact of st and returns its path.
func (b *Builder) WriteStatement(st *models.Statement) (string, error) {
	if err := b.Check(st); err != nil {
		return "", err
	}

	data, err := encode(newStatementArtifact(st, b.now().UTC()))
	if err != nil {
		return "", fmt.Errorf("failed to encode statement %s: %w", st.StatementID, err)
	}
	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := b.ArtifactPath(st.StatementID)
	if err := afero.WriteFile(b.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	b.logger.Debug("wrote statement artifact", "statement", st.StatementID, "path", path)
	return path, nil
}

// Build aggregates the operations of stmts, in statement then operation order.
func (b *Builder) Build(stmts []*models.Statement) *models.Index {
	entries := make([]models.IndexEntry, 0)
	for _, st := range stmts {
		for _, op := range st.Operations {
			entries = append(entries, models.NewIndexEntry(st, op, ArtifactName(st.StatementID)))
		}
	}
	return &models.Index{
		GeneratedAt: b.now().UTC(),
		Operations:  entries,
	}
}

// WriteIndex replaces the aggregated index. It is derived data, so it is
// rewritten on every build regardless of the overwrite setting.
func (b *Builder) WriteIndex(idx *models.Index) (string, error) {
	data, err := encode(idx)
	if err != nil {
		return "", fmt.Errorf("failed to encode index: %w", err)
	}
	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := b.IndexPath()
	if err := afero.WriteFile(b.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	return path, nil
}

// Result summarises one Run.
type Result struct {
	Index     *models.Index
	IndexPath string
	Written   []string
	Conflicts []*ConflictError
	Failures  []*WriteError
}

// Run writes every statement artifact, then the index. Conflicts are
// collected and do not stop the run; a conflicting statement still
// contributes its operations so reruns produce the same index. A statement
// whose artifact fails to write is recorded in Failures and left out of the
// index. Only a failure to write the index itself aborts the run.
// A statement ID seen twice in stmts is a conflict unless overwrite is set,
// in which case the later statement replaces the earlier one.
func (b *Builder) Run(stmts []*models.Statement) (*Result, error) {
	res := &Result{}
	unique := make([]*models.Statement, 0, len(stmts))
	positions := make(map[string]int, len(stmts))

	for _, st := range stmts {
		pos, seen := positions[st.StatementID]
		if !seen {
			positions[st.StatementID] = len(unique)
			unique = append(unique, st)
			continue
		}
		if b.overwrite {
			b.logger.Warn("duplicate statement replaced", "statement", st.StatementID)
			unique[pos] = st
			continue
		}
		conflict := &ConflictError{StatementID: st.StatementID, Path: b.ArtifactPath(st.StatementID)}
		b.logger.Warn("duplicate statement in batch", "statement", st.StatementID)
		res.Conflicts = append(res.Conflicts, conflict)
	}

	indexed := make([]*models.Statement, 0, len(unique))
	for _, st := range unique {
		path, err := b.WriteStatement(st)
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			b.logger.Warn("artifact exists, not overwriting", "statement", st.StatementID, "path", conflict.Path)
			res.Conflicts = append(res.Conflicts, conflict)
		case err != nil:
			b.logger.Error("failed to write artifact", "statement", st.StatementID, "error", err)
			res.Failures = append(res.Failures, &WriteError{
				StatementID: st.StatementID,
				Path:        b.ArtifactPath(st.StatementID),
				Err:         err,
			})
			continue
		default:
			res.Written = append(res.Written, path)
		}
		indexed = append(indexed, st)
	}

	res.Index = b.Build(indexed)
	path, err := b.WriteIndex(res.Index)
	if err != nil {
		return nil, err
	}
	res.IndexPath = path

	b.logger.Info("index built",
		"statements", len(indexed),
		"operations", len(res.Index.Operations),
		"conflicts", len(res.Conflicts),
		"failures", len(res.Failures),
		"path", path,
	)
	return res, nil
}

// Load reads an aggregated index.
func Load(fs afero.Fs, path string) (*models.Index, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var idx models.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if idx.Operations == nil {
		idx.Operations = []models.IndexEntry{}
	}
	return &idx, nil
}

// LoadStatement reads a statement artifact back.
func LoadStatement(fs afero.Fs, path string) (*models.Statement, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var a statementArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	return a.statement(), nil
}
