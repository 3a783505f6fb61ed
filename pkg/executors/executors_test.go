package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/bankrec/pkg/config"
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/service"
	"github.com/yurifrl/bankrec/pkg/store"
)

const statementText = `ACME SPRL
BE68539007547034 EUR
Extrait N° 2024-004
Date Montant
01-04-2024
0015 SEPA CREDIT TRANSFER
Communication: INV 220006
04-04 1500,00 +
Solde actuel au 30-04-2024 1.500,00 +`

func testConfig() *config.Config {
	return &config.Config{
		Parser:  config.ParserConfig{DefaultCurrency: "EUR"},
		Matcher: config.MatcherConfig{WindowDays: 120, MaxCandidates: 5},
		Workers: 2,
	}
}

func writeInputs(t *testing.T, files map[string]string) []service.Input {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	inputs, err := service.Discover([]string{dir})
	require.NoError(t, err)
	return inputs
}

func newTestExecutor(fs afero.Fs, out io.Writer, opts ...Option) *Executor {
	opts = append([]Option{WithFs(fs), WithOutput(out)}, opts...)
	return New(log.New(io.Discard), testConfig(), opts...)
}

func TestPlanDoesNotWrite(t *testing.T) {
	// Arrange
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	inputs := writeInputs(t, map[string]string{"extrait-004.txt": statementText})

	// Act
	res, err := newTestExecutor(fs, &out).Plan(context.Background(), inputs, BuildOptions{OutputDir: "/out"})

	// Assert
	require.NoError(t, err)
	assert.Len(t, res.Statements, 1)
	assert.Empty(t, res.Conflicts)
	assert.Len(t, res.Index.Operations, 1)
	assert.Contains(t, out.String(), "547034-2024-004")
	assert.Contains(t, out.String(), "1 artifact(s) will be written")

	exists, err := afero.DirExists(fs, "/out")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPlanReportsConflicts(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/"+index.ArtifactName("547034-2024-004"), []byte("{}"), 0o644))
	inputs := writeInputs(t, map[string]string{"extrait-004.txt": statementText})

	res, err := newTestExecutor(fs, io.Discard).Plan(context.Background(), inputs, BuildOptions{OutputDir: "/out"})

	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "547034-2024-004", res.Conflicts[0].StatementID)
	assert.True(t, res.Failed())
}

func TestApplyWritesArtifactsAndIndex(t *testing.T) {
	// Arrange
	fs := afero.NewMemMapFs()
	inputs := writeInputs(t, map[string]string{"extrait-004.txt": statementText})
	exec := newTestExecutor(fs, io.Discard)

	// Act
	res, err := exec.Apply(context.Background(), inputs, BuildOptions{OutputDir: "/out"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/" + index.ArtifactName("547034-2024-004")}, res.Written)
	assert.Equal(t, "/out/"+index.IndexFile, res.IndexPath)

	idx, err := index.Load(fs, res.IndexPath)
	require.NoError(t, err)
	require.Len(t, idx.Operations, 1)
	assert.Equal(t, "0015", idx.Operations[0].Sequence)

	// A second run without overwrite conflicts but still rebuilds the index.
	res, err = exec.Apply(context.Background(), inputs, BuildOptions{OutputDir: "/out"})
	assert.ErrorIs(t, err, ErrBatchFailures)
	assert.Len(t, res.Conflicts, 1)
	assert.Len(t, res.Index.Operations, 1)

	res, err = exec.Apply(context.Background(), inputs, BuildOptions{OutputDir: "/out", Overwrite: true})
	require.NoError(t, err)
	assert.Len(t, res.Written, 1)
}

func TestApplyContinuesAfterFailedDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	inputs := writeInputs(t, map[string]string{
		"extrait-004.txt": statementText,
		"letter.txt":      "Dear customer\nnothing to see",
	})

	res, err := newTestExecutor(fs, io.Discard).Apply(context.Background(), inputs, BuildOptions{OutputDir: "/out"})

	require.True(t, errors.Is(err, ErrBatchFailures))
	assert.Equal(t, 2, res.Documents)
	assert.Len(t, res.Statements, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "letter.txt", res.Failures[0].Name)
	assert.Len(t, res.Written, 1)
}

func TestApplyMirrorsIntoStore(t *testing.T) {
	// Arrange
	repo, err := store.NewStorage(filepath.Join(t.TempDir(), "bankrec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	inputs := writeInputs(t, map[string]string{"extrait-004.txt": statementText})

	// Act
	res, err := newTestExecutor(afero.NewMemMapFs(), io.Discard, WithStore(repo)).
		Apply(context.Background(), inputs, BuildOptions{OutputDir: "/out"})

	// Assert
	require.NoError(t, err)
	stored, err := repo.ListOperations(index.Filter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "547034-2024-004", stored[0].StatementID)

	run, err := repo.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Stats.Operations)
}

func matchFixture() ([]models.Invoice, []models.IndexEntry) {
	amount := decimal.RequireFromString("1500")
	entries := []models.IndexEntry{{
		StatementID:   "547034-2024-004",
		Sequence:      "0015",
		Title:         "SEPA CREDIT TRANSFER",
		ValueDate:     models.DatePtr(models.NewDate(2024, time.April, 4)),
		Amount:        &amount,
		Direction:     models.DirectionCredit,
		Communication: models.StringPtr("INV 220006"),
		Counterparty:  models.Counterparty{Name: models.StringPtr("CLIENT ONE")},
	}}
	invoices := []models.Invoice{
		{
			ID:          "inv-1",
			Number:      "220006",
			Amount:      decimal.RequireFromString("1500"),
			InvoiceDate: models.DatePtr(models.NewDate(2024, time.April, 1)),
			ClientName:  "Client One",
		},
		{
			ID:          "inv-2",
			Number:      "220007",
			Amount:      decimal.RequireFromString("999"),
			InvoiceDate: models.DatePtr(models.NewDate(2024, time.April, 1)),
		},
		{ID: "inv-3", Number: "220008"},
	}
	return invoices, entries
}

func TestMatchRendersText(t *testing.T) {
	// Arrange
	var out bytes.Buffer
	invoices, entries := matchFixture()

	// Act
	report, err := newTestExecutor(afero.NewMemMapFs(), &out).Match(context.Background(), invoices, entries, false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, report.MatchedCount())
	text := out.String()
	assert.Contains(t, text, "547034-2024-004/0015")
	assert.Contains(t, text, "no match")
	assert.Contains(t, text, "invalid")
	assert.Contains(t, text, "Match: 1 matched, 1 without match, 1 invalid")
}

func TestMatchRendersJSON(t *testing.T) {
	var out bytes.Buffer
	invoices, entries := matchFixture()

	_, err := newTestExecutor(afero.NewMemMapFs(), &out).Match(context.Background(), invoices, entries, true)
	require.NoError(t, err)

	var decoded struct {
		Matched int `json:"matched"`
		Items   []struct {
			Status     string `json:"status"`
			Candidates []struct {
				Confidence int `json:"confidence"`
			} `json:"candidates"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Matched)
	require.Len(t, decoded.Items, 3)
	assert.Equal(t, "matched", decoded.Items[0].Status)
	require.Len(t, decoded.Items[0].Candidates, 1)
	assert.GreaterOrEqual(t, decoded.Items[0].Candidates[0].Confidence, 80)
	assert.Equal(t, "no_match", decoded.Items[1].Status)
	assert.Equal(t, "invalid", decoded.Items[2].Status)
}

func TestListFiltersAndRendersCSV(t *testing.T) {
	var out bytes.Buffer
	_, entries := matchFixture()
	floor := decimal.RequireFromString("2000")

	exec := newTestExecutor(afero.NewMemMapFs(), &out)
	selected := exec.List(entries, index.Filter{}, true)
	assert.Len(t, selected, 1)
	assert.Equal(t, "Date,Counterparty,Communication,Amount\n2024-04-04,CLIENT ONE,INV 220006,1500.00\n", out.String())

	out.Reset()
	selected = exec.List(entries, index.Filter{Min: &floor}, false)
	assert.Empty(t, selected)
	assert.Contains(t, out.String(), "0 operation(s)")
}

type readOnlyArtifactFs struct {
	afero.Fs
	path string
}

func (f readOnlyArtifactFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.path && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return nil, os.ErrPermission
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestApplyReportsArtifactWriteFailure(t *testing.T) {
	// Arrange
	fs := readOnlyArtifactFs{Fs: afero.NewMemMapFs(), path: "/out/" + index.ArtifactName("547034-2024-004")}
	inputs := writeInputs(t, map[string]string{"extrait-004.txt": statementText})

	// Act
	res, err := newTestExecutor(fs, io.Discard).Apply(context.Background(), inputs, BuildOptions{OutputDir: "/out"})

	// Assert
	require.ErrorIs(t, err, ErrBatchFailures)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "extrait-004.txt", res.Failures[0].Name)
	assert.ErrorIs(t, res.Failures[0].Err, os.ErrPermission)
	assert.Empty(t, res.Written)
	assert.Empty(t, res.Index.Operations)
	assert.Equal(t, "/out/"+index.IndexFile, res.IndexPath)
}
