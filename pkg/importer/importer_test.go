package importer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImporter() *Importer {
	return New(log.New(io.Discard))
}

func TestDecodeJSONList(t *testing.T) {
	data := []byte(`[
		{"id": "a1", "number": "220006", "amount": 1500.00, "balance": "0", "invoiceDate": "2024-04-01", "clientName": "Client One"},
		{"number": "220007", "amount": "99.90", "dueDate": "2024-05-01"}
	]`)

	invoices, err := newTestImporter().Decode(data, FormatJSON)

	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "a1", invoices[0].ID)
	assert.Equal(t, "1500.00", invoices[0].Amount.StringFixed(2))
	assert.Equal(t, "2024-04-01", invoices[0].InvoiceDate.String())
	assert.Equal(t, "Client One", invoices[0].ClientName)

	assert.Equal(t, "220007", invoices[1].ID)
	assert.Equal(t, "99.90", invoices[1].Amount.StringFixed(2))
	assert.Nil(t, invoices[1].InvoiceDate)
	assert.Equal(t, "2024-05-01", invoices[1].DueDate.String())
}

func TestDecodeJSONEnvelope(t *testing.T) {
	invoices, err := newTestImporter().Decode([]byte(`{"invoices": [{"amount": 10}]}`), FormatJSON)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "#1", invoices[0].ID)
}

func TestDecodeYAML(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"list", `
- number: "220006"
  amount: 1500.00
  balance: 500
  invoiceDate: 2024-04-01
  clientName: Société Générale
`},
		{"envelope", `
invoices:
  - number: "220006"
    amount: "1500.00"
    balance: "500"
    invoiceDate: "2024-04-01"
    clientName: Société Générale
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices, err := newTestImporter().Decode([]byte(tt.data), FormatYAML)

			require.NoError(t, err)
			require.Len(t, invoices, 1)
			inv := invoices[0]
			assert.Equal(t, "220006", inv.ID)
			assert.Equal(t, "1500.00", inv.Amount.StringFixed(2))
			assert.Equal(t, "500.00", inv.Balance.StringFixed(2))
			assert.Equal(t, "2024-04-01", inv.InvoiceDate.String())
			assert.Equal(t, "Société Générale", inv.ClientName)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	invoices, err := newTestImporter().Decode([]byte(""), FormatYAML)
	require.NoError(t, err)
	assert.NotNil(t, invoices)
	assert.Empty(t, invoices)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := newTestImporter().Decode([]byte(`[{"amount": "abc"}]`), FormatJSON)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.yml")
	require.NoError(t, os.WriteFile(path, []byte("- number: X1\n  amount: 5\n"), 0o644))

	invoices, err := newTestImporter().Load(path)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "X1", invoices[0].Number)

	_, err = newTestImporter().Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("a.json", nil))
	assert.Equal(t, FormatYAML, DetectFormat("a.YAML", nil))
	assert.Equal(t, FormatJSON, DetectFormat("-", []byte("  [ ]")))
	assert.Equal(t, FormatYAML, DetectFormat("-", []byte("- a: 1")))
}
