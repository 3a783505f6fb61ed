// Package importer reads the invoices to reconcile. Invoices come from the
// invoicing collaborator as JSON or YAML: either a bare list or an object
// with an "invoices" key. Amounts may be numbers or strings.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/yurifrl/bankrec/pkg/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Importer is decoupled from CLI / HTTP details so both layers reuse it.
type Importer struct {
	logger *log.Logger
}

// New returns a new Importer instance.
func New(logger *log.Logger) *Importer {
	return &Importer{logger: logger}
}

// Load reads the invoices in path, choosing the format from its extension.
func (i *Importer) Load(path string) ([]models.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoices: %w", err)
	}
	invoices, err := i.Decode(data, DetectFormat(path, data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	i.logger.Info("loaded invoices", "path", path, "count", len(invoices))
	return invoices, nil
}

// Decode parses invoices and fills in missing ids.
func (i *Importer) Decode(data []byte, format Format) ([]models.Invoice, error) {
	var (
		invoices []models.Invoice
		err      error
	)
	switch format {
	case FormatYAML:
		invoices, err = decodeYAML(data)
	default:
		invoices, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}

	for n := range invoices {
		inv := &invoices[n]
		if inv.ID == "" {
			inv.ID = inv.Number
		}
		if inv.ID == "" {
			inv.ID = fmt.Sprintf("#%d", n+1)
		}
		if inv.Amount.IsZero() {
			i.logger.Warn("invoice without amount", "invoice", inv.Label())
		}
	}
	return invoices, nil
}

// DetectFormat uses the extension, then the first non-blank byte.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatYAML
}

type envelope struct {
	Invoices []models.Invoice `json:"invoices" yaml:"invoices"`
}

func decodeJSON(data []byte) ([]models.Invoice, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		return nonNil(env.Invoices), nil
	}
	var invoices []models.Invoice
	if err := json.Unmarshal(trimmed, &invoices); err != nil {
		return nil, err
	}
	return nonNil(invoices), nil
}

func decodeYAML(data []byte) ([]models.Invoice, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return []models.Invoice{}, nil
	}
	if node.Content[0].Kind == yaml.MappingNode {
		var env envelope
		if err := node.Decode(&env); err != nil {
			return nil, err
		}
		return nonNil(env.Invoices), nil
	}
	var invoices []models.Invoice
	if err := node.Decode(&invoices); err != nil {
		return nil, err
	}
	return nonNil(invoices), nil
}

func nonNil(invoices []models.Invoice) []models.Invoice {
	if invoices == nil {
		return []models.Invoice{}
	}
	return invoices
}
