// Package plan reads batch manifests: the statement files to build, where
// their artifacts go, and optionally the invoices to reconcile afterwards.
package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/bankrec/pkg/service"
	"github.com/yurifrl/bankrec/pkg/source"
)

type Plan struct {
	OutputDir string     `yaml:"output_dir"`
	Overwrite bool       `yaml:"overwrite"`
	Documents []Document `yaml:"documents"`
	Invoices  string     `yaml:"invoices"`
}

type Document struct {
	File string `yaml:"file"`
	Type string `yaml:"type"`
}

// Load reads a manifest. Relative paths are resolved against the manifest's
// directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Documents) == 0 {
		return nil, fmt.Errorf("plan has no documents")
	}

	base := filepath.Dir(path)
	for i := range p.Documents {
		doc := &p.Documents[i]
		if doc.File == "" {
			return nil, fmt.Errorf("plan document %d has no file", i+1)
		}
		if doc.Type != "" {
			t, err := source.DetectType("x." + doc.Type)
			if err != nil {
				return nil, fmt.Errorf("plan document %s: %w", doc.File, err)
			}
			doc.Type = string(t)
		}
		doc.File = resolve(base, doc.File)
	}
	if p.OutputDir != "" {
		p.OutputDir = resolve(base, p.OutputDir)
	}
	if p.Invoices != "" {
		p.Invoices = resolve(base, p.Invoices)
	}
	return &p, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Inputs lists the documents for the batch processor.
func (p *Plan) Inputs() []service.Input {
	out := make([]service.Input, 0, len(p.Documents))
	for _, doc := range p.Documents {
		out = append(out, service.Input{Path: doc.File, Type: source.Type(doc.Type)})
	}
	return out
}

func (p *Plan) Print(w io.Writer) {
	fmt.Fprintf(w, "Output directory: %s (overwrite=%t)\n", p.OutputDir, p.Overwrite)
	for i, doc := range p.Documents {
		docType := doc.Type
		if docType == "" {
			docType = "auto"
		}
		fmt.Fprintf(w, "[%d] type=%s file=%s\n", i+1, docType, doc.File)
	}
	if p.Invoices != "" {
		fmt.Fprintf(w, "Invoices: %s\n", p.Invoices)
	}
}
