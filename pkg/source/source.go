// Package source turns statement files into ordered text lines.
//
// Text acquisition is a collaborator of the parser: these adapters are thin and
// make no promise about layout fidelity beyond one line per visual row.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yurifrl/bankrec/pkg/lines"
)

type Type string

const (
	TypeText Type = "txt"
	TypePDF  Type = "pdf"
	TypeXLS  Type = "xls"
	TypeMem  Type = "memory"
)

var ErrUnsupported = errors.New("unsupported statement file")

// Document is the ordered text of one source document.
type Document struct {
	Name  string
	Path  string
	Type  Type
	Lines []string
}

// FromLines wraps lines that were extracted elsewhere.
func FromLines(name string, text []string) *Document {
	return &Document{Name: name, Type: TypeMem, Lines: text}
}

// DetectType maps a file name to its extractor.
func DetectType(filename string) (Type, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text":
		return TypeText, nil
	case ".pdf":
		return TypePDF, nil
	case ".xls":
		return TypeXLS, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filename)
	}
}

// Load reads the file at path and extracts its lines.
func Load(path string) (*Document, error) {
	fileType, err := DetectType(path)
	if err != nil {
		return nil, err
	}
	return LoadAs(path, fileType)
}

// LoadAs extracts lines using an explicit type, ignoring the extension.
func LoadAs(path string, fileType Type) (*Document, error) {
	var (
		text []string
		err  error
	)
	switch fileType {
	case TypeText:
		text, err = readText(path)
	case TypePDF:
		text, err = readPDF(path)
	case TypeXLS:
		text, err = readXLS(path)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnsupported, fileType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return &Document{
		Name:  filepath.Base(path),
		Path:  path,
		Type:  fileType,
		Lines: text,
	}, nil
}

func readText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return lines.Split(string(data)), nil
}
