package source

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF returns one line per text row, pages in order.
func readPDF(path string) (lines []string, err error) {
	// the pdf library panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return lines, nil
}
