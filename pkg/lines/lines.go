// Package lines prepares extracted statement text for parsing.
package lines

import "strings"

// Normalized holds the two views of a document's text.
type Normalized struct {
	// Lines are trimmed and blank lines are dropped. The parser works on these.
	Lines []string
	// Raw keeps every original line with trailing whitespace removed, for audit.
	Raw []string
}

// Normalize cleans raw extracted lines.
func Normalize(raw []string) Normalized {
	out := Normalized{
		Lines: make([]string, 0, len(raw)),
		Raw:   make([]string, 0, len(raw)),
	}
	for _, line := range raw {
		out.Raw = append(out.Raw, strings.TrimRight(line, " \t\r\n\u00a0"))

		clean := strings.TrimSpace(strings.ReplaceAll(line, "\u00a0", " "))
		if clean == "" {
			continue
		}
		out.Lines = append(out.Lines, clean)
	}
	return out
}

// Split breaks a block of text into lines, accepting \r\n endings.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
