package parser

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// StatementID derives the stable key of a statement. With an IBAN, a year and
// a number it is "<last 6 IBAN characters>-<year>-<NNN>"; otherwise it comes
// from the source file name; otherwise from the build time plus a content hash.
func StatementID(iban string, year, number *int, sourceName string, now time.Time, content []string) string {
	iban = compactIBAN(iban)
	if len(iban) >= 6 && year != nil && number != nil {
		return fmt.Sprintf("%s-%04d-%03d", iban[len(iban)-6:], *year, *number)
	}
	if slug := slugify(strings.TrimSuffix(sourceName, filepath.Ext(sourceName))); slug != "" {
		return slug
	}
	return fmt.Sprintf("stmt-%s-%s", now.UTC().Format("20060102T150405"), contentHash(content))
}

// slugify keeps letters and digits, joining runs of anything else with "-".
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// contentHash returns the first 8 hex characters of the SHA256 of the lines.
func contentHash(lines []string) string {
	hash := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return fmt.Sprintf("%x", hash)[:8]
}
