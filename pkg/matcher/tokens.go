package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yurifrl/bankrec/pkg/models"
)

// foldAccents lower-cases s and strips combining marks ("Société" → "societe").
func foldAccents(s string) string {
	// Transformers keep state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// tokens splits a display name into its set of alphanumeric words.
func tokens(s string) map[string]struct{} {
	fields := strings.FieldsFunc(foldAccents(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// NameScore counts the tokens shared by the client and counterparty names.
func NameScore(clientName string, counterparty *string) int {
	if counterparty == nil {
		return 0
	}
	client := tokens(clientName)
	if len(client) == 0 {
		return 0
	}
	shared := 0
	for tok := range tokens(*counterparty) {
		if _, ok := client[tok]; ok {
			shared++
		}
	}
	return shared
}

// RefScore measures how clearly an entry's reference fields cite the invoice
// number: 3 for its digits, 2 for its compact upper-case form, 0 otherwise.
func RefScore(number string, e *models.IndexEntry) int {
	ref := referenceText(e)
	if ref == "" || strings.TrimSpace(number) == "" {
		return 0
	}
	if digits := digitsOnly(number); digits != "" {
		if strings.Contains(ref, digits) || strings.Contains(digitsOnly(ref), digits) {
			return 3
		}
	}
	if strings.Contains(ref, compact(number)) {
		return 2
	}
	return 0
}

// referenceText joins the communication and reference fields of e in their
// compact upper-case form.
func referenceText(e *models.IndexEntry) string {
	var b strings.Builder
	for _, field := range []*string{e.Communication, e.BankReference, e.OrderReference} {
		if field != nil {
			b.WriteString(compact(*field))
		}
	}
	return b.String()
}

func compact(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
