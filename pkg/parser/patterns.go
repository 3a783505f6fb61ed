package parser

import (
	"regexp"
	"strings"
)

// ibanBody matches a compact IBAN or one printed in groups of four.
const ibanBody = `[A-Z]{2}\d{2}(?:[A-Z0-9]{11,30}|(?: [A-Z0-9]{4}){3,7}(?: \d{1,3})?)`

var (
	anchorPattern       = regexp.MustCompile(`^(` + ibanBody + `)(?:\s+(.*))?$`)
	counterpartyIBAN    = regexp.MustCompile(`^(?:IBAN\s*:?\s*)?(` + ibanBody + `)(?:\s+([A-Z]{3}))?$`)
	bicPattern          = regexp.MustCompile(`^(?:BIC\s*:?\s*)?([A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?)$`)
	headerBICPattern    = regexp.MustCompile(`^BIC\s+([A-Z0-9]{8,11})\b`)
	currencyPattern     = regexp.MustCompile(`^[A-Z]{3}$`)
	titlePattern        = regexp.MustCompile(`Extrait\s+N[°ºo]\.?\s*(\d{4})\s*-\s*(\d{1,3})\b`)
	balancePattern      = regexp.MustCompile(`^Solde (actuel|précédent) au (\d{2}-\d{2}-\d{4})\s+([0-9][0-9.,]*)\s*([+-])$`)
	dateLinePattern     = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
	openingPattern      = regexp.MustCompile(`^(0\d{3})\s+(\S.*)$`)
	amountFormat        = regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d+)?$`)
	valueLinePattern    = regexp.MustCompile(`^(\d{2})-(\d{2})(?:-(\d{4}))?\s+([0-9][0-9.,]*)\s*([+-])$`)
	ruleLinePattern     = regexp.MustCompile(`^[-_=]{5,}$`)
	inlineDatePattern   = regexp.MustCompile(`^(\d{2})[-/.](\d{2})[-/.](\d{4})$`)
	executionLabel      = regexp.MustCompile(`(?i)^(?:date\s+d['’]\s*ex[ée]cution|date\s+ex[ée]cution|date\s+d['’]\s*op[ée]ration|ex[ée]cut[ée]\s+le)\s*:?\s*(.*)$`)
	communicationLabel  = regexp.MustCompile(`(?i)^communication(?:\s+libre|\s+structur[ée]e)?(?:\s*:\s*|\s+|$)(.*)$`)
	bankReferenceLabel  = regexp.MustCompile(`(?i)^r[ée]f(?:[ée]rence|\.)?\s*(?:de\s+la\s+)?banque\s*:?\s*(.*)$`)
	orderReferenceLabel = regexp.MustCompile(`(?i)^r[ée]f(?:[ée]rence|\.)?\s*(?:du\s+)?(?:donneur\s+d['’]\s*ordre|client)\s*:?\s*(.*)$`)
)

var footerPrefixes = []string{"Solde ", "Les dépôts "}

func isFooter(line string) bool {
	for _, prefix := range footerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return ruleLinePattern.MatchString(line)
}

func isOpening(line string) bool {
	return openingPattern.MatchString(line)
}

func isDateLine(line string) bool {
	return dateLinePattern.MatchString(line)
}

func isValueLine(line string) bool {
	return valueLinePattern.MatchString(line)
}

func isLabel(line string) bool {
	return executionLabel.MatchString(line) ||
		communicationLabel.MatchString(line) ||
		bankReferenceLabel.MatchString(line) ||
		orderReferenceLabel.MatchString(line)
}

// endsDetailBlock reports lines that can never belong to an operation's details.
func endsDetailBlock(line string) bool {
	return isValueLine(line) || isOpening(line) || isFooter(line) || isDateLine(line)
}

var operationsTitles = []string{
	"opérations",
	"operations",
	"mouvements",
	"détail des opérations",
	"detail des operations",
	"liste des opérations",
}

// isOperationsHeader recognises the line introducing the operations table:
// either column headings naming a date and an amount, or a table title.
func isOperationsHeader(line string) bool {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "date") && strings.Contains(lower, "montant") {
		return true
	}
	for _, title := range operationsTitles {
		if lower == title || strings.HasPrefix(lower, title+" ") {
			return true
		}
	}
	return false
}

func compactIBAN(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
