package parser

import (
	"regexp"
	"strings"

	"github.com/yurifrl/bankrec/pkg/models"
)

// detailKind is the closed set of detail line variants.
type detailKind int

const (
	detailExecutionDate detailKind = iota
	detailCommunication
	detailBankReference
	detailOrderReference
	detailCounterpartyIBAN
	detailCounterpartyBIC
	detailResidual
)

func (k detailKind) String() string {
	switch k {
	case detailExecutionDate:
		return "execution_date"
	case detailCommunication:
		return "communication"
	case detailBankReference:
		return "bank_reference"
	case detailOrderReference:
		return "order_reference"
	case detailCounterpartyIBAN:
		return "counterparty_iban"
	case detailCounterpartyBIC:
		return "counterparty_bic"
	default:
		return "residual"
	}
}

// detail is one classified element of an operation's detail block. It may
// span two lines when a label's value sits on the following line.
type detail struct {
	kind     detailKind
	text     string
	date     *models.Date
	currency string
	lines    []string
}

// textLabels are tried in order after the execution date label.
var textLabels = []struct {
	kind    detailKind
	pattern *regexp.Regexp
}{
	{detailCommunication, communicationLabel},
	{detailBankReference, bankReferenceLabel},
	{detailOrderReference, orderReferenceLabel},
}

// classifyDetail reads the detail at c and returns it with the cursor past
// every line it consumed.
func classifyDetail(c cursor) (detail, cursor) {
	line := c.line()

	if m := executionLabel.FindStringSubmatch(line); m != nil {
		d := detail{kind: detailExecutionDate, lines: []string{line}}
		value := strings.TrimSpace(m[1])
		if value == "" {
			if nextLine, ok := c.peek(); ok {
				if date, ok := parseDMY(nextLine); ok {
					d.date = &date
					d.lines = append(d.lines, nextLine)
					return d, c.advance(2)
				}
			}
			return d, c.next()
		}
		if date, ok := parseDMY(value); ok {
			d.date = &date
		}
		return d, c.next()
	}

	for _, label := range textLabels {
		m := label.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := detail{kind: label.kind, text: strings.TrimSpace(m[1]), lines: []string{line}}
		if d.text != "" {
			return d, c.next()
		}
		if nextLine, ok := c.peek(); ok && takesLabelValue(nextLine) {
			d.text = nextLine
			d.lines = append(d.lines, nextLine)
			return d, c.advance(2)
		}
		return d, c.next()
	}

	if m := counterpartyIBAN.FindStringSubmatch(line); m != nil {
		return detail{
			kind:     detailCounterpartyIBAN,
			text:     compactIBAN(m[1]),
			currency: m[2],
			lines:    []string{line},
		}, c.next()
	}

	if m := bicPattern.FindStringSubmatch(line); m != nil {
		return detail{kind: detailCounterpartyBIC, text: m[1], lines: []string{line}}, c.next()
	}

	return detail{kind: detailResidual, text: line, lines: []string{line}}, c.next()
}

// takesLabelValue reports whether line can be the value of a label printed
// alone on the previous line. Lines with a shape of their own keep it.
func takesLabelValue(line string) bool {
	return !endsDetailBlock(line) &&
		!isLabel(line) &&
		!counterpartyIBAN.MatchString(line) &&
		!bicPattern.MatchString(line)
}

// foldDetails applies classified details to op in order. The first residual
// line names the counterparty, the second is its address, the rest are kept
// as additional details.
func foldDetails(op *models.Operation, details []detail) {
	residuals := 0
	for _, d := range details {
		op.RawDetails.DetailLines = append(op.RawDetails.DetailLines, d.lines...)

		switch d.kind {
		case detailExecutionDate:
			if d.date != nil && op.ExecutionDate == nil {
				op.ExecutionDate = d.date
			}
		case detailCommunication:
			op.Communication = appendText(op.Communication, d.text)
		case detailBankReference:
			op.BankReference = appendText(op.BankReference, d.text)
		case detailOrderReference:
			op.OrderReference = appendText(op.OrderReference, d.text)
		case detailCounterpartyIBAN:
			if op.Counterparty.Account != nil {
				op.AdditionalDetails = append(op.AdditionalDetails, d.lines...)
				continue
			}
			op.Counterparty.Account = models.StringPtr(d.text)
			if d.currency != "" {
				op.Currency = d.currency
			}
		case detailCounterpartyBIC:
			if op.Counterparty.BIC != nil {
				op.AdditionalDetails = append(op.AdditionalDetails, d.text)
				continue
			}
			op.Counterparty.BIC = models.StringPtr(d.text)
		case detailResidual:
			residuals++
			switch residuals {
			case 1:
				op.Counterparty.Name = models.StringPtr(d.text)
			case 2:
				op.Counterparty.Address = models.StringPtr(d.text)
			default:
				op.AdditionalDetails = append(op.AdditionalDetails, d.text)
			}
		}
	}
}

// appendText joins repeated labelled values with a space.
func appendText(current *string, text string) *string {
	if text == "" {
		return current
	}
	if current == nil {
		return models.StringPtr(text)
	}
	joined := *current + " " + text
	return &joined
}
