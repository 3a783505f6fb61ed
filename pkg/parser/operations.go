package parser

import (
	"strings"

	"github.com/yurifrl/bankrec/pkg/models"
)

// loopState is the context threaded through the operation loop.
type loopState struct {
	booking       *models.Date
	statementYear *int
	currency      string
}

// blockEnd records why a detail block stopped.
type blockEnd int

const (
	endInput blockEnd = iota
	endValueLine
	endNextEntry
	endFooter
)

// ParseOperations runs the operation loop alone over already normalized
// lines, starting with the given booking date context.
func (p *Parser) ParseOperations(lines []string, bookingDate *models.Date) []models.Operation {
	ops, _ := p.operationLoop(newCursor(lines), loopState{booking: bookingDate, currency: p.currency})
	return ops
}

func (p *Parser) operationLoop(c cursor, st loopState) ([]models.Operation, cursor) {
	ops := make([]models.Operation, 0)
	for !c.done() {
		line := c.line()
		switch {
		case isFooter(line):
			p.logger.Debug("end of operations", "line", line)
			return ops, c
		case isDateLine(line):
			if d, ok := parseDMY(line); ok {
				st.booking = &d
			}
			c = c.next()
		case isOpening(line):
			var op models.Operation
			op, c = p.parseOperation(c, st)
			ops = append(ops, op)
		default:
			p.logger.Debug("skipping line outside operation", "line", line)
			c = c.next()
		}
	}
	return ops, c
}

// parseOperation consumes an opening line and its detail block.
func (p *Parser) parseOperation(c cursor, st loopState) (models.Operation, cursor) {
	m := openingPattern.FindStringSubmatch(c.line())
	op := models.Operation{
		Sequence:          m[1],
		Title:             strings.TrimSpace(m[2]),
		BookingDate:       st.booking,
		Currency:          st.currency,
		AdditionalDetails: []string{},
		RawDetails:        models.RawDetails{DetailLines: []string{}},
	}
	c = c.next()

	var (
		details []detail
		value   *valueLine
		end     = endInput
	)
block:
	for !c.done() {
		line := c.line()
		switch {
		case isValueLine(line):
			vl, _ := matchValueLine(line)
			value = &vl
			c = c.next()
			end = endValueLine
			break block
		case isOpening(line), isDateLine(line):
			end = endNextEntry
			break block
		case isFooter(line):
			end = endFooter
			break block
		default:
			var d detail
			d, c = classifyDetail(c)
			p.logger.Debug("detail line", "sequence", op.Sequence, "kind", d.kind, "text", d.text)
			details = append(details, d)
		}
	}
	foldDetails(&op, details)

	if value == nil && (end == endFooter || end == endInput) {
		if vl, ok := scanValueLine(c); ok {
			p.logger.Debug("value line found past the detail block", "sequence", op.Sequence, "line", vl.raw)
			value = &vl
		}
	}
	if value == nil {
		op.AddAnomaly(models.AnomalyValueLineMissing)
		p.logger.Warn("value line missing", "sequence", op.Sequence, "title", op.Title)
		return op, c
	}

	p.applyValueLine(&op, *value, st)
	return op, c
}

// scanValueLine looks ahead for the next value-line-shaped line without
// crossing into another operation. The caller's cursor is left untouched.
func scanValueLine(c cursor) (valueLine, bool) {
	for ; !c.done(); c = c.next() {
		line := c.line()
		if isOpening(line) {
			return valueLine{}, false
		}
		if vl, ok := matchValueLine(line); ok {
			return vl, true
		}
	}
	return valueLine{}, false
}

func (p *Parser) applyValueLine(op *models.Operation, vl valueLine, st loopState) {
	op.RawDetails.ValueLine = models.StringPtr(vl.raw)
	if vl.amountErr != nil {
		op.AddAnomaly(models.AnomalyNumericFormatError)
		p.logger.Warn("unparseable amount, using 0", "sequence", op.Sequence, "line", vl.raw, "error", vl.amountErr)
	}
	op.SetAmount(vl.amount)

	date, ok := vl.date(st.booking, st.statementYear)
	if !ok {
		op.AddAnomaly(models.AnomalyValueDateInvalid)
		p.logger.Warn("value date unresolved", "sequence", op.Sequence, "line", vl.raw)
		return
	}
	op.ValueDate = &date
}
