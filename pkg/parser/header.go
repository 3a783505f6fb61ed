package parser

import (
	"strconv"
	"strings"

	"github.com/yurifrl/bankrec/pkg/models"
)

// header holds the statement-level fields found around the account anchor.
type header struct {
	iban     string
	name     *string
	currency string
	bic      *string
	number   *int
	year     *int
	opening  *models.Balance
	closing  *models.Balance
}

func locateAnchor(c cursor) cursor {
	return c.seek(anchorPattern.MatchString)
}

func locateOperationsHeader(c cursor) cursor {
	return c.seek(isOperationsHeader)
}

// readHeader extracts header fields. The BIC is only looked for above the
// operations table so counterparty BICs are never taken for the account's.
func (p *Parser) readHeader(all []string, anchor, table cursor) header {
	m := anchorPattern.FindStringSubmatch(anchor.line())
	h := header{iban: compactIBAN(m[1]), currency: p.currency}
	for _, tok := range strings.Fields(m[2]) {
		if tok != "BIC" && currencyPattern.MatchString(tok) {
			h.currency = tok
			break
		}
	}
	if anchor.pos > 0 {
		h.name = models.StringPtr(all[anchor.pos-1])
	}

	for _, line := range all[:table.pos] {
		if bm := headerBICPattern.FindStringSubmatch(line); bm != nil {
			h.bic = models.StringPtr(bm[1])
			break
		}
	}

	for _, line := range all {
		if h.number == nil {
			if tm := titlePattern.FindStringSubmatch(line); tm != nil {
				year, _ := strconv.Atoi(tm[1])
				number, _ := strconv.Atoi(tm[2])
				h.year, h.number = &year, &number
			}
		}
		if bm := balancePattern.FindStringSubmatch(line); bm != nil {
			bal, ok := p.balance(bm)
			if !ok {
				continue
			}
			switch {
			case bm[1] == "précédent" && h.opening == nil:
				h.opening = bal
			case bm[1] == "actuel" && h.closing == nil:
				h.closing = bal
			}
		}
	}
	return h
}

func (p *Parser) balance(m []string) (*models.Balance, bool) {
	date, ok := parseDMY(m[2])
	if !ok {
		p.logger.Warn("invalid balance date", "line", m[0])
		return nil, false
	}
	amount, err := parseAmount(m[3])
	if err != nil {
		p.logger.Warn("unparseable balance amount, using 0", "line", m[0], "error", err)
	}
	return &models.Balance{Date: date, Amount: signed(amount, m[4])}, true
}
