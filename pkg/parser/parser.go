package parser

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/bankrec/pkg/lines"
	"github.com/yurifrl/bankrec/pkg/models"
	"github.com/yurifrl/bankrec/pkg/source"
)

const DefaultCurrency = "EUR"

type Parser struct {
	logger   *log.Logger
	currency string
	now      func() time.Time
}

type Option func(*Parser)

// WithDefaultCurrency sets the currency used when the account anchor
// carries none.
func WithDefaultCurrency(currency string) Option {
	return func(p *Parser) {
		if currency != "" {
			p.currency = currency
		}
	}
}

// WithClock replaces the clock used for fallback statement IDs.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

func New(logger *log.Logger, opts ...Option) *Parser {
	p := &Parser{
		logger:   logger,
		currency: DefaultCurrency,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse turns an extracted document into a statement. Documents without an
// account anchor or an operations header are rejected with a *ParseError.
func (p *Parser) Parse(doc *source.Document) (*models.Statement, error) {
	st, err := p.ParseLines(doc.Name, doc.Lines)
	if err != nil {
		return nil, err
	}
	st.Source = models.Source{
		Type:       string(doc.Type),
		OriginPath: doc.Path,
		EntryName:  doc.Name,
	}
	return st, nil
}

// ParseLines parses raw extracted lines. name is used for diagnostics and
// for the fallback statement ID.
func (p *Parser) ParseLines(name string, raw []string) (*models.Statement, error) {
	norm := lines.Normalize(raw)
	p.logger.Debug("normalized lines", "document", name, "lines", len(norm.Lines))

	start := newCursor(norm.Lines)
	anchor := locateAnchor(start)
	if anchor.done() {
		p.logger.Warn("document rejected", "document", name, "reason", ReasonMissingAnchor)
		return nil, &ParseError{Document: name, Reason: ReasonMissingAnchor}
	}
	table := locateOperationsHeader(anchor.next())
	if table.done() {
		p.logger.Warn("document rejected", "document", name, "reason", ReasonMissingOperationsHeader)
		return nil, &ParseError{Document: name, Reason: ReasonMissingOperationsHeader}
	}

	hdr := p.readHeader(norm.Lines, anchor, table)
	ops, _ := p.operationLoop(table.next(), loopState{
		statementYear: hdr.year,
		currency:      hdr.currency,
	})

	st := &models.Statement{
		Source: models.Source{Type: string(source.TypeMem), EntryName: name},
		Account: models.Account{
			IBAN:     hdr.iban,
			Name:     hdr.name,
			Currency: hdr.currency,
			BIC:      hdr.bic,
		},
		Balances: models.Balances{
			Opening: hdr.opening,
			Closing: hdr.closing,
		},
		StatementNumber: hdr.number,
		StatementYear:   hdr.year,
		Operations:      ops,
		RawLines:        norm.Raw,
	}
	st.StatementID = StatementID(hdr.iban, hdr.year, hdr.number, name, p.now(), norm.Raw)

	p.logger.Info("parsed statement",
		"document", name,
		"statement", st.StatementID,
		"iban", st.Account.IBAN,
		"operations", len(ops),
	)
	return st, nil
}
