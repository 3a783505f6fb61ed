package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IndexEntry is an operation denormalized with its statement reference.
type IndexEntry struct {
	StatementID       string           `json:"statementId"`
	AccountIBAN       string           `json:"accountIban"`
	AccountName       *string          `json:"accountName"`
	StatementYear     *int             `json:"statementYear"`
	StatementNumber   *int             `json:"statementNumber"`
	File              string           `json:"file"`
	Sequence          string           `json:"sequence"`
	Title             string           `json:"title"`
	BookingDate       *Date            `json:"bookingDate"`
	ExecutionDate     *Date            `json:"executionDate"`
	ValueDate         *Date            `json:"valueDate"`
	Amount            *decimal.Decimal `json:"amount"`
	Currency          string           `json:"currency"`
	Direction         Direction        `json:"direction,omitempty"`
	Communication     *string          `json:"communication"`
	BankReference     *string          `json:"bankReference"`
	OrderReference    *string          `json:"orderReference"`
	Counterparty      Counterparty     `json:"counterparty"`
	AdditionalDetails []string         `json:"additionalDetails"`
	Anomalies         []string         `json:"anomalies,omitempty"`
}

// NewIndexEntry denormalizes op with its parent statement.
func NewIndexEntry(st *Statement, op Operation, file string) IndexEntry {
	return IndexEntry{
		StatementID:       st.StatementID,
		AccountIBAN:       st.Account.IBAN,
		AccountName:       st.Account.Name,
		StatementYear:     st.StatementYear,
		StatementNumber:   st.StatementNumber,
		File:              file,
		Sequence:          op.Sequence,
		Title:             op.Title,
		BookingDate:       op.BookingDate,
		ExecutionDate:     op.ExecutionDate,
		ValueDate:         op.ValueDate,
		Amount:            op.Amount,
		Currency:          op.Currency,
		Direction:         op.Direction,
		Communication:     op.Communication,
		BankReference:     op.BankReference,
		OrderReference:    op.OrderReference,
		Counterparty:      op.Counterparty,
		AdditionalDetails: op.AdditionalDetails,
		Anomalies:         op.Anomalies,
	}
}

// Key identifies an entry across the index.
func (e *IndexEntry) Key() string {
	return e.StatementID + "/" + e.Sequence
}

// SettlementDate mirrors Operation.SettlementDate.
func (e *IndexEntry) SettlementDate() *Date {
	if e.ValueDate != nil {
		return e.ValueDate
	}
	return e.BookingDate
}

// The accessors below let entries flow through the generic CSV writer.

func (e *IndexEntry) Date() string {
	if d := e.SettlementDate(); d != nil {
		return d.String()
	}
	return ""
}

func (e *IndexEntry) Payee() string {
	if e.Counterparty.Name != nil {
		return *e.Counterparty.Name
	}
	return e.Title
}

func (e *IndexEntry) Memo() string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{e.Communication, e.BankReference, e.OrderReference} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " ")
}

func (e *IndexEntry) Amount64() float64 {
	if e.Amount == nil {
		return 0
	}
	f, _ := e.Amount.Float64()
	return f
}

// Index is the aggregated, flat collection of entries.
type Index struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Operations  []IndexEntry `json:"operations"`
}
