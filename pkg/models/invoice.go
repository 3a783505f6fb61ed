package models

import (
	"github.com/shopspring/decimal"
)

// Invoice is supplied by the invoicing collaborator and never modified here.
type Invoice struct {
	ID          string          `json:"id" yaml:"id"`
	Number      string          `json:"number" yaml:"number"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Balance     decimal.Decimal `json:"balance" yaml:"balance"`
	InvoiceDate *Date           `json:"invoiceDate" yaml:"invoiceDate"`
	DueDate     *Date           `json:"dueDate" yaml:"dueDate"`
	ClientName  string          `json:"clientName" yaml:"clientName"`
}

// Label returns the invoice number, falling back to its id.
func (i *Invoice) Label() string {
	if i.Number != "" {
		return i.Number
	}
	return i.ID
}

// ReferenceDate is the invoice date when known, the due date otherwise.
func (i *Invoice) ReferenceDate() *Date {
	if i.InvoiceDate != nil {
		return i.InvoiceDate
	}
	return i.DueDate
}

// MatchCandidate links an invoice target to one index entry.
type MatchCandidate struct {
	TargetLabel string      `json:"targetLabel"`
	Entry       *IndexEntry `json:"entry"`
	DaysDiff    *int        `json:"daysDiff"`
	RefScore    int         `json:"refScore"`
	NameScore   int         `json:"nameScore"`
	Confidence  int         `json:"confidence"`
}
