package models

import (
	"github.com/shopspring/decimal"
)

// Statement is one parsed bank statement document.
type Statement struct {
	StatementID     string      `json:"statementId"`
	Source          Source      `json:"source"`
	Account         Account     `json:"account"`
	Balances        Balances    `json:"balances"`
	StatementNumber *int        `json:"statementNumber"`
	StatementYear   *int        `json:"statementYear"`
	Operations      []Operation `json:"operations"`
	RawLines        []string    `json:"rawStatementLines"`
}

// Source describes where the statement text came from.
type Source struct {
	Type       string `json:"type"`
	OriginPath string `json:"originPath"`
	EntryName  string `json:"entryName"`
}

type Account struct {
	IBAN     string  `json:"iban"`
	Name     *string `json:"name"`
	Currency string  `json:"currency"`
	BIC      *string `json:"bic"`
}

type Balances struct {
	Opening *Balance `json:"opening"`
	Closing *Balance `json:"closing"`
}

// Balance is a dated account balance, signed.
type Balance struct {
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
