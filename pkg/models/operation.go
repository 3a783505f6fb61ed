package models

import (
	"github.com/shopspring/decimal"
)

// Direction of an operation, derived from the sign of its amount.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Anomaly kinds recorded on operations. None of them abort a parse.
const (
	AnomalyValueLineMissing   = "ValueLineMissing"
	AnomalyNumericFormatError = "NumericFormatError"
	AnomalyValueDateInvalid   = "ValueDateInvalid"
)

// Operation is one line item of a statement.
type Operation struct {
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
	RawDetails        RawDetails       `json:"rawDetails"`
}

type Counterparty struct {
	Account *string `json:"account"`
	BIC     *string `json:"bic"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// RawDetails keeps the lines an operation was built from.
type RawDetails struct {
	DetailLines []string `json:"detailLines"`
	ValueLine   *string  `json:"valueLine"`
}

// SetAmount stores a signed amount and derives the direction from it.
func (o *Operation) SetAmount(amount decimal.Decimal) {
	o.Amount = &amount
	if amount.IsPositive() {
		o.Direction = DirectionCredit
	} else {
		o.Direction = DirectionDebit
	}
}

// AddAnomaly records a non-fatal parse anomaly once.
func (o *Operation) AddAnomaly(kind string) {
	for _, a := range o.Anomalies {
		if a == kind {
			return
		}
	}
	o.Anomalies = append(o.Anomalies, kind)
}

// SettlementDate is the date used when comparing an operation with other records:
// the value date when known, the booking date otherwise.
func (o *Operation) SettlementDate() *Date {
	if o.ValueDate != nil {
		return o.ValueDate
	}
	return o.BookingDate
}
