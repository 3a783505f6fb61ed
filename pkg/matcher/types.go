package matcher

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Target labels, in priority order.
const (
	TargetInvoiceAmount  = "invoice amount"
	TargetPartialPayment = "partial payment"
)

// ErrInvalidInvoice is returned for invoices that cannot be matched at all.
var ErrInvalidInvoice = errors.New("invalid invoice")

// Config holds matcher configuration
type Config struct {
	WindowDays       int             // Default: 120
	AmountTolerance  decimal.Decimal // Default: 0.001
	PartialThreshold decimal.Decimal // Default: 0.01, minimum amount − balance for a partial target
	MaxCandidates    int             // Default: 5
}

// DefaultConfig returns the reconciliation defaults
func DefaultConfig() Config {
	return Config{
		WindowDays:       120,
		AmountTolerance:  decimal.New(1, -3),
		PartialThreshold: decimal.New(1, -2),
		MaxCandidates:    5,
	}
}

// target is one amount an invoice may have been paid with.
type target struct {
	label string
	value decimal.Decimal
}
