package parser

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every ParseError.
var ErrRejected = errors.New("statement rejected")

const (
	ReasonMissingAnchor           = "missing account anchor"
	ReasonMissingOperationsHeader = "missing operations header"
)

// ParseError aborts the current document only.
type ParseError struct {
	Document string
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("parse error: %s", e.Reason)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Document, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrRejected
}
