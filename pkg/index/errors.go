package index

import (
	"errors"
	"fmt"
)

// ErrIndexConflict is wrapped by every ConflictError.
var ErrIndexConflict = errors.New("index conflict")

// ConflictError reports a statement artifact that already exists and may
// not be overwritten.
type ConflictError struct {
	StatementID string
	Path        string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("artifact for statement %s already exists: %s", e.StatementID, e.Path)
}

func (e *ConflictError) Unwrap() error {
	return ErrIndexConflict
}

// WriteError reports a statement whose artifact could not be written. The
// statement is left out of the index; the rest of the batch still runs.
type WriteError struct {
	StatementID string
	Path        string
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write artifact for statement %s: %v", e.StatementID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
