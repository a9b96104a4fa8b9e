package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCurrency marks a ledger row whose currency has no rate.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrNonNumericAmount marks a ledger row whose amount does not parse.
	ErrNonNumericAmount = errors.New("non-numeric amount")
	// ErrNoActiveBudget is returned when no budget file is active.
	ErrNoActiveBudget = errors.New("no active budget")
	// ErrFileNotFound is returned for an unknown uploaded file id.
	ErrFileNotFound = errors.New("file not found")

	ErrExceedsRemaining    = errors.New("allocation exceeds remaining balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrMissingStatus       = errors.New("status is required")
	ErrDuplicateEntry      = errors.New("duplicate classification entry")
	ErrNothingToSave       = errors.New("nothing valid to save")
	ErrStatusNotAssignable = errors.New("status is computed from the ledger and cannot be assigned")
	ErrLineNotFound        = errors.New("budget line not found")
	ErrAllocationNotFound  = errors.New("allocation not found")
	ErrVersionConflict     = errors.New("classification set changed since it was loaded")
	ErrNotUploader         = errors.New("only the uploader may delete a file")
)

// SchemaError is a structural failure in an input table or configuration
// value. It aborts the whole operation.
type SchemaError struct {
	Reason  string
	Columns []string
	Value   string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if len(e.Columns) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Columns, ", "))
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ": %q", e.Value)
	}
	return b.String()
}

// ValidationError is a recoverable rejection of a user edit or save.
// Nothing is committed when one is returned.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps a validation sentinel with a detail message.
func Invalid(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// BoundaryError is a failure of an external collaborator (blob store,
// ledger source, rate service, database). Callers decide whether to retry.
type BoundaryError struct {
	Service string
	Err     error
}

func (e *BoundaryError) Error() string {
	return e.Service + ": " + e.Err.Error()
}

func (e *BoundaryError) Unwrap() error { return e.Err }

// Boundary wraps err as a BoundaryError for service. nil stays nil.
func Boundary(service string, err error) error {
	if err == nil {
		return nil
	}
	var be *BoundaryError
	if errors.As(err, &be) {
		return err
	}
	return &BoundaryError{Service: service, Err: err}
}

// IsSchema reports whether err is or wraps a SchemaError.
func IsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsBoundary reports whether err is or wraps a BoundaryError.
func IsBoundary(err error) bool {
	var be *BoundaryError
	return errors.As(err, &be)
}
