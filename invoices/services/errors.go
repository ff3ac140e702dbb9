package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvoiceBusy = errors.New("invoice is already being processed")

// TransferError means the document never reached the blob store.
type TransferError struct {
	InvoiceID uuid.UUID
	Err       error
}

func (e *TransferError) Error() string {
	return "TransferError: " + e.Err.Error()
}

func (e *TransferError) Unwrap() error { return e.Err }

// ExtractionFormatError carries the raw model output that could not be parsed.
type ExtractionFormatError struct {
	Reason string
	Raw    string
}

func (e *ExtractionFormatError) Error() string {
	return "ExtractionFormatError: " + e.Reason
}

type TimeoutError struct {
	Stage   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("TimeoutError: %s did not respond within %s", e.Stage, e.Timeout)
}

// CategorizationValidationError rejects a whole categorization response.
type CategorizationValidationError struct {
	Reason string
	Raw    string
}

func (e *CategorizationValidationError) Error() string {
	return "CategorizationValidationError: " + e.Reason
}

// StageError is returned by a pipeline run that stopped at Stage. The invoice
// has already been marked failed when this is returned.
type StageError struct {
	InvoiceID uuid.UUID
	Stage     string
	Err       error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// truncate keeps raw model output readable in logs.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
