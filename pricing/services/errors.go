package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIncompletePricing means some items could not be priced, so the invoice
// was not finalized.
var ErrIncompletePricing = errors.New("some items could not be priced")

// PricingInputError is a caller-side problem with margins or categories.
// LineItemID is nil when the whole request was rejected.
type PricingInputError struct {
	LineItemID *uuid.UUID
	Category   string
	Reason     string
}

func (e *PricingInputError) Error() string {
	if e.LineItemID != nil {
		return fmt.Sprintf("PricingInputError: item %s: %s", e.LineItemID, e.Reason)
	}
	return "PricingInputError: " + e.Reason
}

// SuggestionFormatError carries a margin suggestion reply that had no usable JSON.
type SuggestionFormatError struct {
	Raw string
}

func (e *SuggestionFormatError) Error() string {
	return "SuggestionFormatError: no JSON object found in model response"
}
