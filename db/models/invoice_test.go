package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusTransitions(t *testing.T) {
	allowed := map[InvoiceStatus][]InvoiceStatus{
		InvoiceUploaded:   {InvoiceProcessing, InvoiceUploadFailed, InvoiceFailed},
		InvoiceProcessing: {InvoiceProcessed, InvoiceFailed},
		InvoiceProcessed:  {InvoicePricesSet, InvoiceFailed},
		InvoicePricesSet:  {InvoiceCompleted, InvoiceFailed},
		InvoiceFailed:     {InvoiceProcessing},
	}
	all := []InvoiceStatus{
		InvoiceUploaded, InvoiceUploadFailed, InvoiceProcessing, InvoiceProcessed,
		InvoicePricesSet, InvoiceCompleted, InvoiceFailed,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestInvoiceStatusRejectsUnknownValues(t *testing.T) {
	typo := InvoiceStatus("procesed")
	assert.False(t, typo.IsValid())
	assert.False(t, typo.CanTransitionTo(InvoiceProcessed))
	assert.False(t, InvoiceProcessing.CanTransitionTo(typo))
}

func TestPredecessorsOf(t *testing.T) {
	assert.ElementsMatch(t, []InvoiceStatus{InvoiceUploaded, InvoiceFailed}, PredecessorsOf(InvoiceProcessing))
	assert.ElementsMatch(t,
		[]InvoiceStatus{InvoiceUploaded, InvoiceProcessing, InvoiceProcessed, InvoicePricesSet},
		PredecessorsOf(InvoiceFailed),
	)
	assert.Empty(t, PredecessorsOf(InvoiceUploaded))
}
