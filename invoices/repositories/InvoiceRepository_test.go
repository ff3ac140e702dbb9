package repositories

import (
	"context"
	"testing"
	"time"

	"retail-backoffice/db/models"
	"retail-backoffice/internal/testutil"
	"retail-backoffice/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProcessingInvoice(t *testing.T, db *gorm.DB, repo InvoiceRepository) *models.Invoice {
	t.Helper()
	wholesaler := testutil.CreateWholesaler(t, db)
	invoice := &models.Invoice{
		WholesalerID: wholesaler.ID,
		FileName:     "invoice.pdf",
		InvoiceDate:  time.Now(),
	}
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, invoice))
	require.NoError(t, repo.BeginProcessing(ctx, invoice.ID, utils.BlobLocator{PublicID: "invoices/x", URL: "memory://x"}, 7))
	return invoice
}

func TestTransition_IsCompareAndSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	require.NoError(t, repo.Transition(ctx, invoice.ID, models.InvoiceFailed, nil))

	// a second writer that still believes the invoice is processing loses
	err := repo.Transition(ctx, invoice.ID, models.InvoiceProcessed, nil)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.InvoiceFailed, transitionErr.From)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_UnknownInvoice(t *testing.T) {
	repo := NewInvoiceRepository(testutil.NewTestDB(t))
	err := repo.Transition(context.Background(), uuid.New(), models.InvoiceProcessed, nil)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestProgressSave_NeverDecreases(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	saved, err := repo.Progress().Save(ctx, invoice.ID, Checkpoint{Stage: "extracted", Percentage: 40})
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = repo.Progress().Save(ctx, invoice.ID, Checkpoint{Stage: "extracting", Percentage: 20})
	require.NoError(t, err)
	assert.False(t, saved)

	progress, err := repo.Progress().Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, progress.Percentage)
	assert.Equal(t, "extracted", progress.CurrentStage)
}

func TestMarkFailed_FreezesProgressWithError(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	_, err := repo.Progress().Save(ctx, invoice.ID, Checkpoint{Stage: "categorizing", Percentage: 50})
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, invoice.ID, "boom"))

	stored, err := repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceFailed, stored.Status)

	progress, err := repo.Progress().Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, progress.Percentage)
	require.NotNil(t, progress.ErrorMessage)
	assert.Equal(t, "boom", *progress.ErrorMessage)

	// a retry opens a new attempt from zero
	require.NoError(t, repo.RestartProcessing(ctx, invoice.ID, 7))
	progress, err = repo.Progress().Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Percentage)
	assert.Equal(t, 2, progress.Attempt)
	assert.Nil(t, progress.ErrorMessage)
}

func TestReplaceLineItems_DoesNotAppend(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	batch := func() []models.ExtractedLineItem {
		return []models.ExtractedLineItem{
			{LineNumber: 1, Name: "Cola", Quantity: 1, UnitCost: decimal.NewFromInt(5)},
			{LineNumber: 2, Name: "Chips", Quantity: 2, UnitCost: decimal.NewFromInt(1)},
		}
	}
	require.NoError(t, repo.ReplaceLineItems(ctx, invoice.ID, batch()))
	require.NoError(t, repo.ReplaceLineItems(ctx, invoice.ID, batch()))

	items, err := repo.ListLineItems(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDelete_RemovesOwnedRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	require.NoError(t, repo.ReplaceLineItems(ctx, invoice.ID, []models.ExtractedLineItem{
		{LineNumber: 1, Name: "Cola", Quantity: 1, UnitCost: decimal.NewFromInt(5)},
	}))

	deleted, err := repo.Delete(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoices/x", deleted.StoragePublicID)

	var count int64
	require.NoError(t, db.Model(&models.ExtractedLineItem{}).Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.ProcessingProgress{}).Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = repo.Delete(ctx, invoice.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestUpdateLineItemCategory_RecoversFailedInvoiceOnceResolved(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	require.NoError(t, repo.ReplaceLineItems(ctx, invoice.ID, []models.ExtractedLineItem{
		{LineNumber: 1, Name: "Cola", Quantity: 2, UnitCost: decimal.NewFromInt(5)},
		{LineNumber: 2, Name: "Chips", Quantity: 4, UnitCost: decimal.RequireFromString("1.50")},
	}))
	_, err := repo.Progress().Save(ctx, invoice.ID, Checkpoint{Stage: "categorizing", Percentage: 50})
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, invoice.ID, "CategorizationValidationError: invented category"))

	items, err := repo.ListLineItems(ctx, invoice.ID)
	require.NoError(t, err)

	_, status, err := repo.UpdateLineItemCategory(ctx, invoice.ID, items[0].ID, "Soft Drinks")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceFailed, status, "chips still has no category")

	item, status, err := repo.UpdateLineItemCategory(ctx, invoice.ID, items[1].ID, "Snacks & Chips")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceProcessed, status)
	assert.Equal(t, "Snacks & Chips", item.CategoryName())

	stored, err := repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceProcessed, stored.Status)
	assert.Nil(t, stored.ErrorMessage)
	assert.Equal(t, 2, stored.TotalItems)
	assert.Equal(t, "16.00", stored.TotalAmount.StringFixed(2))

	progress, err := repo.Progress().Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Percentage)
	assert.Equal(t, 7, progress.StepNumber)
	assert.Nil(t, progress.ErrorMessage)

	// the pipeline itself still cannot revive a failed run
	assert.False(t, models.InvoiceFailed.CanTransitionTo(models.InvoiceProcessed))
}

func TestUpdateLineItemCategory_ProcessedInvoiceKeepsStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	invoice := newProcessingInvoice(t, db, repo)

	require.NoError(t, repo.ReplaceLineItems(ctx, invoice.ID, []models.ExtractedLineItem{
		{LineNumber: 1, Name: "Cola", Quantity: 1, UnitCost: decimal.NewFromInt(5)},
	}))
	require.NoError(t, repo.MarkProcessed(ctx, invoice.ID, Checkpoint{Stage: "complete", Percentage: 100}))
	items, err := repo.ListLineItems(ctx, invoice.ID)
	require.NoError(t, err)

	_, status, err := repo.UpdateLineItemCategory(ctx, invoice.ID, items[0].ID, "Juices")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceProcessed, status)

	_, _, err = repo.UpdateLineItemCategory(ctx, invoice.ID, uuid.New(), "Juices")
	assert.ErrorIs(t, err, ErrLineItemNotFound)
}
