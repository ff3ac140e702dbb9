package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-backoffice/db/models"
	"retail-backoffice/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrLineItemNotFound  = errors.New("line item not found")
	ErrInvalidTransition = errors.New("invalid invoice status transition")
)

// TransitionError reports a refused status change; it matches ErrInvalidTransition.
type TransitionError struct {
	From models.InvoiceStatus
	To   models.InvoiceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move invoice from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// CategoryAssignment is the persisted result of categorizing one line item.
type CategoryAssignment struct {
	LineItemID  uuid.UUID
	Category    *string
	NeedsReview bool
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Transition(ctx context.Context, id uuid.UUID, to models.InvoiceStatus, updates map[string]interface{}) error
	TransitionTx(tx *gorm.DB, id uuid.UUID, to models.InvoiceStatus, updates map[string]interface{}) error

	// pipeline stages
	BeginProcessing(ctx context.Context, id uuid.UUID, locator utils.BlobLocator, totalSteps int) error
	RestartProcessing(ctx context.Context, id uuid.UUID, totalSteps int) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	MarkProcessed(ctx context.Context, id uuid.UUID, checkpoint Checkpoint) error
	MarkStaleProcessingFailed(ctx context.Context, olderThan time.Duration, message string) (int64, error)

	// line items
	ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []models.ExtractedLineItem) error
	ApplyCategories(ctx context.Context, invoiceID uuid.UUID, assignments []CategoryAssignment) error
	ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.ExtractedLineItem, error)
	// UpdateLineItemCategory also returns the invoice status after the change.
	UpdateLineItemCategory(ctx context.Context, invoiceID, itemID uuid.UUID, category string) (*models.ExtractedLineItem, models.InvoiceStatus, error)

	UpdateLocation(ctx context.Context, id uuid.UUID, location string, areaType *string) error
	Delete(ctx context.Context, id uuid.UUID) (*models.Invoice, error)

	Progress() ProgressRepository
}

type invoiceRepository struct {
	db       *gorm.DB
	progress ProgressRepository
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{
		db:       db,
		progress: NewProgressRepository(db),
	}
}

func (r *invoiceRepository) Progress() ProgressRepository {
	return r.progress
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.Status == "" {
		invoice.Status = models.InvoiceUploaded
	}
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return findInvoice(r.db.WithContext(ctx), id)
}

func findInvoice(tx *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Preload("Progress").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) Transition(ctx context.Context, id uuid.UUID, to models.InvoiceStatus, updates map[string]interface{}) error {
	return r.TransitionTx(r.db.WithContext(ctx), id, to, updates)
}

// TransitionTx moves the invoice to `to` with a compare-and-set on the
// current status, so two racing writers cannot both succeed.
func (r *invoiceRepository) TransitionTx(tx *gorm.DB, id uuid.UUID, to models.InvoiceStatus, updates map[string]interface{}) error {
	from := models.PredecessorsOf(to)
	if len(from) == 0 {
		return &TransitionError{To: to}
	}

	values := map[string]interface{}{"status": to, "updated_at": time.Now()}
	for k, v := range updates {
		values[k] = v
	}

	res := tx.Model(&models.Invoice{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update invoice status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := findInvoice(tx, id)
	if err != nil {
		return err
	}
	return &TransitionError{From: current.Status, To: to}
}

func (r *invoiceRepository) BeginProcessing(ctx context.Context, id uuid.UUID, locator utils.BlobLocator, totalSteps int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := r.TransitionTx(tx, id, models.InvoiceProcessing, map[string]interface{}{
			"storage_public_id": locator.PublicID,
			"storage_url":       locator.URL,
		})
		if err != nil {
			return err
		}
		return startAttempt(tx, id, totalSteps)
	})
}

func (r *invoiceRepository) RestartProcessing(ctx context.Context, id uuid.UUID, totalSteps int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findInvoice(tx, id)
		if err != nil {
			return err
		}
		// only an explicit retry of a failed run may re-enter processing
		if current.Status != models.InvoiceFailed {
			return &TransitionError{From: current.Status, To: models.InvoiceProcessing}
		}
		err = r.TransitionTx(tx, id, models.InvoiceProcessing, map[string]interface{}{
			"error_message":  nil,
			"processed_date": nil,
		})
		if err != nil {
			return err
		}
		return startAttempt(tx, id, totalSteps)
	})
}

// MarkFailed records the error on the invoice and freezes its progress row in one commit.
func (r *invoiceRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := r.TransitionTx(tx, id, models.InvoiceFailed, map[string]interface{}{
			"error_message": message,
		})
		if err != nil {
			return err
		}
		return failAttempt(tx, id, message)
	})
}

func (r *invoiceRepository) MarkProcessed(ctx context.Context, id uuid.UUID, checkpoint Checkpoint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.ExtractedLineItem
		if err := tx.Where("invoice_id = ?", id).Find(&items).Error; err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		now := time.Now()
		err := r.TransitionTx(tx, id, models.InvoiceProcessed, map[string]interface{}{
			"total_items":    len(items),
			"total_amount":   total.Round(2),
			"processed_date": now,
			"error_message":  nil,
		})
		if err != nil {
			return err
		}
		_, err = saveCheckpoint(tx, id, checkpoint)
		return err
	})
}

// MarkStaleProcessingFailed fails invoices whose progress has not moved for olderThan.
func (r *invoiceRepository) MarkStaleProcessingFailed(ctx context.Context, olderThan time.Duration, message string) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ?", models.InvoiceProcessing).
		Where("id IN (?)", r.db.Model(&models.ProcessingProgress{}).
			Select("invoice_id").
			Where("updated_at < ?", cutoff)).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	var swept int64
	for _, id := range ids {
		if err := r.MarkFailed(ctx, id, message); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue // finished between the scan and the update
			}
			return swept, err
		}
		swept++
	}
	return swept, nil
}

// ReplaceLineItems deletes any rows from an earlier attempt before inserting,
// which keeps a repeated run from appending duplicates.
func (r *invoiceRepository) ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []models.ExtractedLineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.StaffTask{}).Error; err != nil {
			return fmt.Errorf("clear staff tasks: %w", err)
		}
		if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.ExtractedLineItem{}).Error; err != nil {
			return fmt.Errorf("clear line items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].InvoiceID = invoiceID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert line items: %w", err)
		}
		return nil
	})
}

func (r *invoiceRepository) ApplyCategories(ctx context.Context, invoiceID uuid.UUID, assignments []CategoryAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range assignments {
			res := tx.Model(&models.ExtractedLineItem{}).
				Where("id = ? AND invoice_id = ?", a.LineItemID, invoiceID).
				Updates(map[string]interface{}{
					"category":     a.Category,
					"needs_review": a.NeedsReview,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrLineItemNotFound, a.LineItemID)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.ExtractedLineItem, error) {
	var items []models.ExtractedLineItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("line_number ASC").
		Find(&items).Error
	return items, err
}

// UpdateLineItemCategory stores a hand-picked category. When the invoice failed
// and this was the last item without a usable category, the invoice moves to
// processed so it can be priced.
func (r *invoiceRepository) UpdateLineItemCategory(ctx context.Context, invoiceID, itemID uuid.UUID, category string) (*models.ExtractedLineItem, models.InvoiceStatus, error) {
	var item models.ExtractedLineItem
	var status models.InvoiceStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := findInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		status = invoice.Status

		err = tx.First(&item, "id = ? AND invoice_id = ?", itemID, invoiceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLineItemNotFound
		}
		if err != nil {
			return err
		}

		err = tx.Model(&item).Updates(map[string]interface{}{
			"category":     category,
			"needs_review": false,
		}).Error
		if err != nil {
			return err
		}
		item.Category = &category
		item.NeedsReview = false

		if !invoice.Status.RecoversByCorrection() {
			return nil
		}
		recovered, err := recoverCorrectedInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if recovered {
			status = models.InvoiceProcessed
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &item, status, nil
}

// recoverCorrectedInvoice moves a failed invoice to processed once every item
// has a category and none awaits review.
func recoverCorrectedInvoice(tx *gorm.DB, invoiceID uuid.UUID) (bool, error) {
	var items []models.ExtractedLineItem
	if err := tx.Where("invoice_id = ?", invoiceID).Find(&items).Error; err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Category == nil || item.NeedsReview {
			return false, nil
		}
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	now := time.Now()
	res := tx.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoiceID, models.InvoiceFailed).
		Updates(map[string]interface{}{
			"status":         models.InvoiceProcessed,
			"total_items":    len(items),
			"total_amount":   total.Round(2),
			"processed_date": now,
			"error_message":  nil,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("recover corrected invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := tx.Model(&models.ProcessingProgress{}).
		Where("invoice_id = ?", invoiceID).
		Updates(map[string]interface{}{
			"percentage":               100,
			"current_stage":            "complete",
			"step_number":              gorm.Expr("total_steps"),
			"detailed_status":          "Categories corrected by hand, ready for pricing",
			"error_message":            nil,
			"estimated_time_remaining": nil,
			"updated_at":               now,
		}).Error
	return err == nil, err
}

func (r *invoiceRepository) UpdateLocation(ctx context.Context, id uuid.UUID, location string, areaType *string) error {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"location":  location,
		"area_type": areaType,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// Delete removes the invoice and every row it owns. The stored document is
// left to the caller.
func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var deleted *models.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := findInvoice(tx, id)
		if err != nil {
			return err
		}
		owned := []interface{}{
			&models.StaffTask{},
			&models.PriceUpdate{},
			&models.MarginSuggestion{},
			&models.ProcessingProgress{},
			&models.ExtractedLineItem{},
		}
		for _, model := range owned {
			if err := tx.Where("invoice_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Invoice{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = invoice
		return nil
	})
	return deleted, err
}
