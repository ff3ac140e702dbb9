package services

import (
	"context"

	"retail-backoffice/config"
	"retail-backoffice/db/models"
	invoice_repositories "retail-backoffice/invoices/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskGenerator creates the staff tasks for a priced invoice.
type TaskGenerator interface {
	GenerateTasks(ctx context.Context, invoiceID uuid.UUID) ([]models.StaffTask, error)
}

type FinalizeResult struct {
	Calculation *CalculationResult
	Tasks       []models.StaffTask
	Warnings    []string
}

type Finalizer struct {
	db         *gorm.DB
	invoices   invoice_repositories.InvoiceRepository
	calculator *PriceCalculator
	tasks      TaskGenerator
}

func NewFinalizer(db *gorm.DB, invoices invoice_repositories.InvoiceRepository, calculator *PriceCalculator, tasks TaskGenerator) *Finalizer {
	return &Finalizer{db: db, invoices: invoices, calculator: calculator, tasks: tasks}
}

// SavePrices prices the invoice and, when every item was priced, moves it to
// prices_set and generates staff tasks. Task generation problems are reported
// as warnings because the prices are already committed.
func (f *Finalizer) SavePrices(ctx context.Context, in CalculateInput) (*FinalizeResult, error) {
	invoice, err := f.invoices.GetByID(ctx, in.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceProcessed && invoice.Status != models.InvoicePricesSet {
		return nil, &invoice_repositories.TransitionError{From: invoice.Status, To: models.InvoicePricesSet}
	}

	calculation, err := f.calculator.Calculate(ctx, in)
	if err != nil {
		return nil, err
	}
	result := &FinalizeResult{Calculation: calculation}
	if len(calculation.Errors) > 0 {
		return result, ErrIncompletePricing
	}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ExtractedLineItem{}).
			Where("invoice_id = ? AND status <> ?", in.InvoiceID, models.LineItemCompleted).
			Update("status", models.LineItemPendingUpdate).Error
		if err != nil {
			return err
		}
		if invoice.Status == models.InvoicePricesSet {
			return nil
		}
		return f.invoices.TransitionTx(tx, in.InvoiceID, models.InvoicePricesSet, nil)
	})
	if err != nil {
		return nil, err
	}

	if f.tasks != nil {
		tasks, err := f.tasks.GenerateTasks(ctx, in.InvoiceID)
		if err != nil {
			config.Logger.Error("Staff task generation failed after saving prices",
				zap.String("invoice_id", in.InvoiceID.String()),
				zap.Error(err),
			)
			result.Warnings = append(result.Warnings, err.Error())
		}
		result.Tasks = tasks
	}
	return result, nil
}
