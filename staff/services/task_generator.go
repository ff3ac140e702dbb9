package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"retail-backoffice/config"
	"retail-backoffice/db/models"
	invoice_repositories "retail-backoffice/invoices/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskCreationError wraps any failure while generating tasks for an invoice.
type TaskCreationError struct {
	InvoiceID uuid.UUID
	Err       error
}

func (e *TaskCreationError) Error() string {
	return fmt.Sprintf("TaskCreationError: invoice %s: %v", e.InvoiceID, e.Err)
}

func (e *TaskCreationError) Unwrap() error { return e.Err }

// Notifier is satisfied by utils.Mailer.
type Notifier interface {
	SendEmail(to, subject, body string) error
}

type TaskGeneratorConfig struct {
	// batches with more items than this are high priority
	HighPriorityThreshold int
	DefaultDue            time.Duration
	NotifyEmail           string
}

type TaskGenerator struct {
	db       *gorm.DB
	invoices invoice_repositories.InvoiceRepository
	notifier Notifier
	cfg      TaskGeneratorConfig
	now      func() time.Time
}

func NewTaskGenerator(db *gorm.DB, invoices invoice_repositories.InvoiceRepository, notifier Notifier, cfg TaskGeneratorConfig) *TaskGenerator {
	if cfg.HighPriorityThreshold <= 0 {
		cfg.HighPriorityThreshold = 10
	}
	if cfg.DefaultDue <= 0 {
		cfg.DefaultDue = 24 * time.Hour
	}
	return &TaskGenerator{db: db, invoices: invoices, notifier: notifier, cfg: cfg, now: time.Now}
}

// GenerateTasks creates one task per category batch of pending_update items.
// Existing tasks are kept, so calling it again never duplicates work. It
// returns every task of the invoice.
func (g *TaskGenerator) GenerateTasks(ctx context.Context, invoiceID uuid.UUID) ([]models.StaffTask, error) {
	invoice, err := g.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, &TaskCreationError{InvoiceID: invoiceID, Err: err}
	}
	if invoice.Status != models.InvoicePricesSet {
		return nil, &TaskCreationError{
			InvoiceID: invoiceID,
			Err:       fmt.Errorf("invoice is %s, tasks are generated once prices are set", invoice.Status),
		}
	}

	var created, all []models.StaffTask
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.ExtractedLineItem
		err := tx.Where("invoice_id = ? AND status = ?", invoiceID, models.LineItemPendingUpdate).
			Find(&items).Error
		if err != nil {
			return err
		}

		batches := make(map[string]int)
		for _, item := range items {
			if name := item.CategoryName(); name != "" {
				batches[name]++
			}
		}
		categories := make([]string, 0, len(batches))
		for name := range batches {
			categories = append(categories, name)
		}
		sort.Strings(categories)

		due := g.now().Add(g.cfg.DefaultDue)
		for _, category := range categories {
			var existing models.StaffTask
			err := tx.Where("invoice_id = ? AND category = ?", invoiceID, category).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			task := models.StaffTask{
				InvoiceID:  invoiceID,
				Category:   category,
				ItemCount:  batches[category],
				Priority:   models.TaskPriorityNormal,
				Status:     models.TaskPending,
				AssignedTo: invoice.ProcessedBy,
				DueDate:    due,
			}
			if task.ItemCount > g.cfg.HighPriorityThreshold {
				task.Priority = models.TaskPriorityHigh
			}
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("create task for %q: %w", category, err)
			}
			created = append(created, task)
		}

		return tx.Where("invoice_id = ?", invoiceID).Order("category ASC").Find(&all).Error
	})
	if err != nil {
		return nil, &TaskCreationError{InvoiceID: invoiceID, Err: err}
	}

	if len(created) > 0 {
		config.Logger.Info("Staff tasks created",
			zap.String("invoice_id", invoiceID.String()),
			zap.Int("created", len(created)),
			zap.Int("total", len(all)),
		)
		g.notify(invoice, created)
	}
	return all, nil
}

// notify is best effort; a mail failure never undoes the tasks.
func (g *TaskGenerator) notify(invoice *models.Invoice, created []models.StaffTask) {
	if g.notifier == nil || g.cfg.NotifyEmail == "" {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "New price label tasks for invoice %s (%s):\n\n", invoice.ID, invoice.FileName)
	for _, task := range created {
		fmt.Fprintf(&body, "- %s: %d items, %s priority, due %s\n",
			task.Category, task.ItemCount, task.Priority, task.DueDate.Format("2006-01-02 15:04"))
	}

	subject := fmt.Sprintf("%d new price label tasks", len(created))
	if err := g.notifier.SendEmail(g.cfg.NotifyEmail, subject, body.String()); err != nil {
		config.Logger.Warn("Task notification failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}
