package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-backoffice/config"
	"retail-backoffice/db/models"
	invoice_repositories "retail-backoffice/invoices/repositories"
	"retail-backoffice/staff/repositories"
	"retail-backoffice/utils/pagination"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidTaskState = errors.New("invalid staff task state change")

type CompleteInput struct {
	LabelPrinted bool
	Notes        string
}

type TaskService struct {
	db       *gorm.DB
	tasks    repositories.StaffTaskRepository
	invoices invoice_repositories.InvoiceRepository
}

func NewTaskService(db *gorm.DB, tasks repositories.StaffTaskRepository, invoices invoice_repositories.InvoiceRepository) *TaskService {
	return &TaskService{db: db, tasks: tasks, invoices: invoices}
}

// Get returns the task with the items of its batch attached.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*models.StaffTask, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.tasks.BatchItems(ctx, task)
	if err != nil {
		return nil, err
	}
	task.Items = items
	return task, nil
}

func (s *TaskService) Start(ctx context.Context, id uuid.UUID) (*models.StaffTask, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.StaffTask{}).
		Where("id = ? AND status = ?", id, models.TaskPending).
		Updates(map[string]interface{}{
			"status":     models.TaskInProgress,
			"started_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: task is %s", ErrInvalidTaskState, task.Status)
	}
	return task, nil
}

// Complete closes the task and marks its items done. When it was the last
// open task of the invoice, the invoice is completed as well.
func (s *TaskService) Complete(ctx context.Context, id uuid.UUID, in CompleteInput) (*models.StaffTask, error) {
	var invoiceCompleted bool
	var completed *models.StaffTask

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.StaffTask
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrTaskNotFound
			}
			return err
		}
		if task.Status == models.TaskCompleted {
			return fmt.Errorf("%w: task is already completed", ErrInvalidTaskState)
		}

		now := time.Now()
		values := map[string]interface{}{
			"status":        models.TaskCompleted,
			"completed_at":  now,
			"label_printed": in.LabelPrinted,
		}
		if task.StartedAt == nil {
			values["started_at"] = now
		}
		if in.Notes != "" {
			values["completion_notes"] = in.Notes
		}
		res := tx.Model(&models.StaffTask{}).
			Where("id = ? AND status <> ?", id, models.TaskCompleted).
			Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: task is already completed", ErrInvalidTaskState)
		}

		err := tx.Model(&models.ExtractedLineItem{}).
			Where("invoice_id = ? AND category = ? AND status = ?", task.InvoiceID, task.Category, models.LineItemPendingUpdate).
			Update("status", models.LineItemCompleted).Error
		if err != nil {
			return err
		}

		var open int64
		err = tx.Model(&models.StaffTask{}).
			Where("invoice_id = ? AND status <> ?", task.InvoiceID, models.TaskCompleted).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open == 0 {
			err := s.invoices.TransitionTx(tx, task.InvoiceID, models.InvoiceCompleted, nil)
			if err != nil && !errors.Is(err, invoice_repositories.ErrInvalidTransition) {
				return err
			}
			invoiceCompleted = err == nil
		}

		completed = &models.StaffTask{}
		return tx.First(completed, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	config.Logger.Info("Staff task completed",
		zap.String("task_id", id.String()),
		zap.String("invoice_id", completed.InvoiceID.String()),
		zap.Bool("invoice_completed", invoiceCompleted),
	)
	return completed, nil
}

func (s *TaskService) Assign(ctx context.Context, id, assignee uuid.UUID) (*models.StaffTask, error) {
	return s.tasks.Assign(ctx, id, assignee)
}

func (s *TaskService) List(ctx context.Context, filter repositories.TaskFilter, params pagination.Params) ([]models.StaffTask, int64, error) {
	return s.tasks.List(ctx, filter, params)
}
