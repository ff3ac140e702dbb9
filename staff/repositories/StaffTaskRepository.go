package repositories

import (
	"context"
	"errors"
	"strings"

	"retail-backoffice/db/models"
	"retail-backoffice/utils/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("staff task not found")

// TaskFilter narrows the task list. Zero values are ignored.
type TaskFilter struct {
	InvoiceID  *uuid.UUID
	Status     models.TaskStatus
	Category   string
	AssignedTo *uuid.UUID
	// matches item names within the task's batch
	Search string
}

type StaffTaskRepository interface {
	List(ctx context.Context, filter TaskFilter, params pagination.Params) ([]models.StaffTask, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.StaffTask, error)
	// BatchItems returns the line items a task covers.
	BatchItems(ctx context.Context, task *models.StaffTask) ([]models.ExtractedLineItem, error)
	Assign(ctx context.Context, id uuid.UUID, assignee uuid.UUID) (*models.StaffTask, error)
}

type staffTaskRepository struct {
	db *gorm.DB
}

func NewStaffTaskRepository(db *gorm.DB) StaffTaskRepository {
	return &staffTaskRepository{db: db}
}

func (r *staffTaskRepository) List(ctx context.Context, filter TaskFilter, params pagination.Params) ([]models.StaffTask, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StaffTask{})

	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Search != "" {
		matching := r.db.Model(&models.ExtractedLineItem{}).
			Select("1").
			Where("extracted_line_items.invoice_id = staff_tasks.invoice_id").
			Where("extracted_line_items.category = staff_tasks.category").
			Where(`LOWER(extracted_line_items.name) LIKE LOWER(?) ESCAPE '\'`, "%"+escapeLike(filter.Search)+"%")
		query = query.Where("EXISTS (?)", matching)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.StaffTask
	err := query.
		Order("due_date ASC").
		Order("CASE priority WHEN 'high' THEN 0 ELSE 1 END").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&tasks).Error
	return tasks, total, err
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *staffTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffTask, error) {
	return findTask(r.db.WithContext(ctx), id)
}

func findTask(tx *gorm.DB, id uuid.UUID) (*models.StaffTask, error) {
	var task models.StaffTask
	err := tx.First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *staffTaskRepository) BatchItems(ctx context.Context, task *models.StaffTask) ([]models.ExtractedLineItem, error) {
	var items []models.ExtractedLineItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND category = ?", task.InvoiceID, task.Category).
		Order("line_number ASC").
		Find(&items).Error
	return items, err
}

func (r *staffTaskRepository) Assign(ctx context.Context, id uuid.UUID, assignee uuid.UUID) (*models.StaffTask, error) {
	task, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(task).Update("assigned_to", assignee).Error; err != nil {
		return nil, err
	}
	task.AssignedTo = &assignee
	return task, nil
}
