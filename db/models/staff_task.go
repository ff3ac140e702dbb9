package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityHigh   TaskPriority = "high"
)

// StaffTask asks a staff member to update the price labels of one category batch.
type StaffTask struct {
	ID         uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	InvoiceID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_staff_task_invoice_category" json:"invoice_id"`
	Category   string       `gorm:"type:varchar(100);not null;uniqueIndex:idx_staff_task_invoice_category" json:"category"`
	ItemCount  int          `gorm:"not null" json:"item_count"`
	Priority   TaskPriority `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	Status     TaskStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AssignedTo *uuid.UUID   `gorm:"type:uuid;index" json:"assigned_to"`
	DueDate    time.Time    `gorm:"not null" json:"due_date"`

	LabelPrinted    bool       `gorm:"default:false" json:"label_printed"`
	CompletionNotes *string    `gorm:"type:text" json:"completion_notes"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`

	Items []ExtractedLineItem `gorm:"-" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *StaffTask) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityNormal
	}
	return
}
