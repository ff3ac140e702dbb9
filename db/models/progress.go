package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProcessingProgress tracks one invoice's current processing attempt.
type ProcessingProgress struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"invoice_id"`
	Attempt   int       `gorm:"not null;default:1" json:"attempt"`

	Percentage     int            `gorm:"not null;default:0" json:"percentage"`
	CurrentStage   string         `gorm:"type:varchar(50);not null" json:"current_stage"`
	StepNumber     int            `gorm:"default:0" json:"step_number"`
	TotalSteps     int            `gorm:"default:0" json:"total_steps"`
	DetailedStatus string         `gorm:"type:text" json:"detailed_status"`
	StageDetails   datatypes.JSON `json:"stage_details"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message"`
	// seconds; nil once the attempt has ended
	EstimatedTimeRemaining *int `json:"estimated_time_remaining"`

	StartedAt time.Time `gorm:"not null" json:"started_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProcessingProgress) TableName() string {
	return "processing_progress"
}

func (p *ProcessingProgress) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now()
	}
	return
}
