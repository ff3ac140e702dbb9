package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retail-backoffice/db/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrProgressNotFound = errors.New("processing progress not found")

// Checkpoint is one labelled step of a processing attempt.
type Checkpoint struct {
	Stage          string
	Percentage     int
	StepNumber     int
	TotalSteps     int
	DetailedStatus string
	StageDetails   map[string]interface{}
	// seconds; nil clears the estimate
	EstimatedTimeRemaining *int
}

type ProgressRepository interface {
	Get(ctx context.Context, invoiceID uuid.UUID) (*models.ProcessingProgress, error)
	// Save applies the checkpoint unless it would lower the percentage.
	Save(ctx context.Context, invoiceID uuid.UUID, checkpoint Checkpoint) (bool, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Get(ctx context.Context, invoiceID uuid.UUID) (*models.ProcessingProgress, error) {
	var progress models.ProcessingProgress
	err := r.db.WithContext(ctx).First(&progress, "invoice_id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgressNotFound
	}
	return &progress, err
}

func (r *progressRepository) Save(ctx context.Context, invoiceID uuid.UUID, checkpoint Checkpoint) (bool, error) {
	return saveCheckpoint(r.db.WithContext(ctx), invoiceID, checkpoint)
}

func saveCheckpoint(tx *gorm.DB, invoiceID uuid.UUID, cp Checkpoint) (bool, error) {
	values := map[string]interface{}{
		"percentage":               cp.Percentage,
		"current_stage":            cp.Stage,
		"step_number":              cp.StepNumber,
		"detailed_status":          cp.DetailedStatus,
		"estimated_time_remaining": cp.EstimatedTimeRemaining,
		"updated_at":               time.Now(),
	}
	if cp.TotalSteps > 0 {
		values["total_steps"] = cp.TotalSteps
	}
	if cp.StageDetails != nil {
		raw, err := json.Marshal(cp.StageDetails)
		if err != nil {
			return false, fmt.Errorf("encode stage details: %w", err)
		}
		values["stage_details"] = datatypes.JSON(raw)
	}

	// monotonic within an attempt: never write a lower percentage
	res := tx.Model(&models.ProcessingProgress{}).
		Where("invoice_id = ? AND percentage <= ?", invoiceID, cp.Percentage).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("save progress checkpoint: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// startAttempt creates the progress row, or resets an existing one to 0 for a retry.
func startAttempt(tx *gorm.DB, invoiceID uuid.UUID, totalSteps int) error {
	var existing models.ProcessingProgress
	err := tx.First(&existing, "invoice_id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.ProcessingProgress{
			InvoiceID:      invoiceID,
			Attempt:        1,
			Percentage:     0,
			CurrentStage:   "queued",
			TotalSteps:     totalSteps,
			DetailedStatus: "Waiting to start processing",
			StartedAt:      time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&existing).Updates(map[string]interface{}{
		"attempt":                  existing.Attempt + 1,
		"percentage":               0,
		"current_stage":            "queued",
		"step_number":              0,
		"total_steps":              totalSteps,
		"detailed_status":          "Retrying: waiting to start processing",
		"stage_details":            nil,
		"error_message":            nil,
		"estimated_time_remaining": nil,
		"started_at":               time.Now(),
		"updated_at":               time.Now(),
	}).Error
}

// failAttempt keeps percentage and stage where the run stopped.
func failAttempt(tx *gorm.DB, invoiceID uuid.UUID, message string) error {
	return tx.Model(&models.ProcessingProgress{}).
		Where("invoice_id = ?", invoiceID).
		Updates(map[string]interface{}{
			"error_message":            message,
			"detailed_status":          "Processing failed: " + message,
			"estimated_time_remaining": nil,
			"updated_at":               time.Now(),
		}).Error
}
