package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceUploaded     InvoiceStatus = "uploaded"
	InvoiceUploadFailed InvoiceStatus = "upload_failed"
	InvoiceProcessing   InvoiceStatus = "processing"
	InvoiceProcessed    InvoiceStatus = "processed"
	InvoicePricesSet    InvoiceStatus = "prices_set"
	InvoiceCompleted    InvoiceStatus = "completed"
	InvoiceFailed       InvoiceStatus = "failed"
)

var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceUploaded, InvoiceUploadFailed, InvoiceProcessing, InvoiceProcessed,
	InvoicePricesSet, InvoiceCompleted, InvoiceFailed,
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// failed -> processing is only reachable through an explicit retry.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceUploaded:
		return next == InvoiceProcessing || next == InvoiceUploadFailed || next == InvoiceFailed
	case InvoiceProcessing:
		return next == InvoiceProcessed || next == InvoiceFailed
	case InvoiceProcessed:
		return next == InvoicePricesSet || next == InvoiceFailed
	case InvoicePricesSet:
		return next == InvoiceCompleted || next == InvoiceFailed
	case InvoiceFailed:
		return next == InvoiceProcessing
	case InvoiceUploadFailed, InvoiceCompleted:
		return false
	default:
		return false
	}
}

// RecoversByCorrection reports whether fixing the last unresolved category by
// hand may move an invoice from s to processed. It is not part of
// CanTransitionTo, so no pipeline write can revive a failed run.
func (s InvoiceStatus) RecoversByCorrection() bool {
	return s == InvoiceFailed
}

func (s InvoiceStatus) IsValid() bool {
	for _, known := range AllInvoiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PredecessorsOf lists every status that may move to next.
func PredecessorsOf(next InvoiceStatus) []InvoiceStatus {
	var from []InvoiceStatus
	for _, s := range AllInvoiceStatuses {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}

// IsTerminalForProcessing is true once a processing attempt has ended either way.
func (s InvoiceStatus) IsTerminalForProcessing() bool {
	switch s {
	case InvoiceProcessed, InvoicePricesSet, InvoiceCompleted, InvoiceFailed, InvoiceUploadFailed:
		return true
	default:
		return false
	}
}

type Invoice struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	WholesalerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"wholesaler_id"`
	ProcessedBy  *uuid.UUID `gorm:"type:uuid;index" json:"processed_by"`

	FileName        string `gorm:"not null" json:"file_name"`
	MimeType        string `gorm:"type:varchar(100)" json:"mime_type"`
	FileHash        string `gorm:"type:varchar(64);index" json:"file_hash"`
	StoragePublicID string `gorm:"type:varchar(255)" json:"storage_public_id"`
	StorageURL      string `gorm:"type:text" json:"storage_url"`

	InvoiceDate   time.Time     `gorm:"type:date;not null" json:"invoice_date"`
	UploadDate    time.Time     `gorm:"not null" json:"upload_date"`
	ProcessedDate *time.Time    `json:"processed_date"`
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;default:'uploaded';index" json:"status"`
	ErrorMessage  *string       `gorm:"type:text" json:"error_message"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_amount"`
	TotalItems  int             `gorm:"default:0" json:"total_items"`
	Location    *string         `gorm:"type:varchar(255)" json:"location"`
	AreaType    *string         `gorm:"type:varchar(20)" json:"area_type"`

	Items    []ExtractedLineItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Progress *ProcessingProgress `gorm:"foreignKey:InvoiceID" json:"progress,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.UploadDate.IsZero() {
		i.UploadDate = time.Now()
	}
	return
}
