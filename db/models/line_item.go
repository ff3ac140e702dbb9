package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LineItemStatus string

const (
	LineItemPending       LineItemStatus = "pending"
	LineItemPendingUpdate LineItemStatus = "pending_update"
	LineItemCompleted     LineItemStatus = "completed"
)

// ExtractedLineItem is one raw product row read from an invoice, before it is
// reconciled with the permanent catalog.
type ExtractedLineItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	LineNumber int       `gorm:"not null" json:"line_number"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`

	// nil until categorization succeeds, or when the item needs manual categorization
	Category    *string `gorm:"type:varchar(100);index" json:"category"`
	NeedsReview bool    `gorm:"default:false" json:"needs_review"`

	Quantity     int              `gorm:"not null;default:1" json:"quantity"`
	UnitCost     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	Margin       *decimal.Decimal `gorm:"type:decimal(6,2)" json:"margin"`
	SellingPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"selling_price"`
	Status       LineItemStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ExtractedLineItem) TableName() string {
	return "extracted_line_items"
}

func (li *ExtractedLineItem) BeforeCreate(tx *gorm.DB) (err error) {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	if li.Status == "" {
		li.Status = LineItemPending
	}
	return
}

// CategoryName returns the assigned category or "" when none is set.
func (li *ExtractedLineItem) CategoryName() string {
	if li.Category == nil {
		return ""
	}
	return *li.Category
}
