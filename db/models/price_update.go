package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MarginSource string

const (
	MarginFromRequest         MarginSource = "requested"
	MarginFromCategoryDefault MarginSource = "category_default"
)

// PriceUpdate is an append-only audit row, written on every recalculation.
type PriceUpdate struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	LineItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"line_item_id"`

	OldCostPrice    decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"old_cost_price"`
	NewCostPrice    decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"new_cost_price"`
	OldSellingPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"old_selling_price"`
	NewSellingPrice decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"new_selling_price"`
	OldMargin       *decimal.Decimal `gorm:"type:decimal(6,2)" json:"old_margin"`
	NewMargin       decimal.Decimal  `gorm:"type:decimal(6,2);not null" json:"new_margin"`
	MarginSource    MarginSource     `gorm:"type:varchar(20);not null" json:"margin_source"`
	RoundingPolicy  string           `gorm:"type:varchar(20);not null" json:"rounding_policy"`
	UpdatedBy       *uuid.UUID       `gorm:"type:uuid" json:"updated_by"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *PriceUpdate) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
