package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MarginSuggestion is append-only: rows are never updated after insert.
type MarginSuggestion struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	CategoryName    string          `gorm:"type:varchar(100);not null;index" json:"category_name"`
	SuggestedMargin decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"suggested_margin"`
	Confidence      float64         `gorm:"not null;default:0" json:"confidence"`
	RiskLevel       RiskLevel       `gorm:"type:varchar(10);not null;default:'medium'" json:"risk_level"`
	Reasoning       datatypes.JSON  `json:"reasoning"`
	Location        string          `gorm:"type:varchar(255)" json:"location"`
	AreaType        string          `gorm:"type:varchar(20)" json:"area_type"`
	Insights        datatypes.JSON  `json:"insights"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (m *MarginSuggestion) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
