package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UncategorizedCategory is the sentinel assigned to items the model could not place.
const UncategorizedCategory = "Uncategorized"

// Category is one entry in the store's product category vocabulary
type Category struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	DefaultMargin decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"default_margin"`
	Description   string          `gorm:"type:text" json:"description"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
