package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Wholesaler struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name          string    `gorm:"type:varchar(150);not null" json:"name"`
	ContactPerson string    `gorm:"type:varchar(100)" json:"contact_person"`
	Email         string    `gorm:"type:varchar(150)" json:"email"`
	Phone         string    `gorm:"type:varchar(30)" json:"phone"`
	// Appended to the extraction prompt, e.g. "quantities are in cartons of 12"
	InvoiceParsingNotes string `gorm:"type:text" json:"invoice_parsing_notes"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *Wholesaler) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
