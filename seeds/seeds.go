package seeds

import (
	"errors"
	"fmt"

	"retail-backoffice/config"
	seed "retail-backoffice/db"
	"retail-backoffice/db/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedCategoryVocabulary seeds the default categories and their margins.
func SeedCategoryVocabulary(db *gorm.DB) error {
	config.Logger.Info("Starting category seeding...")

	created, err := seed.SeedCategories(db)
	if err != nil {
		config.Logger.Error("Failed to seed categories", zap.Int("created_before_failure", created), zap.Error(err))
		return err
	}

	config.Logger.Info("Category seeding completed", zap.Int("created", created))
	return nil
}

// SeedSampleWholesalers adds the wholesalers used for local development.
// Rows are matched by name, so reruns are harmless.
func SeedSampleWholesalers(db *gorm.DB) error {
	config.Logger.Info("Starting wholesaler seeding...")

	wholesalers := []models.Wholesaler{
		{
			Name:                "Metro Cash & Carry",
			ContactPerson:       "Accounts Desk",
			Email:               "accounts@metro.example.com",
			Phone:               "+1-555-0100",
			InvoiceParsingNotes: "Unit prices exclude VAT. Quantities are single units.",
		},
		{
			Name:                "Bulk Beverage Distributors",
			ContactPerson:       "Sales Office",
			Email:               "sales@bulkbev.example.com",
			Phone:               "+1-555-0142",
			InvoiceParsingNotes: "Quantities are cases of 24 unless the line says otherwise; the unit price column is per case.",
		},
	}

	for _, w := range wholesalers {
		var existing models.Wholesaler
		err := db.Where("name = ?", w.Name).First(&existing).Error
		if err == nil {
			config.Logger.Debug("Wholesaler already exists, skipping", zap.String("name", w.Name))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check wholesaler %s: %w", w.Name, err)
		}

		wholesaler := w
		if err := db.Create(&wholesaler).Error; err != nil {
			return fmt.Errorf("failed to create wholesaler %s: %w", w.Name, err)
		}
		config.Logger.Info("Created wholesaler", zap.String("name", w.Name))
	}

	config.Logger.Info("Wholesaler seeding completed")
	return nil
}

// SeedRetailAll runs every seeder in dependency order.
func SeedRetailAll(db *gorm.DB, withSamples bool) error {
	config.Logger.Info("Starting database seeding...")

	if err := SeedCategoryVocabulary(db); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if withSamples {
		if err := SeedSampleWholesalers(db); err != nil {
			return fmt.Errorf("failed to seed wholesalers: %w", err)
		}
	}

	config.Logger.Info("All database seeding completed successfully")
	return nil
}
