// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"retail-backoffice/config"
	seed "retail-backoffice/db"
	"retail-backoffice/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an isolated in-memory sqlite database with every model migrated
// and the default category vocabulary seeded.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps shared-cache sqlite from reporting table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(config.AllModels...), "migrate")

	_, err = seed.SeedCategories(db)
	require.NoError(t, err, "seed categories")
	return db
}

// CreateWholesaler inserts a wholesaler for invoices to reference.
func CreateWholesaler(t *testing.T, db *gorm.DB) models.Wholesaler {
	t.Helper()
	wholesaler := models.Wholesaler{Name: "Metro Cash & Carry", InvoiceParsingNotes: "Unit prices exclude VAT"}
	require.NoError(t, db.Create(&wholesaler).Error)
	return wholesaler
}
