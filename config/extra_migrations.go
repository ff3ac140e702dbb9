package config

import "gorm.io/gorm"

// CreateProcessingPartialIndex backs the stale-run sweeper, which only ever
// scans invoices sitting in 'processing'. Postgres only.
func CreateProcessingPartialIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_invoices_processing
		ON invoices (updated_at)
		WHERE status = 'processing';
	`).Error
}
