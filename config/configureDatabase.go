package config

import (
	"fmt"
	"log"
	"time"

	"retail-backoffice/db/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AllModels defines every model that should be migrated.
// This is the only place you need to add new models
var AllModels = []interface{}{
	// Catalog
	&models.Category{},
	&models.Wholesaler{},

	// Invoice pipeline
	&models.Invoice{},
	&models.ExtractedLineItem{},
	&models.ProcessingProgress{},

	// Pricing audit
	&models.MarginSuggestion{},
	&models.PriceUpdate{},

	// Staff
	&models.StaffTask{},
}

func ConfigureDatabase() *gorm.DB {
	host := GetEnv("DB_HOST")
	user := GetEnv("POSTGRES_USER")
	password := GetEnv("POSTGRES_PASSWORD")
	dbname := GetEnv("POSTGRES_DB")
	port := GetEnvOrDefault("DB_PORT", "5432")
	timezone := GetEnvOrDefault("DB_TIMEZONE", "UTC")
	sslmode := GetEnvOrDefault("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("[DB-CONNECT] Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(AllModels...)
	if err != nil {
		log.Fatalf("failed to migrate tables: %v", err)
	} else {
		log.Println("Tables migrated successfully")
	}

	if err := CreateProcessingPartialIndex(db); err != nil {
		log.Printf("[DB-INDEX] Failed to create processing index: %v", err)
	}

	// Connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("[DB-POOL] Failed to get underlying DB connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	log.Println("[DB-POOL] Connection pool configured")
	log.Println("[DB-STATUS] Database setup complete")
	return db
}
