package repositories

import (
	"context"
	"fmt"

	"retail-backoffice/db/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PricingRepository interface {
	ListPriceUpdates(ctx context.Context, invoiceID uuid.UUID) ([]models.PriceUpdate, error)
	// HistoricalMargins averages earlier suggestions per category.
	HistoricalMargins(ctx context.Context, categories []string) (map[string]decimal.Decimal, error)
	SaveSuggestions(ctx context.Context, suggestions []models.MarginSuggestion) error
	ListSuggestions(ctx context.Context, invoiceID uuid.UUID) ([]models.MarginSuggestion, error)
}

type pricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) PricingRepository {
	return &pricingRepository{db: db}
}

func (r *pricingRepository) ListPriceUpdates(ctx context.Context, invoiceID uuid.UUID) ([]models.PriceUpdate, error) {
	var updates []models.PriceUpdate
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&updates).Error
	return updates, err
}

func (r *pricingRepository) HistoricalMargins(ctx context.Context, categories []string) (map[string]decimal.Decimal, error) {
	history := make(map[string]decimal.Decimal, len(categories))
	if len(categories) == 0 {
		return history, nil
	}

	var rows []struct {
		CategoryName string
		AvgMargin    float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.MarginSuggestion{}).
		Select("category_name, AVG(suggested_margin) AS avg_margin").
		Where("category_name IN ?", categories).
		Group("category_name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load historical margins: %w", err)
	}

	for _, row := range rows {
		history[row.CategoryName] = decimal.NewFromFloat(row.AvgMargin).Round(2)
	}
	return history, nil
}

func (r *pricingRepository) SaveSuggestions(ctx context.Context, suggestions []models.MarginSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&suggestions).Error
}

func (r *pricingRepository) ListSuggestions(ctx context.Context, invoiceID uuid.UUID) ([]models.MarginSuggestion, error) {
	var suggestions []models.MarginSuggestion
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at DESC").
		Find(&suggestions).Error
	return suggestions, err
}
