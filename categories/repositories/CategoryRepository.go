package repositories

import (
	"context"
	"errors"
	"fmt"

	"retail-backoffice/db/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	ActiveNames(ctx context.Context) ([]string, error)
	DefaultMargins(ctx context.Context) (map[string]decimal.Decimal, error)
	IsActiveName(ctx context.Context, name string) (bool, error)
	UpdateDefaultMargin(ctx context.Context, id uuid.UUID, margin decimal.Decimal) (*models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// ActiveNames is the vocabulary handed to the categorization model.
func (r *categoryRepository) ActiveNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("is_active = ?", true).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

func (r *categoryRepository) DefaultMargins(ctx context.Context) (map[string]decimal.Decimal, error) {
	categories, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	margins := make(map[string]decimal.Decimal, len(categories))
	for _, c := range categories {
		margins[c.Name] = c.DefaultMargin
	}
	return margins, nil
}

func (r *categoryRepository) IsActiveName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("name = ? AND is_active = ?", name, true).
		Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) UpdateDefaultMargin(ctx context.Context, id uuid.UUID, margin decimal.Decimal) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&category).Update("default_margin", margin).Error; err != nil {
		return nil, fmt.Errorf("update default margin: %w", err)
	}
	category.DefaultMargin = margin
	return &category, nil
}
