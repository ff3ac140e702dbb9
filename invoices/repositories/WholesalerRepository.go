package repositories

import (
	"context"
	"errors"

	"retail-backoffice/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrWholesalerNotFound = errors.New("wholesaler not found")

type WholesalerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wholesaler, error)
	List(ctx context.Context) ([]models.Wholesaler, error)
	Create(ctx context.Context, wholesaler *models.Wholesaler) error
}

type wholesalerRepository struct {
	db *gorm.DB
}

func NewWholesalerRepository(db *gorm.DB) WholesalerRepository {
	return &wholesalerRepository{db: db}
}

func (r *wholesalerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wholesaler, error) {
	var wholesaler models.Wholesaler
	err := r.db.WithContext(ctx).First(&wholesaler, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWholesalerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wholesaler, nil
}

func (r *wholesalerRepository) List(ctx context.Context) ([]models.Wholesaler, error) {
	var wholesalers []models.Wholesaler
	err := r.db.WithContext(ctx).Order("name ASC").Find(&wholesalers).Error
	return wholesalers, err
}

func (r *wholesalerRepository) Create(ctx context.Context, wholesaler *models.Wholesaler) error {
	return r.db.WithContext(ctx).Create(wholesaler).Error
}
