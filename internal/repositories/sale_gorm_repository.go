package repositories

import (
	"context"
	"fmt"
	"time"

	"stockpos/internal/models"

	"gorm.io/gorm"
)

// GORMSaleRepository is a GORM implementation of SaleRepository.
type GORMSaleRepository struct {
	db *gorm.DB
}

func NewGORMSaleRepository(db *gorm.DB) *GORMSaleRepository {
	return &GORMSaleRepository{db: db}
}

func (r *GORMSaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

func (r *GORMSaleRepository) List(ctx context.Context, since time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	q := r.db.WithContext(ctx).Order("sale_date ASC").Order("id ASC")
	if !since.IsZero() {
		q = q.Where("sale_date >= ?", since)
	}
	if err := q.Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}
