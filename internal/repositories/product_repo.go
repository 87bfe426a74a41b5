package repositories

import (
	"context"

	"stockpos/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetLowStock(ctx context.Context, threshold int) ([]models.Product, error)
	// CodeExists also considers soft-deleted products, codes are never reused.
	CodeExists(ctx context.Context, code string) (bool, error)
	// LastProductCode returns the highest code with the given prefix, or "" if none.
	LastProductCode(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	// CompareAndSetQuantity writes newQuantity only if the stored quantity equals expected.
	CompareAndSetQuantity(ctx context.Context, id uint, expected, newQuantity int) error
}
