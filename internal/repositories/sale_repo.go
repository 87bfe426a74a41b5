package repositories

import (
	"context"
	"time"

	"stockpos/internal/models"
)

// SaleRepository defines the interface for sale data access. Sales are append-only.
type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	// List returns sales at or after since, oldest first. A zero since means all sales.
	List(ctx context.Context, since time.Time) ([]models.Sale, error)
}
