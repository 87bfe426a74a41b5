package repositories

import (
	"context"
	"sync"
	"time"

	"stockpos/internal/models"
)

// MockSaleRepository is an in-memory implementation of SaleRepository.
type MockSaleRepository struct {
	sales  []models.Sale
	nextID uint
	mu     sync.RWMutex
}

// NewMockSaleRepository creates a new instance of MockSaleRepository.
func NewMockSaleRepository() *MockSaleRepository {
	return &MockSaleRepository{nextID: 1}
}

// Create appends a sale and assigns its ID.
func (r *MockSaleRepository) Create(_ context.Context, sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sale.ID = r.nextID
	r.nextID++
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now()
	}
	r.sales = append(r.sales, *sale)
	return nil
}

// List returns sales in insertion order, filtered by since.
func (r *MockSaleRepository) List(_ context.Context, since time.Time) ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		if !since.IsZero() && s.SaleDate.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
