package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stockpos/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[uint]models.Product
	codes    map[string]struct{}
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		codes:    make(map[string]struct{}),
		nextID:   1,
	}
}

// GetAll returns all products ordered by ID.
func (r *MockProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

func (r *MockProductRepository) GetLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	all, _ := r.GetAll(ctx)
	low := make([]models.Product, 0)
	for _, p := range all {
		if p.IsLowStock(threshold) {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Quantity < low[j].Quantity })
	return low, nil
}

func (r *MockProductRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.codes[code]
	return ok, nil
}

func (r *MockProductRepository) LastProductCode(_ context.Context, prefix string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	last := ""
	for code := range r.codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		if len(code) > len(last) || (len(code) == len(last) && code > last) {
			last = code
		}
	}
	return last, nil
}

// Create adds a new product and assigns its ID.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.codes[product.ProductCode]; taken && product.ProductCode != "" {
		return fmt.Errorf("product code %s already exists", product.ProductCode)
	}
	product.ID = r.nextID
	r.nextID++
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	if product.ProductCode != "" {
		r.codes[product.ProductCode] = struct{}{}
	}
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %d for update: %w", product.ID, ErrProductNotFound)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	if product.ProductCode != "" {
		r.codes[product.ProductCode] = struct{}{}
	}
	return nil
}

// Delete removes a product by its ID. Its code stays reserved.
func (r *MockProductRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %d for deletion: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *MockProductRepository) CompareAndSetQuantity(_ context.Context, id uint, expected, newQuantity int) error {
	if newQuantity < 0 {
		return ErrNegativeStock
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.Quantity != expected {
		return ErrStockConflict
	}
	product.Quantity = newQuantity
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return nil
}
