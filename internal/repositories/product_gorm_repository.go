package repositories

import (
	"context"
	"errors"
	"fmt"

	"stockpos/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products ordered by ID.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetLowStock retrieves products whose quantity is at or below threshold.
func (r *GORMProductRepository) GetLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("quantity <= ?", threshold).
		Order("quantity ASC").
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

func (r *GORMProductRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.Product{}).
		Where("product_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check product code %s: %w", code, err)
	}
	return count > 0, nil
}

func (r *GORMProductRepository) LastProductCode(ctx context.Context, prefix string) (string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Unscoped().
		Model(&models.Product{}).
		Where("product_code LIKE ?", prefix+"%").
		Order("LENGTH(product_code) DESC").
		Order("product_code DESC").
		Limit(1).
		Pluck("product_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("failed to get last product code: %w", err)
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the editable columns of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"product_code":   product.ProductCode,
			"name":           product.Name,
			"quantity":       product.Quantity,
			"price":          product.Price,
			"purchase_price": product.PurchasePrice,
			"supplier_id":    product.SupplierID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d for update: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// Delete soft-deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d for deletion: %w", id, ErrProductNotFound)
	}
	return nil
}

func (r *GORMProductRepository) CompareAndSetQuantity(ctx context.Context, id uint, expected, newQuantity int) error {
	if newQuantity < 0 {
		return ErrNegativeStock
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity = ?", id, expected).
		Update("quantity", newQuantity)
	if res.Error != nil {
		return fmt.Errorf("failed to set quantity for product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}
