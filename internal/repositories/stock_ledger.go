package repositories

import (
	"context"

	"stockpos/internal/models"
)

// StockLedger is the narrow read/write surface the sale workflow depends on.
type StockLedger interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	// SetQuantity stores newQuantity if the current quantity is still expected,
	// otherwise it returns ErrStockConflict.
	SetQuantity(ctx context.Context, id uint, expected, newQuantity int) error
	InsertSale(ctx context.Context, sale *models.Sale) error
}

type stockLedger struct {
	products ProductRepository
	sales    SaleRepository
}

// NewStockLedger builds a StockLedger on top of the product and sale repositories.
func NewStockLedger(products ProductRepository, sales SaleRepository) StockLedger {
	return &stockLedger{products: products, sales: sales}
}

func (l *stockLedger) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return l.products.GetByID(ctx, id)
}

func (l *stockLedger) SetQuantity(ctx context.Context, id uint, expected, newQuantity int) error {
	return l.products.CompareAndSetQuantity(ctx, id, expected, newQuantity)
}

func (l *stockLedger) InsertSale(ctx context.Context, sale *models.Sale) error {
	return l.sales.Create(ctx, sale)
}
