package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a stocked item in the catalog.
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	ProductCode   string          `json:"productCode" gorm:"uniqueIndex;type:varchar(32)" validate:"omitempty,max=32"`
	Name          string          `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" gorm:"type:decimal(12,2)"`
	SupplierID    *uint           `json:"supplierId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// IsLowStock reports whether the product is at or below the given threshold.
func (p Product) IsLowStock(threshold int) bool {
	return p.Quantity <= threshold
}

// ProductInput is the writable part of a product as sent by clients.
type ProductInput struct {
	ProductCode   string          `json:"productCode" validate:"omitempty,max=32"`
	Name          string          `json:"name" validate:"required,min=1,max=100"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	Price         decimal.Decimal `json:"price"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SupplierID    *uint           `json:"supplierId"`
}
