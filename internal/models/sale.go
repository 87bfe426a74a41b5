package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an append-only record of one sold basket line.
type Sale struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ProductID    uint            `json:"productId" gorm:"index;not null"`
	QuantitySold int             `json:"quantitySold" gorm:"not null"`
	UnitPrice    decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2)"`
	SoldBy       string          `json:"soldBy,omitempty" gorm:"type:varchar(36)"`
	SaleDate     time.Time       `json:"saleDate" gorm:"index"`
}

// SaleLineRequest is one line of a checkout basket.
type SaleLineRequest struct {
	ProductID    uint `json:"productId" validate:"required,gt=0"`
	QuantitySold int  `json:"quantitySold" validate:"required,gt=0"`
}

// SaleResult is returned when a whole basket was applied.
type SaleResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ItemsProcessed int    `json:"itemsProcessed"`
	Sales          []Sale `json:"sales"`
}

// DashboardResult summarizes sales and stock for the dashboard.
type DashboardResult struct {
	MostSellingProduct *Product  `json:"mostSellingProduct"`
	TotalSold          int       `json:"totalSold"`
	LowStockProducts   []Product `json:"lowStockProducts"`
}
