package repositories

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	// ErrStockConflict means the stored quantity no longer matches the expected value.
	ErrStockConflict = errors.New("stock quantity changed concurrently")
	ErrNegativeStock = errors.New("stock quantity cannot be negative")
)
