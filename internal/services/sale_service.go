package services

import (
	"context"
	"errors"
	"time"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"go.uber.org/zap"
)

// SaleSettings tunes the sale workflow.
type SaleSettings struct {
	LowStockThreshold  int
	MaxConflictRetries int
}

// SaleService validates and applies checkout baskets.
type SaleService struct {
	ledger    repositories.StockLedger
	sales     repositories.SaleRepository
	validator *SaleValidator
	publisher EventPublisher
	settings  SaleSettings
	now       func() time.Time
}

// NewSaleService creates a new SaleService. publisher may be nil.
func NewSaleService(ledger repositories.StockLedger, sales repositories.SaleRepository, publisher EventPublisher, settings SaleSettings) *SaleService {
	if settings.MaxConflictRetries < 1 {
		settings.MaxConflictRetries = 1
	}
	return &SaleService{
		ledger:    ledger,
		sales:     sales,
		validator: NewSaleValidator(ledger),
		publisher: publisher,
		settings:  settings,
		now:       time.Now,
	}
}

// ProcessSale validates the whole basket, then applies it line by line.
//
// Validation failures abort before any write. Each applied line is durable on
// its own; when a later line fails the earlier ones stay committed and the
// error is a *PartialApplicationError.
func (s *SaleService) ProcessSale(ctx context.Context, auth models.AuthContext, basket []models.SaleLineRequest) (*models.SaleResult, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(ctx, basket); err != nil {
		return nil, err
	}

	recorded := make([]models.Sale, 0, len(basket))
	for i, line := range basket {
		sale, err := s.applyLine(ctx, auth, line)
		if err != nil {
			zap.L().Error("sale line failed",
				zap.Int("line", i+1),
				zap.Uint("product_id", line.ProductID),
				zap.Int("committed", len(recorded)),
				zap.Error(err))
			if len(recorded) == 0 {
				return nil, err
			}
			return nil, &PartialApplicationError{
				FailedLine: i + 1,
				ProductID:  line.ProductID,
				Committed:  len(recorded),
				Sales:      recorded,
				Err:        err,
			}
		}
		recorded = append(recorded, *sale)
	}

	zap.L().Info("sale processed", zap.String("user_id", auth.UserID), zap.Int("items", len(recorded)))
	return &models.SaleResult{
		Success:        true,
		Message:        "Sale processed successfully",
		ItemsProcessed: len(recorded),
		Sales:          recorded,
	}, nil
}

// applyLine re-reads the product, decrements it with a compare-and-swap and
// records the sale. A concurrent change to the quantity triggers a re-read.
func (s *SaleService) applyLine(ctx context.Context, auth models.AuthContext, line models.SaleLineRequest) (*models.Sale, error) {
	for attempt := 1; ; attempt++ {
		product, err := s.ledger.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, productLookupError("get product", line.ProductID, err)
		}
		if product.Quantity < line.QuantitySold {
			return nil, &InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Quantity,
				Requested: line.QuantitySold,
			}
		}

		newQuantity := product.Quantity - line.QuantitySold
		err = s.ledger.SetQuantity(ctx, product.ID, product.Quantity, newQuantity)
		if errors.Is(err, repositories.ErrStockConflict) {
			if attempt >= s.settings.MaxConflictRetries {
				return nil, &BackendError{Op: "set quantity", Err: err}
			}
			zap.L().Debug("stock conflict, retrying", zap.Uint("product_id", product.ID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, &BackendError{Op: "set quantity", Err: err}
		}

		sale := &models.Sale{
			ProductID:    product.ID,
			QuantitySold: line.QuantitySold,
			UnitPrice:    product.Price,
			SoldBy:       auth.UserID,
			SaleDate:     s.now(),
		}
		if err := s.ledger.InsertSale(ctx, sale); err != nil {
			s.restoreStock(ctx, product.ID, line.QuantitySold)
			return nil, &BackendError{Op: "insert sale", Err: err}
		}

		s.publishLine(sale, product, newQuantity)
		return sale, nil
	}
}

// restoreStock gives back a decrement whose sale row could not be written.
func (s *SaleService) restoreStock(ctx context.Context, productID uint, quantity int) {
	for attempt := 0; attempt < s.settings.MaxConflictRetries; attempt++ {
		product, err := s.ledger.GetProduct(ctx, productID)
		if err != nil {
			break
		}
		err = s.ledger.SetQuantity(ctx, productID, product.Quantity, product.Quantity+quantity)
		if err == nil {
			return
		}
		if !errors.Is(err, repositories.ErrStockConflict) {
			break
		}
	}
	zap.L().Error("failed to restore stock after sale insert failure",
		zap.Uint("product_id", productID), zap.Int("quantity", quantity))
}

func (s *SaleService) publishLine(sale *models.Sale, product *models.Product, remaining int) {
	publishEvent(s.publisher, RoutingKeySaleRecorded, SaleRecordedEvent{
		EventID:           newEventID(),
		SaleID:            sale.ID,
		ProductID:         product.ID,
		ProductCode:       product.ProductCode,
		QuantitySold:      sale.QuantitySold,
		UnitPrice:         sale.UnitPrice,
		RemainingQuantity: remaining,
		SoldBy:            sale.SoldBy,
		SaleDate:          sale.SaleDate,
	})
	if remaining <= s.settings.LowStockThreshold {
		publishEvent(s.publisher, RoutingKeyStockLow, StockLowEvent{
			EventID:   newEventID(),
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  remaining,
			Threshold: s.settings.LowStockThreshold,
		})
	}
}

// ListSales returns recorded sales, optionally limited to the last windowDays days.
func (s *SaleService) ListSales(ctx context.Context, auth models.AuthContext, windowDays int) ([]models.Sale, error) {
	if err := RequireAdmin(auth); err != nil {
		return nil, err
	}
	sales, err := s.sales.List(ctx, windowStart(s.now(), windowDays))
	if err != nil {
		return nil, &BackendError{Op: "list sales", Err: err}
	}
	return sales, nil
}

func windowStart(now time.Time, days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}
