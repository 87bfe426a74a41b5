package services

import (
	"context"
	"time"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// DashboardOptions overrides the configured defaults for one request. Nil keeps the default.
type DashboardOptions struct {
	WindowDays *int
	Threshold  *int
}

// DashboardService builds the read-only dashboard summary.
type DashboardService struct {
	products          repositories.ProductRepository
	sales             repositories.SaleRepository
	defaultWindowDays int
	defaultThreshold  int
	now               func() time.Time
}

func NewDashboardService(products repositories.ProductRepository, sales repositories.SaleRepository, windowDays, threshold int) *DashboardService {
	return &DashboardService{
		products:          products,
		sales:             sales,
		defaultWindowDays: windowDays,
		defaultThreshold:  threshold,
		now:               time.Now,
	}
}

// Compute loads sales and products concurrently and aggregates them.
func (s *DashboardService) Compute(ctx context.Context, auth models.AuthContext, opts DashboardOptions) (*models.DashboardResult, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}

	windowDays, threshold := s.defaultWindowDays, s.defaultThreshold
	if opts.WindowDays != nil {
		windowDays = *opts.WindowDays
	}
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if windowDays < 0 || threshold < 0 {
		return nil, &ValidationError{Message: "days and threshold must not be negative"}
	}

	var (
		sales    []models.Sale
		products []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.sales.List(gctx, windowStart(s.now(), windowDays))
		if err != nil {
			return &BackendError{Op: "list sales", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = s.products.GetAll(gctx)
		if err != nil {
			return &BackendError{Op: "list products", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ComputeDashboard(sales, products, threshold), nil
}

// ComputeDashboard is the pure aggregation over snapshots. A top seller that is
// missing from products (e.g. deleted since) is reported as nil.
func ComputeDashboard(sales []models.Sale, products []models.Product, threshold int) *models.DashboardResult {
	result := &models.DashboardResult{LowStockProducts: LowStock(products, threshold)}

	topID, total, ok := TopSellingProduct(sales)
	if !ok {
		return result
	}
	for i := range products {
		if products[i].ID == topID {
			top := products[i]
			result.MostSellingProduct = &top
			result.TotalSold = total
			break
		}
	}
	return result
}

// TopSellingProduct sums quantitySold per product and returns the largest.
// Ties go to the product that appears first in sales.
func TopSellingProduct(sales []models.Sale) (productID uint, total int, ok bool) {
	order := make([]uint, 0)
	sums := make(map[uint]int)
	for _, sale := range sales {
		if _, seen := sums[sale.ProductID]; !seen {
			order = append(order, sale.ProductID)
		}
		sums[sale.ProductID] += sale.QuantitySold
	}
	for _, id := range order {
		if !ok || sums[id] > total {
			productID, total, ok = id, sums[id], true
		}
	}
	return productID, total, ok
}

// LowStock keeps products with quantity <= threshold, preserving input order.
func LowStock(products []models.Product, threshold int) []models.Product {
	low := make([]models.Product, 0)
	for _, p := range products {
		if p.IsLowStock(threshold) {
			low = append(low, p)
		}
	}
	return low
}
