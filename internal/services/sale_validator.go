package services

import (
	"context"
	"math"
	"strconv"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

const maxParallelReads = 8

// SaleValidator checks a basket against current stock without writing anything.
type SaleValidator struct {
	ledger   repositories.StockLedger
	validate *validator.Validate
}

// NewSaleValidator creates a new SaleValidator.
func NewSaleValidator(ledger repositories.StockLedger) *SaleValidator {
	return &SaleValidator{
		ledger:   ledger,
		validate: validator.New(),
	}
}

// Validate returns nil when every line can be served from current stock.
// Lines for the same product are summed before comparing against its quantity.
// The check is not atomic with the later writes.
func (v *SaleValidator) Validate(ctx context.Context, basket []models.SaleLineRequest) error {
	if len(basket) == 0 {
		return &ValidationError{Message: "basket must contain at least one item"}
	}

	var shapeErr *ValidationError
	for i, line := range basket {
		if err := v.validate.Struct(line); err != nil {
			if shapeErr == nil {
				shapeErr = &ValidationError{Message: "Validation failed", Fields: map[string]string{}}
			}
			mergeValidation(shapeErr, err, lineField(i))
		}
	}
	if shapeErr != nil {
		return shapeErr
	}

	order := make([]uint, 0, len(basket))
	demand := make(map[uint]int, len(basket))
	for _, line := range basket {
		if _, seen := demand[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		demand[line.ProductID] = addDemand(demand[line.ProductID], line.QuantitySold)
	}

	products := make([]*models.Product, len(order))
	lookupErrs := make([]error, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, id := range order {
		i, id := i, id
		g.Go(func() error {
			p, err := v.ledger.GetProduct(gctx, id)
			products[i], lookupErrs[i] = p, err
			return nil
		})
	}
	// Goroutines never fail; lookup errors are kept per product so the report follows basket order.
	_ = g.Wait()

	// Report the first failing product in basket order.
	for i, id := range order {
		if lookupErrs[i] != nil {
			return productLookupError("get product", id, lookupErrs[i])
		}
		p := products[i]
		if p.Quantity < demand[id] {
			return &InsufficientStockError{
				ProductID: id,
				Name:      p.Name,
				Available: p.Quantity,
				Requested: demand[id],
			}
		}
	}
	return nil
}

// addDemand sums line quantities, saturating at math.MaxInt so a huge basket
// can never wrap around and look satisfiable.
func addDemand(total, quantity int) int {
	if total > math.MaxInt-quantity {
		return math.MaxInt
	}
	return total + quantity
}

func lineField(i int) string {
	return "[" + strconv.Itoa(i) + "]."
}
