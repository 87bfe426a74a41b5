package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProductCodePrefix prefixes generated product codes (PR001, PR002, ...).
const ProductCodePrefix = "PR"

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validate  *validator.Validate
	threshold int
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, lowStockThreshold int) *ProductService {
	return &ProductService{
		repo:      repo,
		validate:  validator.New(),
		threshold: lowStockThreshold,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context, auth models.AuthContext) ([]models.Product, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, &BackendError{Op: "list products", Err: err}
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, auth models.AuthContext, id uint) (*models.Product, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productLookupError("get product", id, err)
	}
	return product, nil
}

// GetLowStockProducts lists products at or below the threshold; threshold < 0 uses the default.
func (s *ProductService) GetLowStockProducts(ctx context.Context, auth models.AuthContext, threshold int) ([]models.Product, error) {
	if err := requireUser(auth); err != nil {
		return nil, err
	}
	if threshold < 0 {
		threshold = s.threshold
	}
	products, err := s.repo.GetLowStock(ctx, threshold)
	if err != nil {
		return nil, &BackendError{Op: "list low stock products", Err: err}
	}
	return products, nil
}

// CreateProduct creates a new product, generating its code when none is given.
func (s *ProductService) CreateProduct(ctx context.Context, auth models.AuthContext, input models.ProductInput) (*models.Product, error) {
	if err := RequireAdmin(auth); err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.ProductCode)
	if code == "" {
		last, err := s.repo.LastProductCode(ctx, ProductCodePrefix)
		if err != nil {
			return nil, &BackendError{Op: "next product code", Err: err}
		}
		code = NextProductCode(last)
	} else if err := s.ensureCodeFree(ctx, code); err != nil {
		return nil, err
	}

	product := &models.Product{ProductCode: code}
	applyInput(product, input)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, &BackendError{Op: "create product", Err: err}
	}
	zap.L().Info("product created", zap.Uint("product_id", product.ID), zap.String("code", product.ProductCode))
	return product, nil
}

// UpdateProduct replaces the editable fields of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, auth models.AuthContext, id uint, input models.ProductInput) (*models.Product, error) {
	if err := RequireAdmin(auth); err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productLookupError("get product", id, err)
	}

	code := strings.TrimSpace(input.ProductCode)
	if code != "" && code != product.ProductCode {
		if err := s.ensureCodeFree(ctx, code); err != nil {
			return nil, err
		}
		product.ProductCode = code
	}
	applyInput(product, input)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, productLookupError("update product", id, err)
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productLookupError("get product", id, err)
	}
	return updated, nil
}

// DeleteProduct soft-deletes a product. Its sales are kept.
func (s *ProductService) DeleteProduct(ctx context.Context, auth models.AuthContext, id uint) error {
	if err := RequireAdmin(auth); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return productLookupError("delete product", id, err)
	}
	zap.L().Info("product deleted", zap.Uint("product_id", id))
	return nil
}

func (s *ProductService) validateInput(input models.ProductInput) error {
	var out *ValidationError
	if err := s.validate.Struct(input); err != nil {
		out = validationFailed(err, "")
	}
	if input.Price.IsNegative() || input.PurchasePrice.IsNegative() {
		if out == nil {
			out = &ValidationError{Message: "Validation failed", Fields: map[string]string{}}
		}
		out.Fields["Price"] = "Prices must not be negative"
	}
	if out != nil {
		return out
	}
	return nil
}

func (s *ProductService) ensureCodeFree(ctx context.Context, code string) error {
	exists, err := s.repo.CodeExists(ctx, code)
	if err != nil {
		return &BackendError{Op: "check product code", Err: err}
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	return nil
}

func applyInput(product *models.Product, input models.ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Quantity = input.Quantity
	product.Price = input.Price
	product.PurchasePrice = input.PurchasePrice
	product.SupplierID = input.SupplierID
}

// NextProductCode returns the code following last, e.g. "PR009" -> "PR010".
// An empty or unparsable last code starts the sequence at PR001.
func NextProductCode(last string) string {
	n := 0
	if strings.HasPrefix(last, ProductCodePrefix) {
		if parsed, err := strconv.Atoi(strings.TrimPrefix(last, ProductCodePrefix)); err == nil {
			n = parsed
		}
	}
	return fmt.Sprintf("%s%03d", ProductCodePrefix, n+1)
}
