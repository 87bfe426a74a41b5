package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"stockpos/internal/models"
	"stockpos/internal/repositories"
	"stockpos/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var cashier = models.AuthContext{UserID: "user-1", Email: "cashier@example.com", Role: models.RoleUser}

// MockStockLedger is a mock implementation of repositories.StockLedger
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockStockLedger) SetQuantity(ctx context.Context, id uint, expected, newQuantity int) error {
	args := m.Called(ctx, id, expected, newQuantity)
	return args.Error(0)
}

func (m *MockStockLedger) InsertSale(ctx context.Context, sale *models.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (p *recordingPublisher) Publish(routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

type saleFixture struct {
	service   *services.SaleService
	products  *repositories.MockProductRepository
	sales     *repositories.MockSaleRepository
	publisher *recordingPublisher
}

func newSaleFixture(t *testing.T, settings services.SaleSettings, products ...models.Product) saleFixture {
	t.Helper()
	productRepo := repositories.NewMockProductRepository()
	saleRepo := repositories.NewMockSaleRepository()
	for i := range products {
		require.NoError(t, productRepo.Create(context.Background(), &products[i]))
	}
	publisher := &recordingPublisher{}
	ledger := repositories.NewStockLedger(productRepo, saleRepo)
	return saleFixture{
		service:   services.NewSaleService(ledger, saleRepo, publisher, settings),
		products:  productRepo,
		sales:     saleRepo,
		publisher: publisher,
	}
}

func (f saleFixture) quantity(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func (f saleFixture) saleCount(t *testing.T) int {
	t.Helper()
	sales, err := f.sales.List(context.Background(), zeroTime)
	require.NoError(t, err)
	return len(sales)
}

func product(name string, quantity int, price string) models.Product {
	return models.Product{Name: name, Quantity: quantity, Price: decimal.RequireFromString(price)}
}

func TestProcessSale_RepeatedProductInOneBasket(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{LowStockThreshold: 5, MaxConflictRetries: 3}, product("A", 10, "2.50"))

	result, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 4},
		{ProductID: 1, QuantitySold: 3},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ItemsProcessed)
	assert.Equal(t, 3, f.quantity(t, 1))

	sales, _ := f.sales.List(context.Background(), zeroTime)
	require.Len(t, sales, 2)
	assert.Equal(t, 4, sales[0].QuantitySold)
	assert.Equal(t, 3, sales[1].QuantitySold)
	assert.Equal(t, "user-1", sales[0].SoldBy)
	assert.True(t, decimal.RequireFromString("2.50").Equal(sales[0].UnitPrice))
	assert.False(t, sales[0].SaleDate.IsZero())
}

func TestProcessSale_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{LowStockThreshold: 5}, product("B", 2, "1.00"))

	result, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 5},
	})

	assert.Nil(t, result)
	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, "B", stockErr.Name)
	assert.Equal(t, 2, f.quantity(t, 1))
	assert.Zero(t, f.saleCount(t))
}

func TestProcessSale_OneShortLineRejectsWholeBasket(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{}, product("A", 10, "1.00"), product("B", 2, "1.00"))

	_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 4},
		{ProductID: 2, QuantitySold: 5},
	})

	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, uint(2), stockErr.ProductID)
	assert.Equal(t, 10, f.quantity(t, 1))
	assert.Equal(t, 2, f.quantity(t, 2))
	assert.Zero(t, f.saleCount(t))
}

func TestProcessSale_CombinedDemandIsValidated(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{}, product("A", 10, "1.00"))

	_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 6},
		{ProductID: 1, QuantitySold: 6},
	})

	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 12, stockErr.Requested)
	assert.Equal(t, 10, f.quantity(t, 1))
	assert.Zero(t, f.saleCount(t))
}

func TestProcessSale_HugeCombinedDemandIsRejected(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{MaxConflictRetries: 3}, product("A", 10, "1.00"))

	_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 1},
		{ProductID: 1, QuantitySold: math.MaxInt},
		{ProductID: 1, QuantitySold: math.MaxInt},
	})

	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, math.MaxInt, stockErr.Requested)
	var partial *services.PartialApplicationError
	assert.False(t, errors.As(err, &partial))
	assert.Equal(t, 10, f.quantity(t, 1))
	assert.Zero(t, f.saleCount(t))
}

func TestProcessSale_ValidationErrors(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{}, product("A", 10, "1.00"))

	t.Run("empty basket", func(t *testing.T) {
		_, err := f.service.ProcessSale(context.Background(), cashier, nil)
		var validationErr *services.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Message, "at least one item")
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
			{ProductID: 1, QuantitySold: 1},
			{ProductID: 1, QuantitySold: 0},
		})
		var validationErr *services.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "[1].QuantitySold")
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
			{ProductID: 99, QuantitySold: 1},
		})
		var notFound *services.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, uint(99), notFound.ProductID)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := f.service.ProcessSale(context.Background(), models.AuthContext{}, []models.SaleLineRequest{
			{ProductID: 1, QuantitySold: 1},
		})
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
	})

	assert.Equal(t, 10, f.quantity(t, 1))
	assert.Zero(t, f.saleCount(t))
}

func TestProcessSale_ConcurrentSalesOfLastUnit(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{MaxConflictRetries: 3}, product("C", 1, "1.00"))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
				{ProductID: 1, QuantitySold: 1},
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *services.InsufficientStockError
		assert.ErrorAs(t, err, &stockErr)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.quantity(t, 1))
	assert.Equal(t, 1, f.saleCount(t))
}

func TestProcessSale_StockNeverGoesNegativeUnderContention(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{MaxConflictRetries: 50}, product("D", 5, "1.00"))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
				{ProductID: 1, QuantitySold: 1},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, f.quantity(t, 1))
	assert.Equal(t, 5, f.saleCount(t))
}

func TestProcessSale_PublishesEvents(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{LowStockThreshold: 5}, product("A", 10, "1.00"), product("B", 6, "1.00"))

	_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 1},
		{ProductID: 2, QuantitySold: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		services.RoutingKeySaleRecorded,
		services.RoutingKeySaleRecorded,
		services.RoutingKeyStockLow,
	}, f.publisher.keys)
}

func TestProcessSale_PublisherFailureDoesNotBlockSale(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{LowStockThreshold: 5}, product("A", 3, "1.00"))
	f.publisher.fail = true

	result, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsProcessed)
	assert.Equal(t, 2, f.quantity(t, 1))
}

func TestProcessSale_PartialApplication(t *testing.T) {
	ledger := new(MockStockLedger)
	service := services.NewSaleService(ledger, repositories.NewMockSaleRepository(), nil, services.SaleSettings{MaxConflictRetries: 3})

	p1 := &models.Product{ID: 1, Name: "A", Quantity: 5}
	p2 := &models.Product{ID: 2, Name: "B", Quantity: 5}
	ledger.On("GetProduct", mock.Anything, uint(1)).Return(p1, nil)
	ledger.On("GetProduct", mock.Anything, uint(2)).Return(p2, nil)
	ledger.On("SetQuantity", mock.Anything, uint(1), 5, 4).Return(nil).Once()
	ledger.On("InsertSale", mock.Anything, mock.AnythingOfType("*models.Sale")).Return(nil).Once()
	ledger.On("SetQuantity", mock.Anything, uint(2), 5, 4).Return(errors.New("connection reset")).Once()

	result, err := service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 1},
		{ProductID: 2, QuantitySold: 1},
	})

	assert.Nil(t, result)
	var partial *services.PartialApplicationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.FailedLine)
	assert.Equal(t, uint(2), partial.ProductID)
	assert.Equal(t, 1, partial.Committed)
	assert.Len(t, partial.Sales, 1)

	var backendErr *services.BackendError
	assert.ErrorAs(t, err, &backendErr)
	assert.Contains(t, err.Error(), "connection reset")
	ledger.AssertExpectations(t)
}

func TestProcessSale_FailedInsertRestoresStock(t *testing.T) {
	ledger := new(MockStockLedger)
	service := services.NewSaleService(ledger, repositories.NewMockSaleRepository(), nil, services.SaleSettings{MaxConflictRetries: 3})

	ledger.On("GetProduct", mock.Anything, uint(1)).Return(&models.Product{ID: 1, Name: "A", Quantity: 5}, nil).Twice()
	ledger.On("SetQuantity", mock.Anything, uint(1), 5, 4).Return(nil).Once()
	ledger.On("InsertSale", mock.Anything, mock.AnythingOfType("*models.Sale")).Return(errors.New("quota exceeded")).Once()
	ledger.On("GetProduct", mock.Anything, uint(1)).Return(&models.Product{ID: 1, Name: "A", Quantity: 4}, nil).Once()
	ledger.On("SetQuantity", mock.Anything, uint(1), 4, 5).Return(nil).Once()

	_, err := service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 1},
	})

	var backendErr *services.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "insert sale", backendErr.Op)
	var partial *services.PartialApplicationError
	assert.False(t, errors.As(err, &partial), "first line failing is not a partial application")
	ledger.AssertExpectations(t)
}

func TestProcessSale_RetriesOnStockConflict(t *testing.T) {
	ledger := new(MockStockLedger)
	service := services.NewSaleService(ledger, repositories.NewMockSaleRepository(), nil, services.SaleSettings{MaxConflictRetries: 3})

	ledger.On("GetProduct", mock.Anything, uint(1)).Return(&models.Product{ID: 1, Name: "A", Quantity: 5}, nil).Twice()
	ledger.On("SetQuantity", mock.Anything, uint(1), 5, 3).Return(repositories.ErrStockConflict).Once()
	ledger.On("GetProduct", mock.Anything, uint(1)).Return(&models.Product{ID: 1, Name: "A", Quantity: 4}, nil).Once()
	ledger.On("SetQuantity", mock.Anything, uint(1), 4, 2).Return(nil).Once()
	ledger.On("InsertSale", mock.Anything, mock.AnythingOfType("*models.Sale")).Return(nil).Once()

	result, err := service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{
		{ProductID: 1, QuantitySold: 2},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsProcessed)
	ledger.AssertExpectations(t)
}

func TestListSales_RequiresAdmin(t *testing.T) {
	f := newSaleFixture(t, services.SaleSettings{}, product("A", 10, "1.00"))
	_, err := f.service.ProcessSale(context.Background(), cashier, []models.SaleLineRequest{{ProductID: 1, QuantitySold: 2}})
	require.NoError(t, err)

	_, err = f.service.ListSales(context.Background(), cashier, 0)
	assert.ErrorIs(t, err, services.ErrForbidden)

	sales, err := f.service.ListSales(context.Background(), admin, 30)
	require.NoError(t, err)
	require.Len(t, sales, 1)

	body, err := json.Marshal(sales[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"quantitySold":2`)
}
