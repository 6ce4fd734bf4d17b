package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/pgtest"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/nikolayk812/fulfillment/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"golang.org/x/text/currency"
)

type catalogRepositorySuite struct {
	suite.Suite

	products  port.ProductRepository
	customers port.CustomerRepository
	pool      *pgxpool.Pool
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestCatalogRepositorySuite(t *testing.T) {
	suite.Run(t, new(catalogRepositorySuite))
}

// before all tests in the suite
func (suite *catalogRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = pgtest.StartPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	suite.products = repository.NewProduct(suite.pool)
	suite.customers = repository.NewCustomer(suite.pool)
}

// after all tests in the suite
func (suite *catalogRepositorySuite) TearDownSuite() {
	ctx := context.Background()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

// after each test
func (suite *catalogRepositorySuite) TearDownTest() {
	suite.NoError(pgtest.Truncate(context.Background(), suite.pool))
}

func (suite *catalogRepositorySuite) TestInsertProduct() {
	tests := []struct {
		name        string
		productFunc func() domain.Product
		wantError   string
	}{
		{
			name:        "valid product: ok",
			productFunc: randomProduct,
		},
		{
			name: "no description: ok",
			productFunc: func() domain.Product {
				p := randomProduct()
				p.Description = nil
				return p
			},
		},
		{
			name: "empty sku: fail",
			productFunc: func() domain.Product {
				p := randomProduct()
				p.SKU = ""
				return p
			},
			wantError: "sku is empty",
		},
		{
			name: "negative stock: fail",
			productFunc: func() domain.Product {
				p := randomProduct()
				p.Stock = -1
				return p
			},
			wantError: "stock[-1] is negative",
		},
		{
			name: "stock above storage range: fail",
			productFunc: func() domain.Product {
				p := randomProduct()
				p.Stock = domain.MaxQuantity + 1
				return p
			},
			wantError: "stock[2147483648] exceeds 2147483647",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			product := tt.productFunc()

			productID, err := suite.products.InsertProduct(ctx, product)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual, err := suite.products.GetProduct(ctx, productID)
			require.NoError(t, err)

			assert.Equal(t, productID, actual.ID)
			assert.Equal(t, product.SKU, actual.SKU)
			assert.Equal(t, product.Name, actual.Name)
			assert.Equal(t, product.Description, actual.Description)
			assert.Equal(t, product.Stock, actual.Stock)
			assert.True(t, product.Price.Amount.Equal(actual.Price.Amount))
			assert.Equal(t, product.Price.Currency.String(), actual.Price.Currency.String())
		})
	}
}

func (suite *catalogRepositorySuite) TestGetProductNotFound() {
	_, err := suite.products.GetProduct(suite.T().Context(), uuid.New())
	suite.EqualError(err, "q.GetProduct: product not found")
	suite.ErrorIs(err, domain.ErrProductNotFound)
}

func (suite *catalogRepositorySuite) TestDecrementStock() {
	tests := []struct {
		name         string
		stock        int
		quantity     int
		targetIDFunc func() uuid.UUID // which product to decrement, if nil use the inserted one
		wantStock    int
		wantError    error
	}{
		{
			name:      "partial: ok",
			stock:     10,
			quantity:  3,
			wantStock: 7,
		},
		{
			name:      "down to zero: ok",
			stock:     2,
			quantity:  2,
			wantStock: 0,
		},
		{
			name:      "more than available: insufficient stock",
			stock:     2,
			quantity:  3,
			wantStock: 2,
			wantError: domain.ErrInsufficientStock,
		},
		{
			name:      "zero quantity: invalid",
			stock:     2,
			quantity:  0,
			wantStock: 2,
			wantError: domain.ErrInvalidQuantity,
		},
		{
			name:      "quantity wrapping to negative int32: invalid",
			stock:     2,
			quantity:  2*domain.MaxQuantity + 2,
			wantStock: 2,
			wantError: domain.ErrInvalidQuantity,
		},
		{
			name:      "quantity above storage range: invalid",
			stock:     2,
			quantity:  domain.MaxQuantity + 1,
			wantStock: 2,
			wantError: domain.ErrInvalidQuantity,
		},
		{
			name:     "unknown product: not found",
			stock:    2,
			quantity: 1,
			targetIDFunc: func() uuid.UUID {
				return uuid.New()
			},
			wantStock: 2,
			wantError: domain.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			product := insertProduct(t, suite.pool, randomProduct().Price, tt.stock)

			targetID := product.ID
			if tt.targetIDFunc != nil {
				targetID = tt.targetIDFunc()
			}

			stock, err := suite.products.DecrementStock(ctx, targetID, tt.quantity)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStock, stock)
			}

			actual, err := suite.products.GetProduct(ctx, product.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, actual.Stock)
		})
	}
}

func (suite *catalogRepositorySuite) TestDecrementStockReportsAvailable() {
	t := suite.T()

	product := insertProduct(t, suite.pool, randomProduct().Price, 2)

	_, err := suite.products.DecrementStock(t.Context(), product.ID, 5)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, product.ID, stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
}

func (suite *catalogRepositorySuite) TestDecrementStockConcurrently() {
	t := suite.T()
	ctx := t.Context()

	const (
		stock   = 10
		workers = 25
	)

	product := insertProduct(t, suite.pool, domain.Money{Amount: decimal.NewFromInt(1), Currency: currency.EUR}, stock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := suite.products.DecrementStock(ctx, product.ID, 1)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, workers-stock, rejected)

	actual, err := suite.products.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, actual.Stock)
}

func (suite *catalogRepositorySuite) TestIncrementStock() {
	t := suite.T()
	ctx := t.Context()

	product := insertProduct(t, suite.pool, randomProduct().Price, 1)

	stock, err := suite.products.IncrementStock(ctx, product.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	_, err = suite.products.IncrementStock(ctx, uuid.New(), 4)
	require.EqualError(t, err, "q.IncrementStock: product not found")

	_, err = suite.products.IncrementStock(ctx, product.ID, -1)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = suite.products.IncrementStock(ctx, product.ID, 2*domain.MaxQuantity+2)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	actual, err := suite.products.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, actual.Stock)
}

func (suite *catalogRepositorySuite) TestCustomer() {
	t := suite.T()
	ctx := t.Context()

	customer := randomCustomer()

	customerID, err := suite.customers.InsertCustomer(ctx, customer)
	require.NoError(t, err)

	actual, err := suite.customers.GetCustomer(ctx, customerID)
	require.NoError(t, err)

	assert.Equal(t, customerID, actual.ID)
	assert.Equal(t, customer.Name, actual.Name)
	assert.Equal(t, customer.Email, actual.Email)
	assert.Equal(t, customer.Phone, actual.Phone)
	assert.False(t, actual.CreatedAt.IsZero())

	exists, err := suite.customers.CustomerExists(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = suite.customers.CustomerExists(ctx, uuid.MustParse(gofakeit.UUID()))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = suite.customers.GetCustomer(ctx, uuid.New())
	require.EqualError(t, err, "q.GetCustomer: customer not found")

	_, err = suite.customers.InsertCustomer(ctx, domain.Customer{Name: gofakeit.Name()})
	require.EqualError(t, err, "email is empty")
}
