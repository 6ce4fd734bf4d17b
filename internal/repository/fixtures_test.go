package repository_test

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func insertCustomer(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	customerID, err := repository.NewCustomer(pool).InsertCustomer(t.Context(), randomCustomer())
	require.NoError(t, err)

	return customerID
}

func insertProduct(t *testing.T, pool *pgxpool.Pool, price domain.Money, stock int) domain.Product {
	t.Helper()

	product := randomProduct()
	product.Price = price
	product.Stock = stock

	repo := repository.NewProduct(pool)

	productID, err := repo.InsertProduct(t.Context(), product)
	require.NoError(t, err)

	inserted, err := repo.GetProduct(t.Context(), productID)
	require.NoError(t, err)

	return inserted
}

func randomCustomer() domain.Customer {
	return domain.Customer{
		Name: gofakeit.Name(),
		// unique constraint on email
		Email: fmt.Sprintf("%s.%s", uuid.NewString(), gofakeit.Email()),
		Phone: lo.ToPtr(gofakeit.Phone()),
	}
}

func randomProduct() domain.Product {
	return domain.Product{
		SKU:         "SKU-" + uuid.NewString(),
		Name:        gofakeit.ProductName(),
		Description: lo.ToPtr(gofakeit.ProductDescription()),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)),
			Currency: randomCurrency(),
		},
		Stock: gofakeit.Number(1, 100),
	}
}

func randomOrderItem(product domain.Product) domain.OrderItem {
	return domain.OrderItem{
		ProductID: product.ID,
		Quantity:  gofakeit.Number(1, 5),
		UnitPrice: decimal.NewNullDecimal(product.Price.Amount),
	}
}

func randomOrderNumber() string {
	return domain.FormatOrderNumber(time.Now(), int64(gofakeit.Number(1, 99_999_999)))
}

func randomCurrency() currency.Unit {
	var (
		result currency.Unit
		err    error
	)

	for {
		// tag is not a recognized currency
		result, err = currency.ParseISO(gofakeit.CurrencyShort())
		if err == nil {
			break
		}
	}

	return result
}

var (
	currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	// NUMERIC(19,4) columns come back with a fixed scale, 12.5 is read as 12.5000
	decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})
)

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.OrderItem{}, "ID", "CreatedAt"),
		cmpopts.IgnoreFields(domain.Order{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		currencyComparer,
		decimalComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
	assert.NotEqual(t, uuid.Nil, actual.ID)
	for _, item := range actual.Items {
		assert.NotEqual(t, uuid.Nil, item.ID)
	}
}

func assertOrders(t *testing.T, expected, actual []domain.Order) {
	t.Helper()

	sortOrders := func(orders []domain.Order) {
		sort.Slice(orders, func(i, j int) bool {
			return orders[i].OrderNumber < orders[j].OrderNumber
		})
	}

	sortOrders(expected)
	sortOrders(actual)

	require.Equal(t, len(expected), len(actual))

	for i := range expected {
		assertOrder(t, expected[i], actual[i])
	}
}
