package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProducts keeps stock in memory and records the order of stock calls.
type fakeProducts struct {
	mu    sync.Mutex
	stock map[uuid.UUID]int
	calls []uuid.UUID
}

func newFakeProducts(stock map[uuid.UUID]int) *fakeProducts {
	return &fakeProducts{stock: stock}
}

func (f *fakeProducts) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stock, ok := f.stock[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return domain.Product{ID: productID, Stock: stock}, nil
}

func (f *fakeProducts) InsertProduct(_ context.Context, product domain.Product) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.New()
	f.stock[id] = product.Stock
	return id, nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, productID)

	stock, ok := f.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if stock < quantity {
		return 0, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: stock}
	}

	f.stock[productID] = stock - quantity
	return f.stock[productID], nil
}

func (f *fakeProducts) IncrementStock(_ context.Context, productID uuid.UUID, quantity int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, productID)

	if _, ok := f.stock[productID]; !ok {
		return 0, domain.ErrProductNotFound
	}

	f.stock[productID] += quantity
	return f.stock[productID], nil
}

func TestCoordinator_Decrement(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name      string
		productID uuid.UUID
		quantity  int
		wantStock int
		wantError error
	}{
		{
			name:      "partial: ok",
			productID: productID,
			quantity:  2,
			wantStock: 3,
		},
		{
			name:      "all: ok",
			productID: productID,
			quantity:  5,
			wantStock: 0,
		},
		{
			name:      "more than available: insufficient stock",
			productID: productID,
			quantity:  6,
			wantError: domain.ErrInsufficientStock,
		},
		{
			name:      "zero: invalid quantity",
			productID: productID,
			quantity:  0,
			wantError: domain.ErrInvalidQuantity,
		},
		{
			name:      "negative: invalid quantity",
			productID: productID,
			quantity:  -1,
			wantError: domain.ErrInvalidQuantity,
		},
		{
			name:      "above storage range: invalid quantity",
			productID: productID,
			quantity:  domain.MaxQuantity + 1,
			wantError: domain.ErrInvalidQuantity,
		},
		{
			name:      "unknown product: not found",
			productID: uuid.New(),
			quantity:  1,
			wantError: domain.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := newFakeProducts(map[uuid.UUID]int{productID: 5})
			coordinator := inventory.NewCoordinator(products)

			stock, err := coordinator.Decrement(t.Context(), tt.productID, tt.quantity)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				assert.Equal(t, 5, products.stock[productID])
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantStock, stock)
			assert.Equal(t, tt.wantStock, products.stock[productID])
		})
	}
}

func TestCoordinator_Restore(t *testing.T) {
	productID := uuid.New()
	products := newFakeProducts(map[uuid.UUID]int{productID: 0})
	coordinator := inventory.NewCoordinator(products)

	stock, err := coordinator.Restore(t.Context(), productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, stock)

	_, err = coordinator.Restore(t.Context(), productID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = coordinator.Restore(t.Context(), uuid.New(), 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCoordinator_CommitOversizedLine(t *testing.T) {
	productID := uuid.New()
	products := newFakeProducts(map[uuid.UUID]int{productID: 10})
	coordinator := inventory.NewCoordinator(products)

	// each item fits, their sum for one product does not
	items := []domain.OrderItem{
		{ProductID: productID, Quantity: domain.MaxQuantity},
		{ProductID: productID, Quantity: domain.MaxQuantity},
	}

	lines := inventory.Lines(items)
	require.Len(t, lines, 1)
	assert.Equal(t, 2*domain.MaxQuantity, lines[0].Quantity)

	err := coordinator.Commit(t.Context(), items)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	err = coordinator.Release(t.Context(), items)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Empty(t, products.calls)
	assert.Equal(t, 10, products.stock[productID])
}

func TestCoordinator_CommitAndRelease(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	items := []domain.OrderItem{
		{ProductID: p1, Quantity: 2},
		{ProductID: p2, Quantity: 1},
		{ProductID: p1, Quantity: 3},
	}

	products := newFakeProducts(map[uuid.UUID]int{p1: 5, p2: 4})
	coordinator := inventory.NewCoordinator(products)

	require.NoError(t, coordinator.Commit(t.Context(), items))
	assert.Equal(t, 0, products.stock[p1])
	assert.Equal(t, 3, products.stock[p2])

	// one call per product, not per item
	assert.Len(t, products.calls, 2)

	require.NoError(t, coordinator.Release(t.Context(), items))
	assert.Equal(t, 5, products.stock[p1])
	assert.Equal(t, 4, products.stock[p2])
}

func TestCoordinator_CommitInsufficientStock(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	products := newFakeProducts(map[uuid.UUID]int{p1: 5, p2: 1})
	coordinator := inventory.NewCoordinator(products)

	err := coordinator.Commit(t.Context(), []domain.OrderItem{
		{ProductID: p1, Quantity: 2},
		{ProductID: p2, Quantity: 2},
	})

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p2, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
}

func TestLines(t *testing.T) {
	ids := make([]uuid.UUID, 0, 10)
	items := make([]domain.OrderItem, 0, 20)
	for i := range 10 {
		id := uuid.New()
		ids = append(ids, id)
		items = append(items,
			domain.OrderItem{ProductID: id, Quantity: i + 1},
			domain.OrderItem{ProductID: id, Quantity: 1},
		)
	}

	lines := inventory.Lines(items)
	require.Len(t, lines, 10)

	for i := 1; i < len(lines); i++ {
		assert.Negative(t, bytes.Compare(lines[i-1].ProductID[:], lines[i].ProductID[:]),
			fmt.Sprintf("line %d is out of order", i))
	}

	byProduct := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		byProduct[line.ProductID] = line.Quantity
	}
	for i, id := range ids {
		assert.Equal(t, i+2, byProduct[id])
	}

	assert.Empty(t, inventory.Lines(nil))
}

func TestCoordinator_ConcurrentCommitsNeverOversell(t *testing.T) {
	productID := uuid.New()
	products := newFakeProducts(map[uuid.UUID]int{productID: 10})
	coordinator := inventory.NewCoordinator(products)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)

	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := coordinator.Commit(context.Background(), []domain.OrderItem{{ProductID: productID, Quantity: 1}})
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, committed)
	assert.Equal(t, 0, products.stock[productID])
}
