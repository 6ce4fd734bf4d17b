// Package inventory is the only path through which order transitions change product stock.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/samber/lo"
)

// Coordinator adjusts stock through a ProductRepository.
// All calls made for one transition must share the transaction the repository is bound to,
// so they commit or roll back together.
type Coordinator struct {
	products port.ProductRepository
}

func NewCoordinator(products port.ProductRepository) *Coordinator {
	return &Coordinator{products: products}
}

// Line is the total quantity of one product across the items of an order.
// A total above domain.MaxQuantity is rejected by Decrement and Restore.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

func (c *Coordinator) Decrement(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}

	stock, err := c.products.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("products.DecrementStock: %w", err)
	}

	return stock, nil
}

// Restore adds quantity back, no upper bound is applied.
func (c *Coordinator) Restore(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return 0, err
	}

	stock, err := c.products.IncrementStock(ctx, productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("products.IncrementStock: %w", err)
	}

	return stock, nil
}

// Commit decrements stock for every product referenced by items.
// It stops at the first failure, the caller rolls back the transaction.
func (c *Coordinator) Commit(ctx context.Context, items []domain.OrderItem) error {
	for _, line := range Lines(items) {
		if _, err := c.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("c.Decrement: %w", err)
		}
	}

	return nil
}

// Release restores the stock taken by Commit for the same items.
func (c *Coordinator) Release(ctx context.Context, items []domain.OrderItem) error {
	for _, line := range Lines(items) {
		if _, err := c.Restore(ctx, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("c.Restore: %w", err)
		}
	}

	return nil
}

// Lines sums quantities per product and sorts by product id.
// Concurrent transitions lock product rows in the same order and cannot deadlock each other.
func Lines(items []domain.OrderItem) []Line {
	totals := lo.Reduce(items, func(acc map[uuid.UUID]int, item domain.OrderItem, _ int) map[uuid.UUID]int {
		acc[item.ProductID] += item.Quantity
		return acc
	}, make(map[uuid.UUID]int, len(items)))

	lines := lo.MapToSlice(totals, func(productID uuid.UUID, quantity int) Line {
		return Line{ProductID: productID, Quantity: quantity}
	})

	slices.SortFunc(lines, func(a, b Line) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})

	return lines
}
