package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
)

type CustomerRepository interface {
	GetCustomer(ctx context.Context, customerID uuid.UUID) (domain.Customer, error)
	CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error)
	InsertCustomer(ctx context.Context, customer domain.Customer) (uuid.UUID, error)
}

type ProductRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error)

	// DecrementStock atomically subtracts quantity and returns the new stock.
	// It fails with *domain.InsufficientStockError instead of going below zero.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error)
	IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error)
}
