package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrItemNotFound     = errors.New("order item not found")

	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidUnitPrice = errors.New("invalid unit price")

	// ErrOrderNotMutable is returned for item mutations or transitions on a finalized or canceled order.
	ErrOrderNotMutable = errors.New("order is not mutable")

	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

// InsufficientStockError names the product whose stock would go negative.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: product[%s] requested %d, available %d",
		ErrInsufficientStock, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
