package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
)

// OrderService is the only entry point that creates, mutates and terminates orders.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, items []domain.OrderItem) (domain.Order, error)

	// FindOrderByID and FindOrderByNumber report a missing order with found=false, not an error.
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (_ domain.Order, found bool, _ error)
	FindOrderByNumber(ctx context.Context, orderNumber string) (_ domain.Order, found bool, _ error)
	FindAllOrders(ctx context.Context) ([]domain.Order, error)
	FindOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)
	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	AddItemToOrder(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) (domain.OrderItem, error)
	RemoveItemFromOrder(ctx context.Context, orderID, itemID uuid.UUID) error
	UpdateOrderItem(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) (domain.OrderItem, error)

	CalculateOrderTotal(ctx context.Context, orderID uuid.UUID) (domain.Money, error)
	FinalizeOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
}
