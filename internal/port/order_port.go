package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	// GetOrderForUpdate locks the order row until the surrounding transaction ends.
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	NextOrderNumber(ctx context.Context) (int64, error)
	InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateOrderState(ctx context.Context, order domain.Order) error

	InsertOrderItem(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) (domain.OrderItem, error)
	UpdateOrderItem(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) error
	DeleteOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (bool, error)
}
