package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/db"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

const (
	orderNumberUniqueConstraint  = "orders_order_number_key"
	orderCustomerFKConstraint    = "orders_customer_id_fkey"
	orderItemOrderFKConstraint   = "order_items_order_id_fkey"
	orderItemProductFKConstraint = "order_items_product_id_fkey"
)

type orderRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{
		q:    db.New(tx),
		dbtx: tx, // use provided transaction instead
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	order, err := withTx(ctx, r.dbtx, readOnlyTx, func(q *db.Queries) (domain.Order, error) {
		return getOrderWithItems(ctx, q, func() (db.Order, error) {
			return q.GetOrder(ctx, orderID)
		})
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	if _, ok := r.dbtx.(pgx.Tx); !ok {
		return domain.Order{}, errors.New("GetOrderForUpdate requires a transaction")
	}

	return getOrderWithItems(ctx, r.q, func() (db.Order, error) {
		return r.q.GetOrderForUpdate(ctx, orderID)
	})
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if orderNumber == "" {
		return domain.Order{}, errors.New("orderNumber is empty")
	}

	order, err := withTx(ctx, r.dbtx, readOnlyTx, func(q *db.Queries) (domain.Order, error) {
		return getOrderWithItems(ctx, q, func() (db.Order, error) {
			return q.GetOrderByNumber(ctx, orderNumber)
		})
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func getOrderWithItems(ctx context.Context, q *db.Queries, getOrder func() (db.Order, error)) (domain.Order, error) {
	var o domain.Order

	dbOrder, err := getOrder()
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, fmt.Errorf("q.GetOrder: %w", domain.ErrOrderNotFound)
		}
		return o, fmt.Errorf("q.GetOrder: %w", err)
	}

	dbOrderItems, err := q.GetOrderItems(ctx, dbOrder.ID)
	if err != nil {
		return o, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	o, err = mapDBOrderToDomain(dbOrder, dbOrderItems)
	if err != nil {
		return o, fmt.Errorf("mapDBOrderToDomain: %w", err)
	}

	return o, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	orders, err := withTx(ctx, r.dbtx, readOnlyTx, func(q *db.Queries) ([]domain.Order, error) {
		dbOrders, err := q.SearchOrders(ctx, mapDomainOrderFilterToDBFilter(filter))
		if err != nil {
			return nil, fmt.Errorf("q.SearchOrders: %w", err)
		}

		if len(dbOrders) == 0 {
			return nil, nil
		}

		orderIDs := lo.Map(dbOrders, func(o db.Order, _ int) string {
			return o.ID.String()
		})

		dbOrderItems, err := q.GetOrdersItems(ctx, orderIDs)
		if err != nil {
			return nil, fmt.Errorf("q.GetOrdersItems: %w", err)
		}

		itemsByOrder := lo.GroupBy(dbOrderItems, func(item db.OrderItem) uuid.UUID {
			return item.OrderID
		})

		result := make([]domain.Order, 0, len(dbOrders))
		for _, dbOrder := range dbOrders {
			order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
			if err != nil {
				return nil, fmt.Errorf("mapDBOrderToDomain: %w", err)
			}
			result = append(result, order)
		}

		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	seq, err := r.q.NextOrderNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("q.NextOrderNumber: %w", err)
	}

	return seq, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.OrderNumber == "" {
		return domain.Order{}, errors.New("orderNumber is empty")
	}
	if order.CustomerID == uuid.Nil {
		return domain.Order{}, errors.New("customerID is empty")
	}

	inserted, err := withTx(ctx, r.dbtx, readWriteTx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := q.InsertOrder(ctx, db.InsertOrderParams{
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			Currency:    order.Currency.String(),
		})
		if err != nil {
			if constraint, ok := constraintViolation(err, pgUniqueViolation); ok && constraint == orderNumberUniqueConstraint {
				return domain.Order{}, fmt.Errorf("q.InsertOrder: %w", domain.ErrDuplicateOrderNumber)
			}
			if constraint, ok := constraintViolation(err, pgForeignKeyViolation); ok && constraint == orderCustomerFKConstraint {
				return domain.Order{}, fmt.Errorf("q.InsertOrder: %w", domain.ErrCustomerNotFound)
			}
			return domain.Order{}, fmt.Errorf("q.InsertOrder: %w", err)
		}

		// TODO: batch insert items with pgx.Batch once orders routinely carry many lines
		dbItems := make([]db.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			dbItem, err := insertOrderItem(ctx, q, dbOrder.ID, item)
			if err != nil {
				return domain.Order{}, fmt.Errorf("insertOrderItem: %w", err)
			}
			dbItems = append(dbItems, dbItem)
		}

		return mapDBOrderToDomain(dbOrder, dbItems)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("withTx: %w", err)
	}

	return inserted, nil
}

func (r *orderRepository) UpdateOrderState(ctx context.Context, order domain.Order) error {
	if order.ID == uuid.Nil {
		return errors.New("orderID is empty")
	}
	if order.Status == "" {
		return errors.New("status is empty")
	}

	cmdTag, err := r.q.UpdateOrderState(ctx, db.UpdateOrderStateParams{
		ID:          order.ID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateOrderState: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateOrderState: %w", domain.ErrOrderNotFound)
	}

	return nil
}

func (r *orderRepository) InsertOrderItem(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) (domain.OrderItem, error) {
	if orderID == uuid.Nil {
		return domain.OrderItem{}, errors.New("orderID is empty")
	}

	dbItem, err := insertOrderItem(ctx, r.q, orderID, item)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("insertOrderItem: %w", err)
	}

	return mapDBOrderItemToDomain(dbItem), nil
}

func insertOrderItem(ctx context.Context, q *db.Queries, orderID uuid.UUID, item domain.OrderItem) (db.OrderItem, error) {
	if err := item.Validate(); err != nil {
		return db.OrderItem{}, fmt.Errorf("item.Validate: %w", err)
	}

	dbItem, err := q.InsertOrderItem(ctx, db.InsertOrderItemParams{
		OrderID:   orderID,
		ProductID: item.ProductID,
		Quantity:  int32(item.Quantity),
		UnitPrice: item.UnitPrice,
	})
	if err != nil {
		if constraint, ok := constraintViolation(err, pgForeignKeyViolation); ok {
			switch constraint {
			case orderItemProductFKConstraint:
				return db.OrderItem{}, fmt.Errorf("q.InsertOrderItem: %w", domain.ErrProductNotFound)
			case orderItemOrderFKConstraint:
				return db.OrderItem{}, fmt.Errorf("q.InsertOrderItem: %w", domain.ErrOrderNotFound)
			}
		}
		return db.OrderItem{}, fmt.Errorf("q.InsertOrderItem: %w", err)
	}

	return dbItem, nil
}

func (r *orderRepository) UpdateOrderItem(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) error {
	if orderID == uuid.Nil {
		return errors.New("orderID is empty")
	}
	if item.ID == uuid.Nil {
		return errors.New("itemID is empty")
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("item.Validate: %w", err)
	}

	cmdTag, err := r.q.UpdateOrderItem(ctx, db.UpdateOrderItemParams{
		ID:        item.ID,
		OrderID:   orderID,
		Quantity:  int32(item.Quantity),
		UnitPrice: item.UnitPrice,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateOrderItem: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.UpdateOrderItem: %w", domain.ErrItemNotFound)
	}

	return nil
}

func (r *orderRepository) DeleteOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, errors.New("orderID is empty")
	}

	cmdTag, err := r.q.DeleteOrderItem(ctx, db.DeleteOrderItemParams{
		ID:      itemID,
		OrderID: orderID,
	})
	if err != nil {
		return false, fmt.Errorf("q.DeleteOrderItem: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) db.SearchOrdersParams {
	var createdAfter, createdBefore *time.Time

	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	return db.SearchOrdersParams{
		CustomerIds: nilSliceIfEmpty(lo.Map(filter.CustomerIDs, func(id uuid.UUID, _ int) string {
			return id.String()
		})),
		Statuses: nilSliceIfEmpty(lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string {
			return string(s)
		})),
		OrderNumbers:  nilSliceIfEmpty(filter.OrderNumbers),
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
	}
}

func mapDBOrderToDomain(dbOrder db.Order, dbOrderItems []db.OrderItem) (domain.Order, error) {
	var o domain.Order

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	parsedCurrency, err := currency.ParseISO(dbOrder.Currency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", dbOrder.Currency, err)
	}

	return domain.Order{
		ID:          dbOrder.ID,
		OrderNumber: dbOrder.OrderNumber,
		CustomerID:  dbOrder.CustomerID,
		Status:      status,
		Currency:    parsedCurrency,
		Items:       lo.Map(dbOrderItems, func(item db.OrderItem, _ int) domain.OrderItem { return mapDBOrderItemToDomain(item) }),
		TotalAmount: dbOrder.TotalAmount,
		CreatedAt:   dbOrder.CreatedAt,
		UpdatedAt:   dbOrder.UpdatedAt,
	}, nil
}

func mapDBOrderItemToDomain(item db.OrderItem) domain.OrderItem {
	return domain.OrderItem{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  int(item.Quantity),
		UnitPrice: item.UnitPrice,
		CreatedAt: item.CreatedAt,
	}
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
