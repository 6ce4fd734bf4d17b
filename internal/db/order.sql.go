package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, customer_id, status, currency, total_amount, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, quantity, unit_price, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.CustomerID,
		&i.Status,
		&i.Currency,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Quantity,
		&i.UnitPrice,
		&i.CreatedAt,
	)
	return i, err
}

const nextOrderNumber = `
SELECT nextval('order_number_seq')
`

func (q *Queries) NextOrderNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, nextOrderNumber)
	var seq int64
	err := row.Scan(&seq)
	return seq, err
}

const insertOrder = `
INSERT INTO orders (order_number, customer_id, currency)
VALUES ($1, $2, $3)
RETURNING ` + orderColumns

type InsertOrderParams struct {
	OrderNumber string
	CustomerID  uuid.UUID
	Currency    string
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, insertOrder, arg.OrderNumber, arg.CustomerID, arg.Currency))
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const getOrderByNumber = `
SELECT ` + orderColumns + `
FROM orders
WHERE order_number = $1
`

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByNumber, orderNumber))
}

const searchOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text[] IS NULL OR customer_id::text = ANY ($1::text[]))
  AND ($2::text[] IS NULL OR status = ANY ($2::text[]))
  AND ($3::text[] IS NULL OR order_number = ANY ($3::text[]))
  AND ($4::timestamptz IS NULL OR created_at > $4::timestamptz)
  AND ($5::timestamptz IS NULL OR created_at < $5::timestamptz)
ORDER BY created_at, order_number
`

type SearchOrdersParams struct {
	CustomerIds   []string
	Statuses      []string
	OrderNumbers  []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (q *Queries) SearchOrders(ctx context.Context, arg SearchOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, searchOrders,
		arg.CustomerIds,
		arg.Statuses,
		arg.OrderNumbers,
		arg.CreatedAfter,
		arg.CreatedBefore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderState = `
UPDATE orders
SET status       = $2,
    total_amount = $3,
    updated_at   = now()
WHERE id = $1
`

type UpdateOrderStateParams struct {
	ID          uuid.UUID
	Status      string
	TotalAmount decimal.NullDecimal
}

func (q *Queries) UpdateOrderState(ctx context.Context, arg UpdateOrderStateParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderState, arg.ID, arg.Status, arg.TotalAmount)
}

const getOrderItems = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY seq
`

func (q *Queries) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	return collectOrderItems(rows)
}

const getOrdersItems = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id::text = ANY ($1::text[])
ORDER BY order_id, seq
`

func (q *Queries) GetOrdersItems(ctx context.Context, orderIds []string) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrdersItems, orderIds)
	if err != nil {
		return nil, err
	}
	return collectOrderItems(rows)
}

func collectOrderItems(rows pgx.Rows) ([]OrderItem, error) {
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertOrderItem = `
INSERT INTO order_items (order_id, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING ` + orderItemColumns

type InsertOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice decimal.NullDecimal
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, insertOrderItem, arg.OrderID, arg.ProductID, arg.Quantity, arg.UnitPrice))
}

const updateOrderItem = `
UPDATE order_items
SET quantity   = $3,
    unit_price = COALESCE($4, unit_price)
WHERE id = $1
  AND order_id = $2
`

type UpdateOrderItemParams struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Quantity  int32
	UnitPrice decimal.NullDecimal
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderItem, arg.ID, arg.OrderID, arg.Quantity, arg.UnitPrice)
}

const deleteOrderItem = `
DELETE
FROM order_items
WHERE id = $1
  AND order_id = $2
`

type DeleteOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteOrderItem, arg.ID, arg.OrderID)
}
