package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const insertProduct = `
INSERT INTO products (sku, name, description, price_amount, price_currency, stock)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`

type InsertProductParams struct {
	Sku           string
	Name          string
	Description   *string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Stock         int32
}

func (q *Queries) InsertProduct(ctx context.Context, arg InsertProductParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertProduct,
		arg.Sku,
		arg.Name,
		arg.Description,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Stock,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getProduct = `
SELECT id, sku, name, description, price_amount, price_currency, stock, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Sku,
		&i.Name,
		&i.Description,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Stock,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProductStock = `
SELECT stock
FROM products
WHERE id = $1
`

func (q *Queries) GetProductStock(ctx context.Context, id uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getProductStock, id)
	var stock int32
	err := row.Scan(&stock)
	return stock, err
}

// decrementStock is a single conditional statement, so concurrent writers of the same row
// serialize on the row lock and never act on a stale stock value.
const decrementStock = `
UPDATE products
SET stock      = stock - $2,
    updated_at = now()
WHERE id = $1
  AND stock >= $2
RETURNING stock
`

type DecrementStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) DecrementStock(ctx context.Context, arg DecrementStockParams) (int32, error) {
	row := q.db.QueryRow(ctx, decrementStock, arg.ID, arg.Quantity)
	var stock int32
	err := row.Scan(&stock)
	return stock, err
}

const incrementStock = `
UPDATE products
SET stock      = stock + $2,
    updated_at = now()
WHERE id = $1
RETURNING stock
`

type IncrementStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) IncrementStock(ctx context.Context, arg IncrementStockParams) (int32, error) {
	row := q.db.QueryRow(ctx, incrementStock, arg.ID, arg.Quantity)
	var stock int32
	err := row.Scan(&stock)
	return stock, err
}
