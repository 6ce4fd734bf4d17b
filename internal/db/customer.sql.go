package db

import (
	"context"

	"github.com/google/uuid"
)

const insertCustomer = `
INSERT INTO customers (name, email, phone)
VALUES ($1, $2, $3)
RETURNING id
`

type InsertCustomerParams struct {
	Name  string
	Email string
	Phone *string
}

func (q *Queries) InsertCustomer(ctx context.Context, arg InsertCustomerParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertCustomer, arg.Name, arg.Email, arg.Phone)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getCustomer = `
SELECT id, name, email, phone, created_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.CreatedAt,
	)
	return i, err
}

const customerExists = `
SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)
`

func (q *Queries) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, customerExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
