package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/db"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/port"
)

type customerRepository struct {
	q *db.Queries
}

func NewCustomer(pool *pgxpool.Pool) port.CustomerRepository {
	return &customerRepository{
		q: db.New(pool),
	}
}

func NewCustomerWithTx(tx pgx.Tx) port.CustomerRepository {
	return &customerRepository{
		q: db.New(tx),
	}
}

func (r *customerRepository) GetCustomer(ctx context.Context, customerID uuid.UUID) (domain.Customer, error) {
	dbCustomer, err := r.q.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, fmt.Errorf("q.GetCustomer: %w", domain.ErrCustomerNotFound)
		}
		return domain.Customer{}, fmt.Errorf("q.GetCustomer: %w", err)
	}

	return domain.Customer{
		ID:        dbCustomer.ID,
		Name:      dbCustomer.Name,
		Email:     dbCustomer.Email,
		Phone:     dbCustomer.Phone,
		CreatedAt: dbCustomer.CreatedAt,
	}, nil
}

func (r *customerRepository) CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	exists, err := r.q.CustomerExists(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("q.CustomerExists: %w", err)
	}

	return exists, nil
}

func (r *customerRepository) InsertCustomer(ctx context.Context, customer domain.Customer) (uuid.UUID, error) {
	if customer.Email == "" {
		return uuid.Nil, errors.New("email is empty")
	}

	customerID, err := r.q.InsertCustomer(ctx, db.InsertCustomerParams{
		Name:  customer.Name,
		Email: customer.Email,
		Phone: customer.Phone,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertCustomer: %w", err)
	}

	return customerID, nil
}
