package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/db"
	"github.com/nikolayk812/fulfillment/internal/port"
)

var (
	readWriteTx = pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}
	readOnlyTx  = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// withTx executes fn within a transaction if the repository was created with a pool,
// or uses the existing transaction if the repository was created with a transaction
func withTx[T any](ctx context.Context, dbtx db.DBTX, opts pgx.TxOptions, fn func(q *db.Queries) (T, error)) (T, error) {
	return inTx(ctx, dbtx, opts, func(tx pgx.Tx) (T, error) {
		return fn(db.New(tx))
	})
}

func inTx[T any](ctx context.Context, dbtx db.DBTX, opts pgx.TxOptions, fn func(tx pgx.Tx) (T, error)) (_ T, txErr error) {
	var zero T

	// Already in a transaction, just use it
	if tx, ok := dbtx.(pgx.Tx); ok {
		return fn(tx)
	}

	pool, ok := dbtx.(*pgxpool.Pool)
	if !ok {
		return zero, fmt.Errorf("dbtx is neither pgx.Tx nor *pgxpool.Pool: %T", dbtx)
	}

	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return zero, fmt.Errorf("pool.BeginTx: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("tx.Commit: %w", err)
	}

	return result, nil
}

type transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) port.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return t.run(ctx, readWriteTx, fn)
}

func (t *transactor) WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return t.run(ctx, readOnlyTx, fn)
}

func (t *transactor) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, repos port.Repositories) error) error {
	_, err := inTx(ctx, t.pool, opts, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, NewRepositoriesWithTx(tx))
	})
	return err
}

func NewRepositoriesWithTx(tx pgx.Tx) port.Repositories {
	return port.Repositories{
		Orders:    NewOrderWithTx(tx),
		Products:  NewProductWithTx(tx),
		Customers: NewCustomerWithTx(tx),
		Outbox:    NewOutboxWithTx(tx),
	}
}
