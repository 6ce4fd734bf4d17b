package port

import "context"

// Repositories are bound to a single transaction.
type Repositories struct {
	Orders    OrderRepository
	Products  ProductRepository
	Customers CustomerRepository
	Outbox    OutboxRepository
}

type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back every write otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// WithinReadOnlyTx gives fn a consistent snapshot across several queries.
	WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
