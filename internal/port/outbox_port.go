package port

import (
	"context"

	"github.com/nikolayk812/fulfillment/internal/domain"
)

type OutboxRepository interface {
	InsertEvent(ctx context.Context, event domain.OutboxEvent) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkSent(ctx context.Context, ids []int64) error
}
