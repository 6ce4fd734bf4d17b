package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/fulfillment/internal/db"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/samber/lo"
)

type outboxRepository struct {
	q *db.Queries
}

func NewOutbox(pool *pgxpool.Pool) port.OutboxRepository {
	return &outboxRepository{
		q: db.New(pool),
	}
}

func NewOutboxWithTx(tx pgx.Tx) port.OutboxRepository {
	return &outboxRepository{
		q: db.New(tx),
	}
}

func (r *outboxRepository) InsertEvent(ctx context.Context, event domain.OutboxEvent) error {
	if event.EventID == uuid.Nil {
		return errors.New("eventID is empty")
	}
	if event.Topic == "" {
		return errors.New("topic is empty")
	}

	if err := r.q.InsertOutbox(ctx, db.InsertOutboxParams{
		EventID: event.EventID,
		Topic:   event.Topic,
		Key:     event.Key,
		Payload: event.Payload,
	}); err != nil {
		return fmt.Errorf("q.InsertOutbox: %w", err)
	}

	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit[%d] must be positive", limit)
	}
	if limit > math.MaxInt32 {
		return nil, fmt.Errorf("limit[%d] exceeds %d", limit, math.MaxInt32)
	}

	rows, err := r.q.FetchPendingOutbox(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.FetchPendingOutbox: %w", err)
	}

	return lo.Map(rows, func(row db.Outbox, _ int) domain.OutboxEvent {
		return domain.OutboxEvent{
			ID:        row.ID,
			EventID:   row.EventID,
			Topic:     row.Topic,
			Key:       row.Key,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
			SentAt:    row.SentAt,
		}
	}), nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := r.q.MarkOutboxSent(ctx, ids); err != nil {
		return fmt.Errorf("q.MarkOutboxSent: %w", err)
	}

	return nil
}
