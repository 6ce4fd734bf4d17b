package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is satisfied by *kafka.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter returns a writer that takes the topic from each message.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Relay publishes committed outbox events to Kafka, at least once.
type Relay struct {
	tx        port.Transactor
	writer    Writer
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

func New(tx port.Transactor, writer Writer, logger *zap.Logger, interval time.Duration, batchSize int) (*Relay, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval[%s] must be positive", interval)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batchSize[%d] must be positive", batchSize)
	}

	return &Relay{
		tx:        tx,
		writer:    writer,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}, nil
}

// Run polls the outbox until ctx is done. A failed batch is retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			n, err := r.PublishBatch(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				r.logger.Error("outbox relay failed", zap.Error(err))
				break
			}
			// drain a backlog without waiting for the next tick
			if n < r.batchSize {
				break
			}
		}
	}
}

// PublishBatch sends up to batchSize pending events and marks them sent in the same transaction.
// Rows stay locked while they are written so concurrent relays skip them.
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	var published int

	err := r.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		events, err := repos.Outbox.FetchPending(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("repos.Outbox.FetchPending: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		msgs := lo.Map(events, func(e domain.OutboxEvent, _ int) kafka.Message {
			return toMessage(e)
		})

		if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("writer.WriteMessages: %w", err)
		}

		ids := lo.Map(events, func(e domain.OutboxEvent, _ int) int64 {
			return e.ID
		})

		if err := repos.Outbox.MarkSent(ctx, ids); err != nil {
			return fmt.Errorf("repos.Outbox.MarkSent: %w", err)
		}

		published = len(events)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("WithinTx: %w", err)
	}

	if published > 0 {
		r.logger.Debug("outbox events published", zap.Int("count", published))
	}

	return published, nil
}

func toMessage(e domain.OutboxEvent) kafka.Message {
	return kafka.Message{
		Topic: e.Topic,
		Key:   []byte(e.Key),
		Value: e.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.EventID.String())},
		},
		Time: e.CreatedAt,
	}
}
