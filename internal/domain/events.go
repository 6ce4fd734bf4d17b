package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const OrderEventsTopic = "order-events"

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventFinalized OrderEventType = "order.finalized"
	OrderEventCanceled  OrderEventType = "order.canceled"
)

// OrderEvent is the payload published for order lifecycle transitions.
type OrderEvent struct {
	EventID     uuid.UUID        `json:"event_id"`
	Type        OrderEventType   `json:"type"`
	OrderID     uuid.UUID        `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	CustomerID  uuid.UUID        `json:"customer_id"`
	Status      OrderStatus      `json:"status"`
	Total       string           `json:"total"`
	Currency    string           `json:"currency"`
	Items       []OrderEventItem `json:"items"`
	Restocked   bool             `json:"restocked,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

type OrderEventItem struct {
	ItemID    uuid.UUID `json:"item_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price,omitempty"`
}

func NewOrderEvent(eventType OrderEventType, o Order, at time.Time) OrderEvent {
	return OrderEvent{
		EventID:     uuid.New(),
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		Total:       o.CalculateTotal().String(),
		Currency:    o.Currency.String(),
		Items: lo.Map(o.Items, func(item OrderItem, _ int) OrderEventItem {
			var unitPrice string
			if item.UnitPrice.Valid {
				unitPrice = item.UnitPrice.Decimal.String()
			}
			return OrderEventItem{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: unitPrice,
			}
		}),
		OccurredAt: at.UTC(),
	}
}

func (e OrderEvent) ToOutbox() (OutboxEvent, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("json.Marshal: %w", err)
	}

	return OutboxEvent{
		EventID: e.EventID,
		Topic:   OrderEventsTopic,
		Key:     e.OrderID.String(),
		Payload: payload,
	}, nil
}

// OutboxEvent is a message stored in the same transaction as the state change it describes.
type OutboxEvent struct {
	ID      int64
	EventID uuid.UUID
	Topic   string
	Key     string
	Payload []byte

	CreatedAt time.Time
	SentAt    *time.Time
}
