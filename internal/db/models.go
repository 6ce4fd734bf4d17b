package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	CreatedAt time.Time
}

type Product struct {
	ID            uuid.UUID
	Sku           string
	Name          string
	Description   *string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Stock         int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID          uuid.UUID
	OrderNumber string
	CustomerID  uuid.UUID
	Status      string
	Currency    string
	TotalAmount decimal.NullDecimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice decimal.NullDecimal
	CreatedAt time.Time
}

type Outbox struct {
	ID        int64
	EventID   uuid.UUID
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}
