package api

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type orderItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"required,min=1,max=2147483647"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

type createOrderRequest struct {
	CustomerID string             `json:"customer_id" validate:"required,uuid"`
	Items      []orderItemRequest `json:"items" validate:"omitempty,dive"`
}

type updateOrderItemRequest struct {
	Quantity  int              `json:"quantity" validate:"required,min=1,max=2147483647"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

type listOrdersQuery struct {
	CustomerID string `form:"customer_id" validate:"omitempty,uuid"`
	Status     string `form:"status" validate:"omitempty,oneof=PENDING FINALIZED CANCELED"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice *string   `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
	CreatedAt time.Time `json:"created_at"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderNumber string              `json:"order_number"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	Status      domain.OrderStatus  `json:"status"`
	Currency    string              `json:"currency"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount *string             `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type moneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// decimals are compared as numbers by gte/lte
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

func (r orderItemRequest) toDomain() domain.OrderItem {
	return domain.OrderItem{
		// validated as uuid
		ProductID: uuid.MustParse(r.ProductID),
		Quantity:  r.Quantity,
		UnitPrice: toNullDecimal(r.UnitPrice),
	}
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func toOrderResponse(o domain.Order) orderResponse {
	var total *string
	if o.TotalAmount.Valid {
		total = lo.ToPtr(domain.Money{Amount: o.TotalAmount.Decimal, Currency: o.Currency}.AmountString())
	}

	return orderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		Currency:    o.Currency.String(),
		Items: lo.Map(o.Items, func(item domain.OrderItem, _ int) orderItemResponse {
			return toOrderItemResponse(item)
		}),
		TotalAmount: total,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderItemResponse(item domain.OrderItem) orderItemResponse {
	var unitPrice *string
	if item.UnitPrice.Valid {
		unitPrice = lo.ToPtr(item.UnitPrice.Decimal.String())
	}

	return orderItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: unitPrice,
		Subtotal:  item.Subtotal().String(),
		CreatedAt: item.CreatedAt,
	}
}

func toMoneyResponse(m domain.Money) moneyResponse {
	return moneyResponse{
		Amount:   m.AmountString(),
		Currency: m.Currency.String(),
	}
}
