package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	// MaxQuantity is the largest quantity, per item and per product within one stock change, that storage holds.
	MaxQuantity = math.MaxInt32

	// UnitPriceScale is the number of decimal places stored for a unit price.
	UnitPriceScale = 4
)

type Order struct {
	ID          uuid.UUID
	OrderNumber string
	CustomerID  uuid.UUID
	Status      OrderStatus
	Currency    currency.Unit
	Items       []OrderItem

	// TotalAmount is persisted on finalize, CalculateTotal is the live value
	TotalAmount decimal.NullDecimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	// UnitPrice is captured when the item is added and does not follow product price changes
	UnitPrice decimal.NullDecimal

	CreatedAt time.Time
}

// Subtotal returns UnitPrice * Quantity or zero if either is unset.
// The result keeps the natural scale of the multiplication, no rounding is applied.
func (i OrderItem) Subtotal() decimal.Decimal {
	if !i.UnitPrice.Valid || i.Quantity == 0 {
		return decimal.Zero
	}

	return i.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) Validate() error {
	if err := ValidateQuantity(i.Quantity); err != nil {
		return err
	}

	if i.UnitPrice.Valid {
		price := i.UnitPrice.Decimal
		if price.IsNegative() {
			return fmt.Errorf("unit price[%s] is negative: %w", price, ErrInvalidUnitPrice)
		}
		if !price.Equal(price.Truncate(UnitPriceScale)) {
			return fmt.Errorf("unit price[%s] has more than %d decimal places: %w", price, UnitPriceScale, ErrInvalidUnitPrice)
		}
	}

	return nil
}

// ValidateQuantity rejects quantities that are not positive or do not fit a stored integer.
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive: %w", quantity, ErrInvalidQuantity)
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("quantity[%d] exceeds %d: %w", quantity, MaxQuantity, ErrInvalidQuantity)
	}

	return nil
}

// CalculateTotal sums item subtotals, zero for an order without items.
func (o Order) CalculateTotal() decimal.Decimal {
	return lo.Reduce(o.Items, func(total decimal.Decimal, item OrderItem, _ int) decimal.Decimal {
		return total.Add(item.Subtotal())
	}, decimal.Zero)
}

func (o Order) Total() Money {
	return Money{Amount: o.CalculateTotal(), Currency: o.Currency}
}

// Cancel sets the status unconditionally, transition rules are enforced by the order service.
func (o *Order) Cancel() {
	o.Status = OrderStatusCanceled
}

func (o Order) Mutable() bool {
	return o.Status == OrderStatusPending
}

func (o Order) FindItem(itemID uuid.UUID) (OrderItem, bool) {
	return lo.Find(o.Items, func(item OrderItem) bool {
		return item.ID == itemID
	})
}

// FormatOrderNumber renders a human-readable order number from a strictly increasing sequence value.
func FormatOrderNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%08d", at.UTC().Format("20060102"), seq)
}
