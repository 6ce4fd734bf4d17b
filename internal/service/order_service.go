package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/nikolayk812/fulfillment/internal/inventory"
	"github.com/nikolayk812/fulfillment/internal/metrics"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

const maxCreateAttempts = 3

type OrderService struct {
	tx       port.Transactor
	metrics  *metrics.Metrics
	logger   *zap.Logger
	currency currency.Unit
	now      func() time.Time
}

func NewOrderService(tx port.Transactor, m *metrics.Metrics, logger *zap.Logger, orderCurrency currency.Unit) *OrderService {
	return &OrderService{
		tx:       tx,
		metrics:  m,
		logger:   logger,
		currency: orderCurrency,
		now:      time.Now,
	}
}

// CreateOrder persists a PENDING order with its initial items. Stock is not touched until finalization.
func (s *OrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, items []domain.OrderItem) (domain.Order, error) {
	if customerID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("customerID is empty: %w", domain.ErrCustomerNotFound)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return domain.Order{}, fmt.Errorf("items[%d].Validate: %w", i, err)
		}
	}

	var (
		created domain.Order
		err     error
	)

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err = s.createOrder(ctx, customerID, items)
		if !errors.Is(err, domain.ErrDuplicateOrderNumber) {
			break
		}

		s.logger.Warn("order number collision, retrying",
			zap.Int("attempt", attempt),
			zap.Stringer("customer_id", customerID))
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("s.createOrder: %w", err)
	}

	s.metrics.OrderCreated()
	s.logger.Info("order created",
		zap.Stringer("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.Int("items", len(created.Items)))

	return created, nil
}

func (s *OrderService) createOrder(ctx context.Context, customerID uuid.UUID, items []domain.OrderItem) (domain.Order, error) {
	var created domain.Order

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		exists, err := repos.Customers.CustomerExists(ctx, customerID)
		if err != nil {
			return fmt.Errorf("repos.Customers.CustomerExists: %w", err)
		}
		if !exists {
			return fmt.Errorf("customer[%s]: %w", customerID, domain.ErrCustomerNotFound)
		}

		priced := make([]domain.OrderItem, 0, len(items))
		for _, item := range items {
			item, err := s.priceItem(ctx, repos.Products, item)
			if err != nil {
				return fmt.Errorf("s.priceItem: %w", err)
			}
			priced = append(priced, item)
		}

		seq, err := repos.Orders.NextOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("repos.Orders.NextOrderNumber: %w", err)
		}

		created, err = repos.Orders.InsertOrder(ctx, domain.Order{
			OrderNumber: domain.FormatOrderNumber(s.now(), seq),
			CustomerID:  customerID,
			Status:      domain.OrderStatusPending,
			Currency:    s.currency,
			Items:       priced,
		})
		if err != nil {
			return fmt.Errorf("repos.Orders.InsertOrder: %w", err)
		}

		return s.recordEvent(ctx, repos.Outbox, domain.OrderEventCreated, created, false)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("WithinTx: %w", err)
	}

	return created, nil
}

func (s *OrderService) FindOrderByID(ctx context.Context, orderID uuid.UUID) (domain.Order, bool, error) {
	var order domain.Order

	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		order, err = repos.Orders.GetOrder(ctx, orderID)
		return err
	})
	if errors.Is(err, domain.ErrOrderNotFound) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("repos.Orders.GetOrder: %w", err)
	}

	return order, true, nil
}

func (s *OrderService) FindOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, bool, error) {
	var order domain.Order

	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		order, err = repos.Orders.GetOrderByNumber(ctx, orderNumber)
		return err
	})
	if errors.Is(err, domain.ErrOrderNotFound) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("repos.Orders.GetOrderByNumber: %w", err)
	}

	return order, true, nil
}

func (s *OrderService) FindAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.SearchOrders(ctx, domain.OrderFilter{})
}

func (s *OrderService) FindOrdersByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	return s.SearchOrders(ctx, domain.OrderFilter{CustomerIDs: []uuid.UUID{customerID}})
}

func (s *OrderService) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	var orders []domain.Order

	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		orders, err = repos.Orders.SearchOrders(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("repos.Orders.SearchOrders: %w", err)
	}

	return orders, nil
}

func (s *OrderService) AddItemToOrder(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) (domain.OrderItem, error) {
	if err := item.Validate(); err != nil {
		return domain.OrderItem{}, fmt.Errorf("item.Validate: %w", err)
	}

	var added domain.OrderItem

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if _, err := lockMutableOrder(ctx, repos.Orders, orderID); err != nil {
			return fmt.Errorf("lockMutableOrder: %w", err)
		}

		priced, err := s.priceItem(ctx, repos.Products, item)
		if err != nil {
			return fmt.Errorf("s.priceItem: %w", err)
		}

		added, err = repos.Orders.InsertOrderItem(ctx, orderID, priced)
		if err != nil {
			return fmt.Errorf("repos.Orders.InsertOrderItem: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("WithinTx: %w", err)
	}

	return added, nil
}

// RemoveItemFromOrder is a no-op for an item id the order does not have.
func (s *OrderService) RemoveItemFromOrder(ctx context.Context, orderID, itemID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if _, err := lockMutableOrder(ctx, repos.Orders, orderID); err != nil {
			return fmt.Errorf("lockMutableOrder: %w", err)
		}

		found, err := repos.Orders.DeleteOrderItem(ctx, orderID, itemID)
		if err != nil {
			return fmt.Errorf("repos.Orders.DeleteOrderItem: %w", err)
		}

		if !found {
			s.logger.Debug("order item to remove not found",
				zap.Stringer("order_id", orderID),
				zap.Stringer("item_id", itemID))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("WithinTx: %w", err)
	}

	return nil
}

// UpdateOrderItem replaces the quantity, and the unit price when one is given, of an existing item.
func (s *OrderService) UpdateOrderItem(ctx context.Context, orderID uuid.UUID, item domain.OrderItem) (domain.OrderItem, error) {
	if err := item.Validate(); err != nil {
		return domain.OrderItem{}, fmt.Errorf("item.Validate: %w", err)
	}

	var updated domain.OrderItem

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		order, err := lockMutableOrder(ctx, repos.Orders, orderID)
		if err != nil {
			return fmt.Errorf("lockMutableOrder: %w", err)
		}

		existing, ok := order.FindItem(item.ID)
		if !ok {
			return fmt.Errorf("item[%s]: %w", item.ID, domain.ErrItemNotFound)
		}

		updated = existing
		updated.Quantity = item.Quantity
		if item.UnitPrice.Valid {
			updated.UnitPrice = item.UnitPrice
		}

		if err := repos.Orders.UpdateOrderItem(ctx, orderID, updated); err != nil {
			return fmt.Errorf("repos.Orders.UpdateOrderItem: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("WithinTx: %w", err)
	}

	return updated, nil
}

// CalculateOrderTotal recomputes the total from the current items.
func (s *OrderService) CalculateOrderTotal(ctx context.Context, orderID uuid.UUID) (domain.Money, error) {
	var total domain.Money

	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		order, err := repos.Orders.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("repos.Orders.GetOrder: %w", err)
		}

		total = order.Total()
		return nil
	})
	if err != nil {
		return domain.Money{}, fmt.Errorf("WithinReadOnlyTx: %w", err)
	}

	return total, nil
}

// FinalizeOrder commits stock for every item and stores the live total, all in one transaction.
// A second call on the same order fails with domain.ErrOrderNotMutable.
func (s *OrderService) FinalizeOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var finalized domain.Order

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		order, err := lockMutableOrder(ctx, repos.Orders, orderID)
		if err != nil {
			return fmt.Errorf("lockMutableOrder: %w", err)
		}

		if err := inventory.NewCoordinator(repos.Products).Commit(ctx, order.Items); err != nil {
			return fmt.Errorf("coordinator.Commit: %w", err)
		}

		order.Status = domain.OrderStatusFinalized
		order.TotalAmount = decimal.NewNullDecimal(order.CalculateTotal())

		finalized, err = s.saveState(ctx, repos, order)
		if err != nil {
			return fmt.Errorf("s.saveState: %w", err)
		}

		return s.recordEvent(ctx, repos.Outbox, domain.OrderEventFinalized, finalized, false)
	})
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.metrics.StockConflict()
			s.logger.Warn("order finalization rejected",
				zap.Stringer("order_id", orderID),
				zap.Stringer("product_id", stockErr.ProductID),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available))
		}
		return domain.Order{}, fmt.Errorf("WithinTx: %w", err)
	}

	s.metrics.OrderFinalized()
	s.logger.Info("order finalized",
		zap.Stringer("order_id", finalized.ID),
		zap.String("order_number", finalized.OrderNumber),
		zap.Stringer("total", finalized.Total()))

	return finalized, nil
}

// CancelOrder cancels a PENDING order, or reverses a FINALIZED one by restoring its stock.
// Canceling a canceled order returns it unchanged.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var (
		canceled  domain.Order
		restocked bool
		noop      bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		order, err := repos.Orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("repos.Orders.GetOrderForUpdate: %w", err)
		}

		switch order.Status {
		case domain.OrderStatusCanceled:
			canceled, noop = order, true
			return nil
		case domain.OrderStatusFinalized:
			if err := inventory.NewCoordinator(repos.Products).Release(ctx, order.Items); err != nil {
				return fmt.Errorf("coordinator.Release: %w", err)
			}
			restocked = true
		}

		order.Cancel()

		canceled, err = s.saveState(ctx, repos, order)
		if err != nil {
			return fmt.Errorf("s.saveState: %w", err)
		}

		return s.recordEvent(ctx, repos.Outbox, domain.OrderEventCanceled, canceled, restocked)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("WithinTx: %w", err)
	}

	if noop {
		return canceled, nil
	}

	s.metrics.OrderCanceled(restocked)
	s.logger.Info("order canceled",
		zap.Stringer("order_id", canceled.ID),
		zap.String("order_number", canceled.OrderNumber),
		zap.Bool("restocked", restocked))

	return canceled, nil
}

// priceItem captures the product's current price when the item has none.
func (s *OrderService) priceItem(ctx context.Context, products port.ProductRepository, item domain.OrderItem) (domain.OrderItem, error) {
	product, err := products.GetProduct(ctx, item.ProductID)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("products.GetProduct: %w", err)
	}

	if product.Price.Currency != s.currency {
		return domain.OrderItem{}, fmt.Errorf("product[%s] priced in %s, order in %s: %w",
			product.ID, product.Price.Currency, s.currency, domain.ErrCurrencyMismatch)
	}

	if !item.UnitPrice.Valid {
		item.UnitPrice = decimal.NewNullDecimal(product.Price.Amount)
	}

	return item, nil
}

func (s *OrderService) saveState(ctx context.Context, repos port.Repositories, order domain.Order) (domain.Order, error) {
	if err := repos.Orders.UpdateOrderState(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("repos.Orders.UpdateOrderState: %w", err)
	}

	saved, err := repos.Orders.GetOrder(ctx, order.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("repos.Orders.GetOrder: %w", err)
	}

	return saved, nil
}

func (s *OrderService) recordEvent(ctx context.Context, outbox port.OutboxRepository, eventType domain.OrderEventType, order domain.Order, restocked bool) error {
	event := domain.NewOrderEvent(eventType, order, s.now())
	event.Restocked = restocked

	record, err := event.ToOutbox()
	if err != nil {
		return fmt.Errorf("event.ToOutbox: %w", err)
	}

	if err := outbox.InsertEvent(ctx, record); err != nil {
		return fmt.Errorf("outbox.InsertEvent: %w", err)
	}

	return nil
}

// lockMutableOrder locks the order row for the rest of the transaction and rejects terminal orders.
func lockMutableOrder(ctx context.Context, orders port.OrderRepository, orderID uuid.UUID) (domain.Order, error) {
	order, err := orders.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrderForUpdate: %w", err)
	}

	if !order.Mutable() {
		return domain.Order{}, fmt.Errorf("order[%s] is %s: %w", orderID, order.Status, domain.ErrOrderNotMutable)
	}

	return order, nil
}
