package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kityk/wms-order-service/internal/apperr"
	"github.com/kityk/wms-order-service/internal/entities"
	"github.com/kityk/wms-order-service/pkg/trm"

	"github.com/shopspring/decimal"
)

// NewOrderItem is one requested order line: which product and how many.
type NewOrderItem struct {
	ProductID int64
	Quantity  int
}

// OrderPatch carries the fields an order update may change. Items are
// validated against inventory but item persistence is not part of the
// update flow yet; only status is applied.
type OrderPatch struct {
	Status *string
	Items  []NewOrderItem
}

// OrderFilter narrows order listing. Status and date range are mutually
// exclusive; status wins when both are set.
type OrderFilter struct {
	Status *string
	From   *time.Time
	To     *time.Time
}

type OrderRepo interface {
	GetCustomerByID(ctx context.Context, customerID int64) (entities.Customer, error)

	InsertOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	InsertOrderItems(ctx context.Context, orderID int64, items []entities.OrderItem) ([]entities.OrderItem, error)

	GetOrderByID(ctx context.Context, orderID int64) (entities.Order, error)
	ListOrders(ctx context.Context) ([]entities.Order, error)
	OrdersByStatus(ctx context.Context, status entities.Status) ([]entities.Order, error)
	OrdersByDateRange(ctx context.Context, from, to time.Time) ([]entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status entities.Status) (entities.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error

	ListPaymentsByOrder(ctx context.Context, orderID int64) ([]entities.Payment, error)
	ListShipmentsByOrder(ctx context.Context, orderID int64) ([]entities.Shipment, error)
}

type ProductValidator interface {
	ValidateProductsExist(ctx context.Context, productIDs []int64) error
}

type StockLocker interface {
	LockStockForOrder(ctx context.Context, items []NewOrderItem) error
}

type Pricer interface {
	PriceFor(ctx context.Context, productID int64) (decimal.Decimal, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type EventPublisher interface {
	OrderCreated(ctx context.Context, order entities.Order)
	OrderStatusChanged(ctx context.Context, orderID int64, status entities.Status)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	validator ProductValidator
	locker    StockLocker
	pricer    Pricer
	cache     Cache
	events    EventPublisher
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	validator ProductValidator,
	locker StockLocker,
	pricer Pricer,
	cache Cache,
	events EventPublisher,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		validator: validator,
		locker:    locker,
		pricer:    pricer,
		cache:     cache,
		events:    events,
	}
}

// CreateOrder runs the create workflow: customer lookup, item-list check,
// product validation, pricing, persistence, stock locking. The persistence
// save is the durability checkpoint: a stock locking failure after it does
// not roll the order back, it flips the status to Stock Lock Error and the
// create still succeeds from the caller's point of view.
func (s *orderService) CreateOrder(ctx context.Context, customerID int64, items []NewOrderItem) (entities.Order, error) {
	customer, err := s.repo.GetCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, entities.ErrCustomerNotFound) {
			return entities.Order{}, apperr.NotFound("Customer", customerID)
		}
		return entities.Order{}, fmt.Errorf("failed to look up customer: %w", err)
	}

	// Defensive re-check: the inbound schema requires non-empty items,
	// but callers bypassing schema validation must not create empty
	// orders.
	if len(items) == 0 {
		return entities.Order{}, apperr.Invalid("Order with empty item list is not a valid order to create")
	}

	if err := s.validator.ValidateProductsExist(ctx, distinctProductIDs(items)); err != nil {
		return entities.Order{}, err
	}

	total := decimal.Zero
	orderItems := make([]entities.OrderItem, 0, len(items))
	for _, item := range items {
		price, err := s.pricer.PriceFor(ctx, item.ProductID)
		if err != nil {
			return entities.Order{}, fmt.Errorf("failed to price product %d: %w", item.ProductID, err)
		}
		orderItems = append(orderItems, entities.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order := entities.Order{
		CustomerID:  customer.ID,
		OrderDate:   time.Now(),
		Status:      entities.StatusPending,
		TotalAmount: total,
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		saved, err := s.repo.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		savedItems, err := s.repo.InsertOrderItems(ctx, saved.ID, orderItems)
		if err != nil {
			return fmt.Errorf("failed to save order items: %w", err)
		}
		saved.Items = savedItems
		order = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, entities.ErrConstraintViolation) {
			return entities.Order{}, apperr.DataIntegrity(err)
		}
		return entities.Order{}, err
	}

	if err := s.locker.LockStockForOrder(ctx, items); err != nil {
		// The order is durable at this point. The lock failure is not
		// surfaced to the caller; the degraded outcome travels in the
		// order status.
		s.logger.Error("failed to lock stock for order",
			slog.Int64("order_id", order.ID), slog.Any("error", err))

		fixed, uerr := s.repo.UpdateOrderStatus(ctx, order.ID, entities.StatusStockLockError)
		if uerr != nil {
			return entities.Order{}, fmt.Errorf("failed to mark order %d as stock lock error: %w", order.ID, uerr)
		}
		fixed.Items = order.Items
		order = fixed
		s.logger.Warn("order status updated to stock lock error", slog.Int64("order_id", order.ID))
	} else {
		s.logger.Info("order created", slog.Int64("order_id", order.ID),
			slog.String("total", order.TotalAmount.StringFixed(2)))
	}

	s.cacheSet(order)
	s.events.OrderCreated(ctx, order)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	if data, ok := s.cache.Get(cacheKey(orderID)); ok {
		var order entities.Order
		if err := json.Unmarshal(data, &order); err == nil {
			return order, nil
		}
		s.logger.Error("failed to unmarshal cached order", slog.Int64("order_id", orderID))
		s.cache.Delete(cacheKey(orderID))
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, entities.ErrOrderNotFound) {
			return entities.Order{}, apperr.NotFound("Order", orderID)
		}
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	s.cacheSet(order)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]entities.Order, error) {
	var (
		orders []entities.Order
		err    error
	)
	switch {
	case filter.Status != nil:
		if !entities.ValidStatus(*filter.Status) {
			return nil, apperr.Invalid(fmt.Sprintf("Invalid order status: %s", *filter.Status))
		}
		orders, err = s.repo.OrdersByStatus(ctx, entities.Status(*filter.Status))
	case filter.From != nil && filter.To != nil:
		orders, err = s.repo.OrdersByDateRange(ctx, *filter.From, *filter.To)
	default:
		orders, err = s.repo.ListOrders(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrderPayments returns the payments recorded against an order. The
// order itself must exist; an order without payments yields an empty list.
func (s *orderService) ListOrderPayments(ctx context.Context, orderID int64) ([]entities.Payment, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *orderService) ListOrderShipments(ctx context.Context, orderID int64) ([]entities.Shipment, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	shipments, err := s.repo.ListShipmentsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return shipments, nil
}

// UpdateOrder applies only the fields present in the patch. Items, when
// present, are re-validated against inventory; item merge itself is not
// implemented in this flow.
func (s *orderService) UpdateOrder(ctx context.Context, orderID int64, patch OrderPatch) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, entities.ErrOrderNotFound) {
			return entities.Order{}, apperr.NotFound("Order", orderID)
		}
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	if len(patch.Items) > 0 {
		if err := s.validator.ValidateProductsExist(ctx, distinctProductIDs(patch.Items)); err != nil {
			return entities.Order{}, err
		}
	}

	if patch.Status == nil {
		return order, nil
	}

	return s.applyStatus(ctx, order, *patch.Status)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status string) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, entities.ErrOrderNotFound) {
			return entities.Order{}, apperr.NotFound("Order", orderID)
		}
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return s.applyStatus(ctx, order, status)
}

// applyStatus accepts any member of the fixed enumeration; there is no
// transition table.
func (s *orderService) applyStatus(ctx context.Context, order entities.Order, status string) (entities.Order, error) {
	if !entities.ValidStatus(status) {
		return entities.Order{}, apperr.Invalid(fmt.Sprintf("Invalid order status: %s", status))
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, order.ID, entities.Status(status))
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	updated.Items = order.Items

	s.cacheSet(updated)
	if updated.Status != order.Status {
		s.events.OrderStatusChanged(ctx, updated.ID, updated.Status)
	}
	return updated, nil
}

// DeleteOrder removes the order and, through the repository, all of its
// items, payments and shipments.
func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, entities.ErrOrderNotFound) {
			return apperr.NotFound("Order", orderID)
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.cache.Delete(cacheKey(orderID))
	s.logger.Info("order deleted", slog.Int64("order_id", orderID))
	return nil
}

func (s *orderService) cacheSet(order entities.Order) {
	data, err := json.Marshal(order)
	if err != nil {
		s.logger.Error("failed to marshal order for cache",
			slog.Int64("order_id", order.ID), slog.Any("error", err))
		return
	}
	s.cache.Set(cacheKey(order.ID), data)
}

func cacheKey(orderID int64) string {
	return strconv.FormatInt(orderID, 10)
}

func distinctProductIDs(items []NewOrderItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
