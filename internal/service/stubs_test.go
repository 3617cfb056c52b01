package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/kityk/wms-order-service/internal/entities"
	"github.com/kityk/wms-order-service/internal/inventory"
	"github.com/kityk/wms-order-service/internal/service"
	"github.com/kityk/wms-order-service/pkg/trm"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRepo implements service.OrderRepo with overridable behaviors and
// call recording.
type stubRepo struct {
	customer entities.Customer
	order    entities.Order

	getCustomerErr  error
	insertOrderErr  error
	insertItemsErr  error
	getOrderErr     error
	listOrdersErr   error
	updateStatusErr error
	deleteErr       error

	payments  []entities.Payment
	shipments []entities.Shipment

	insertedOrder   *entities.Order
	insertedItems   []entities.OrderItem
	updatedStatus   *entities.Status
	listedStatus    *entities.Status
	listedRange     [2]time.Time
	deletedOrderID  int64
	nextOrderID     int64
	updatedResultFn func(status entities.Status) entities.Order
}

func (r *stubRepo) GetCustomerByID(ctx context.Context, customerID int64) (entities.Customer, error) {
	if r.getCustomerErr != nil {
		return entities.Customer{}, r.getCustomerErr
	}
	return r.customer, nil
}

func (r *stubRepo) InsertOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	if r.insertOrderErr != nil {
		return entities.Order{}, r.insertOrderErr
	}
	order.ID = r.nextOrderID
	r.insertedOrder = &order
	return order, nil
}

func (r *stubRepo) InsertOrderItems(ctx context.Context, orderID int64, items []entities.OrderItem) ([]entities.OrderItem, error) {
	if r.insertItemsErr != nil {
		return nil, r.insertItemsErr
	}
	saved := make([]entities.OrderItem, len(items))
	for i, item := range items {
		item.ID = int64(i + 1)
		item.OrderID = orderID
		saved[i] = item
	}
	r.insertedItems = saved
	return saved, nil
}

func (r *stubRepo) GetOrderByID(ctx context.Context, orderID int64) (entities.Order, error) {
	if r.getOrderErr != nil {
		return entities.Order{}, r.getOrderErr
	}
	return r.order, nil
}

func (r *stubRepo) ListOrders(ctx context.Context) ([]entities.Order, error) {
	if r.listOrdersErr != nil {
		return nil, r.listOrdersErr
	}
	return []entities.Order{r.order}, nil
}

func (r *stubRepo) OrdersByStatus(ctx context.Context, status entities.Status) ([]entities.Order, error) {
	r.listedStatus = &status
	return []entities.Order{r.order}, nil
}

func (r *stubRepo) OrdersByDateRange(ctx context.Context, from, to time.Time) ([]entities.Order, error) {
	r.listedRange = [2]time.Time{from, to}
	return []entities.Order{r.order}, nil
}

func (r *stubRepo) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]entities.Payment, error) {
	return r.payments, nil
}

func (r *stubRepo) ListShipmentsByOrder(ctx context.Context, orderID int64) ([]entities.Shipment, error) {
	return r.shipments, nil
}

func (r *stubRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status entities.Status) (entities.Order, error) {
	if r.updateStatusErr != nil {
		return entities.Order{}, r.updateStatusErr
	}
	r.updatedStatus = &status
	if r.updatedResultFn != nil {
		return r.updatedResultFn(status), nil
	}
	updated := r.order
	updated.ID = orderID
	updated.Status = status
	return updated, nil
}

func (r *stubRepo) DeleteOrder(ctx context.Context, orderID int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedOrderID = orderID
	return nil
}

// stubInventory implements service.InventoryAPI. Products absent from
// the products map are reported as not found; a non-nil productErr
// overrides the lookup entirely.
type stubInventory struct {
	products   map[int64]inventory.Product
	productErr error

	lockResult inventory.LockResult
	lockErr    error
	lockCalls  [][]inventory.LockItem
}

func (s *stubInventory) GetProduct(ctx context.Context, productID int64) (inventory.Product, error) {
	if s.productErr != nil {
		return inventory.Product{}, s.productErr
	}
	p, ok := s.products[productID]
	if !ok {
		return inventory.Product{}, inventory.ErrProductNotFound
	}
	return p, nil
}

func (s *stubInventory) LockStock(ctx context.Context, items []inventory.LockItem) (inventory.LockResult, error) {
	s.lockCalls = append(s.lockCalls, items)
	if s.lockErr != nil {
		return inventory.LockResult{}, s.lockErr
	}
	return s.lockResult, nil
}

type stubValidator struct {
	err   error
	calls [][]int64
}

func (v *stubValidator) ValidateProductsExist(ctx context.Context, productIDs []int64) error {
	v.calls = append(v.calls, productIDs)
	return v.err
}

type stubLocker struct {
	err   error
	calls int
}

func (l *stubLocker) LockStockForOrder(ctx context.Context, items []service.NewOrderItem) error {
	l.calls++
	return l.err
}

type stubPricer struct {
	prices map[int64]decimal.Decimal
	err    error
}

func (p *stubPricer) PriceFor(ctx context.Context, productID int64) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return p.prices[productID], nil
}

type stubCache struct {
	data    map[string][]byte
	deleted []string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (c *stubCache) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *stubCache) Set(key string, value []byte) {
	c.data[key] = value
}

func (c *stubCache) Delete(key string) {
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
}

type publishedEvent struct {
	kind    string
	orderID int64
	status  entities.Status
}

type stubPublisher struct {
	events []publishedEvent
}

func (p *stubPublisher) OrderCreated(ctx context.Context, order entities.Order) {
	p.events = append(p.events, publishedEvent{kind: "created", orderID: order.ID, status: order.Status})
}

func (p *stubPublisher) OrderStatusChanged(ctx context.Context, orderID int64, status entities.Status) {
	p.events = append(p.events, publishedEvent{kind: "status_changed", orderID: orderID, status: status})
}

// passthroughTx runs callbacks directly, without a database.
type passthroughTx struct{}

func (passthroughTx) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, nopTransaction{}, nil
}

func (passthroughTx) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	return callback(ctx)
}

type nopTransaction struct{}

func (nopTransaction) Commit() error   { return nil }
func (nopTransaction) Rollback() error { return nil }
