package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle status. The set is fixed; transitions are
// not constrained beyond the automatic Pending -> Stock Lock Error path
// written on stock locking failure.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusAllocated  Status = "Allocated"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"

	// StatusStockLockError marks an order that was persisted but whose
	// stock could not be reserved.
	StatusStockLockError Status = "Stock Lock Error"
)

var statuses = map[Status]struct{}{
	StatusPending:        {},
	StatusAllocated:      {},
	StatusProcessing:     {},
	StatusShipped:        {},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusStockLockError: {},
}

func ValidStatus(s string) bool {
	_, ok := statuses[Status(s)]
	return ok
}

type Order struct {
	ID          int64
	CustomerID  int64
	OrderDate   time.Time
	Status      Status
	TotalAmount decimal.Decimal
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem captures the unit price at order creation time. The price is
// immutable afterward.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrConstraintViolation covers persistence-level unique key conflicts.
	ErrConstraintViolation = errors.New("constraint violation")
)
