package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID            int64
	OrderID       int64
	PaymentDate   time.Time
	Amount        decimal.Decimal
	PaymentMethod string
	TransactionID string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Equal compares payments by transaction id, the business key.
func (p Payment) Equal(other Payment) bool {
	return p.TransactionID != "" && p.TransactionID == other.TransactionID
}

type Shipment struct {
	ID             int64
	OrderID        int64
	ShipmentDate   time.Time
	Carrier        string
	TrackingNumber string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Equal compares shipments by tracking number, the business key.
func (s Shipment) Equal(other Shipment) bool {
	return s.TrackingNumber != "" && s.TrackingNumber == other.TrackingNumber
}
