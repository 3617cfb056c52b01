package handler

import (
	"time"

	"github.com/kityk/wms-order-service/internal/entities"
	"github.com/kityk/wms-order-service/internal/service"

	"github.com/shopspring/decimal"
)

// OrderCreate is the inbound create-order payload
type OrderCreate struct {
	CustomerID int64             `json:"customerId" validate:"required,min=1"`
	Items      []OrderItemCreate `json:"items" validate:"required,min=1,dive"`
}

// OrderItemCreate is one requested order line
type OrderItemCreate struct {
	ProductID int64 `json:"productId" validate:"required,min=1"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// OrderUpdate patches an existing order; only present fields are applied
type OrderUpdate struct {
	Status *string           `json:"status,omitempty"`
	Items  []OrderItemCreate `json:"items,omitempty" validate:"omitempty,dive"`
}

// StatusUpdate carries the new status for the status endpoint
type StatusUpdate struct {
	Status string `json:"status" validate:"required"`
}

// Order is the outward order representation
type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customerId"`
	OrderDate   time.Time       `json:"orderDate"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderItem is one order line in the outward representation
type OrderItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func ItemsToNewOrderItems(items []OrderItemCreate) []service.NewOrderItem {
	result := make([]service.NewOrderItem, 0, len(items))
	for _, item := range items {
		result = append(result, service.NewOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return result
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return Order{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		OrderDate:   o.OrderDate,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.Round(2),
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// Payment is the outward payment representation
type Payment struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"orderId"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
}

// Shipment is the outward shipment representation
type Shipment struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"orderId"`
	ShipmentDate   time.Time `json:"shipmentDate"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"trackingNumber"`
	Status         string    `json:"status"`
}

func PaymentsEntityToJSON(payments []entities.Payment) []Payment {
	result := make([]Payment, 0, len(payments))
	for _, p := range payments {
		result = append(result, Payment{
			ID:            p.ID,
			OrderID:       p.OrderID,
			PaymentDate:   p.PaymentDate,
			Amount:        p.Amount.Round(2),
			PaymentMethod: p.PaymentMethod,
			TransactionID: p.TransactionID,
			Status:        p.Status,
		})
	}
	return result
}

func ShipmentsEntityToJSON(shipments []entities.Shipment) []Shipment {
	result := make([]Shipment, 0, len(shipments))
	for _, s := range shipments {
		result = append(result, Shipment{
			ID:             s.ID,
			OrderID:        s.OrderID,
			ShipmentDate:   s.ShipmentDate,
			Carrier:        s.Carrier,
			TrackingNumber: s.TrackingNumber,
			Status:         s.Status,
		})
	}
	return result
}

func OrdersEntityToJSON(orders []entities.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderEntityToJSON(o))
	}
	return result
}
