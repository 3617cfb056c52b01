package repo

import (
	"database/sql"
	"time"

	"github.com/kityk/wms-order-service/internal/entities"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Address   sql.NullString `db:"address"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type Order struct {
	ID          int64           `db:"id"`
	CustomerID  int64           `db:"customer_id"`
	OrderDate   time.Time       `db:"order_date"`
	Status      string          `db:"status"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ID        int64           `db:"id"`
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type Payment struct {
	ID            int64           `db:"id"`
	OrderID       int64           `db:"order_id"`
	PaymentDate   time.Time       `db:"payment_date"`
	Amount        decimal.Decimal `db:"amount"`
	PaymentMethod sql.NullString  `db:"payment_method"`
	TransactionID string          `db:"transaction_id"`
	Status        sql.NullString  `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type Shipment struct {
	ID             int64          `db:"id"`
	OrderID        int64          `db:"order_id"`
	ShipmentDate   time.Time      `db:"shipment_date"`
	Carrier        sql.NullString `db:"carrier"`
	TrackingNumber string         `db:"tracking_number"`
	Status         sql.NullString `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func CustomerToEntity(c Customer) entities.Customer {
	return entities.Customer{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     nullStringToString(c.Phone),
		Address:   nullStringToString(c.Address),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Price:     i.Price,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		OrderDate:   o.OrderDate,
		Status:      entities.Status(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func PaymentToEntity(p Payment) entities.Payment {
	return entities.Payment{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentDate:   p.PaymentDate,
		Amount:        p.Amount,
		PaymentMethod: nullStringToString(p.PaymentMethod),
		TransactionID: p.TransactionID,
		Status:        nullStringToString(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ShipmentToEntity(s Shipment) entities.Shipment {
	return entities.Shipment{
		ID:             s.ID,
		OrderID:        s.OrderID,
		ShipmentDate:   s.ShipmentDate,
		Carrier:        nullStringToString(s.Carrier),
		TrackingNumber: s.TrackingNumber,
		Status:         nullStringToString(s.Status),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
