package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kityk/wms-order-service/internal/entities"
	"github.com/kityk/wms-order-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

var (
	orderColumns = []string{"id", "customer_id", "order_date", "status", "total_amount", "created_at", "updated_at"}
	itemColumns  = []string{"id", "order_id", "product_id", "quantity", "price", "created_at", "updated_at"}
)

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *postgresRepo) GetCustomerByID(ctx context.Context, customerID int64) (entities.Customer, error) {
	query, args := r.qb.Select("id", "name", "email", "phone", "address", "created_at", "updated_at").
		From("customers").
		Where(sq.Eq{"id": customerID}).
		MustSql()

	var customer Customer
	err := r.getContext(ctx, &customer, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Customer{}, entities.ErrCustomerNotFound
	}
	if err != nil {
		return entities.Customer{}, fmt.Errorf("failed to get customer: %w", err)
	}
	return CustomerToEntity(customer), nil
}

// InsertOrder persists the order row and returns it with generated id and
// timestamps filled in. Items are inserted separately so the caller can
// run both inside one transaction.
func (r *postgresRepo) InsertOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	now := time.Now()
	query, args := r.qb.Insert("orders").
		Columns("customer_id", "order_date", "status", "total_amount", "created_at", "updated_at").
		Values(o.CustomerID, o.OrderDate, string(o.Status), o.TotalAmount, now, now).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		MustSql()

	var row Order
	if err := r.getContext(ctx, &row, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", mapConstraintError(err))
	}
	return OrderToEntity(row, nil), nil
}

func (r *postgresRepo) InsertOrderItems(ctx context.Context, orderID int64, items []entities.OrderItem) ([]entities.OrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	now := time.Now()
	q := r.qb.Insert("order_items").
		Columns("order_id", "product_id", "quantity", "price", "created_at", "updated_at")
	for _, it := range items {
		q = q.Values(orderID, it.ProductID, it.Quantity, it.Price, now, now)
	}
	query, args := q.Suffix("RETURNING " + joinColumns(itemColumns)).MustSql()

	var rows []OrderItem
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", mapConstraintError(err))
	}

	result := make([]entities.OrderItem, 0, len(rows))
	for _, row := range rows {
		result = append(result, ItemToEntity(row))
	}
	return result, nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID int64) (entities.Order, error) {
	// Получаем заказ
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.itemsForOrders(ctx, []int64{orderID})
	if err != nil {
		return entities.Order{}, err
	}
	return OrderToEntity(order, items[orderID]), nil
}

func (r *postgresRepo) ListOrders(ctx context.Context) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("id").
		MustSql()

	return r.selectOrders(ctx, query, args)
}

func (r *postgresRepo) OrdersByStatus(ctx context.Context, status entities.Status) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("id").
		MustSql()

	return r.selectOrders(ctx, query, args)
}

func (r *postgresRepo) OrdersByDateRange(ctx context.Context, from, to time.Time) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.GtOrEq{"order_date": from}).
		Where(sq.LtOrEq{"order_date": to}).
		OrderBy("order_date").
		MustSql()

	return r.selectOrders(ctx, query, args)
}

func (r *postgresRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status entities.Status) (entities.Order, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": orderID}).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		MustSql()

	var row Order
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	return OrderToEntity(row, nil), nil
}

// DeleteOrder removes the order and all of its child records. Run inside
// a transaction so a partial delete never survives.
func (r *postgresRepo) DeleteOrder(ctx context.Context, orderID int64) error {
	for _, table := range []string{"order_items", "payments", "shipments"} {
		query, args := r.qb.Delete(table).Where(sq.Eq{"order_id": orderID}).MustSql()
		if _, err := r.execContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	query, args := r.qb.Delete("orders").Where(sq.Eq{"id": orderID}).MustSql()
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepo) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]entities.Payment, error) {
	query, args := r.qb.Select("id", "order_id", "payment_date", "amount", "payment_method",
		"transaction_id", "status", "created_at", "updated_at").
		From("payments").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var rows []Payment
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select payments: %w", err)
	}

	payments := make([]entities.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, PaymentToEntity(row))
	}
	return payments, nil
}

func (r *postgresRepo) ListShipmentsByOrder(ctx context.Context, orderID int64) ([]entities.Shipment, error) {
	query, args := r.qb.Select("id", "order_id", "shipment_date", "carrier",
		"tracking_number", "status", "created_at", "updated_at").
		From("shipments").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var rows []Shipment
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select shipments: %w", err)
	}

	shipments := make([]entities.Shipment, 0, len(rows))
	for _, row := range rows {
		shipments = append(shipments, ShipmentToEntity(row))
	}
	return shipments, nil
}

func (r *postgresRepo) selectOrders(ctx context.Context, query string, args []any) ([]entities.Order, error) {
	var rows []Order
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	if len(rows) == 0 {
		return []entities.Order{}, nil
	}

	// Получаем товары для этих заказов
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		result = append(result, OrderToEntity(row, items[row.ID]))
	}
	return result, nil
}

func (r *postgresRepo) itemsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	query, args := r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id").
		MustSql()

	var rows []OrderItem
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}

	items := make(map[int64][]OrderItem, len(orderIDs))
	for _, row := range rows {
		items[row.OrderID] = append(items[row.OrderID], row)
	}
	return items, nil
}

func mapConstraintError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", entities.ErrConstraintViolation, pqErr.Constraint)
	}
	return err
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
