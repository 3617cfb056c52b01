package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kityk/wms-order-service/internal/apperr"
	"github.com/kityk/wms-order-service/internal/entities"
	"github.com/kityk/wms-order-service/internal/service"
	"github.com/kityk/wms-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	CreateOrder(ctx context.Context, customerID int64, items []service.NewOrderItem) (entities.Order, error)
	GetOrder(ctx context.Context, orderID int64) (entities.Order, error)
	ListOrders(ctx context.Context, filter service.OrderFilter) ([]entities.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, patch service.OrderPatch) (entities.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) (entities.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error

	ListOrderPayments(ctx context.Context, orderID int64) ([]entities.Payment, error)
	ListOrderShipments(ctx context.Context, orderID int64) ([]entities.Shipment, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}", h.UpdateOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
		r.Get("/{id}/payments", h.ListOrderPayments)
		r.Get("/{id}/shipments", h.ListOrderShipments)
	})
}

// CreateOrder создаёт новый заказ.
// @Summary      Create order
// @Tags         orders
// @Param        order  body      OrderCreate  true  "Order to create"
// @Success      201  {object}  Order
// @Failure      400  {object}  apperr.Envelope
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OrderCreate
	if err := utils.DecodeBody(r, &req); err != nil {
		h.writeError(ctx, w, apperr.Invalid("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeValidationError(ctx, w, err)
		return
	}

	order, err := h.svc.CreateOrder(ctx, req.CustomerID, ItemsToNewOrderItems(req.Items))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	ordersCreated.WithLabelValues(string(order.Status)).Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

// ListOrders возвращает заказы, опционально отфильтрованные по статусу
// или диапазону дат.
// @Summary      List orders
// @Tags         orders
// @Param        status  query  string  false  "Filter by status"
// @Param        from    query  string  false  "Start of order date range (RFC 3339)"
// @Param        to      query  string  false  "End of order date range (RFC 3339)"
// @Success      200  {array}  Order
// @Failure      400  {object}  apperr.Envelope
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := orderFilter(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	orders, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

func orderFilter(r *http.Request) (service.OrderFilter, error) {
	var filter service.OrderFilter
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		filter.Status = &status
	}
	for param, dest := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return service.OrderFilter{}, apperr.Invalid(fmt.Sprintf("Invalid %s date: %s", param, raw))
		}
		*dest = &ts
	}
	return filter, nil
}

// GetOrder возвращает заказ по ID.
// @Summary      Get order by id
// @Tags         orders
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  Order
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders/{id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := h.orderID(ctx, w, r)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateOrder обновляет заказ.
// @Summary      Update order
// @Tags         orders
// @Param        id     path      int          true  "Order ID"
// @Param        order  body      OrderUpdate  true  "Fields to update"
// @Success      200  {object}  Order
// @Failure      400  {object}  apperr.Envelope
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders/{id} [put]
func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := h.orderID(ctx, w, r)
	if !ok {
		return
	}

	var req OrderUpdate
	if err := utils.DecodeBody(r, &req); err != nil {
		h.writeError(ctx, w, apperr.Invalid("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeValidationError(ctx, w, err)
		return
	}
	if req.Status != nil && !entities.ValidStatus(*req.Status) {
		h.writeError(ctx, w, apperr.Invalid(fmt.Sprintf("Invalid order status: %s", *req.Status)))
		return
	}

	order, err := h.svc.UpdateOrder(ctx, orderID, service.OrderPatch{
		Status: req.Status,
		Items:  ItemsToNewOrderItems(req.Items),
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateOrderStatus обновляет статус заказа.
// @Summary      Update order status
// @Tags         orders
// @Param        id      path      int           true  "Order ID"
// @Param        status  body      StatusUpdate  true  "New status"
// @Success      200  {object}  Order
// @Failure      400  {object}  apperr.Envelope
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders/{id}/status [put]
func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := h.orderID(ctx, w, r)
	if !ok {
		return
	}

	var req StatusUpdate
	if err := utils.DecodeBody(r, &req); err != nil {
		h.writeError(ctx, w, apperr.Invalid("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeValidationError(ctx, w, err)
		return
	}
	if !entities.ValidStatus(req.Status) {
		h.writeError(ctx, w, apperr.Invalid(fmt.Sprintf("Invalid order status: %s", req.Status)))
		return
	}

	order, err := h.svc.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// DeleteOrder удаляет заказ вместе с дочерними записями.
// @Summary      Delete order
// @Tags         orders
// @Param        id   path  int  true  "Order ID"
// @Success      204
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders/{id} [delete]
func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := h.orderID(ctx, w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(ctx, orderID); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	ordersDeleted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// ListOrderPayments возвращает платежи по заказу.
// @Summary      List order payments
// @Tags         orders
// @Param        id   path      int  true  "Order ID"
// @Success      200  {array}   Payment
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders/{id}/payments [get]
func (h *HTTPHandler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := h.orderID(ctx, w, r)
	if !ok {
		return
	}

	payments, err := h.svc.ListOrderPayments(ctx, orderID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, PaymentsEntityToJSON(payments), http.StatusOK)
}

// ListOrderShipments возвращает отгрузки по заказу.
// @Summary      List order shipments
// @Tags         orders
// @Param        id   path      int  true  "Order ID"
// @Success      200  {array}   Shipment
// @Failure      404  {object}  apperr.Envelope
// @Router       /orders/{id}/shipments [get]
func (h *HTTPHandler) ListOrderShipments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := h.orderID(ctx, w, r)
	if !ok {
		return
	}

	shipments, err := h.svc.ListOrderShipments(ctx, orderID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, ShipmentsEntityToJSON(shipments), http.StatusOK)
}

func (h *HTTPHandler) orderID(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.writeError(ctx, w, apperr.Invalid(fmt.Sprintf("Invalid order id: %s", raw)))
		return 0, false
	}
	return id, true
}
