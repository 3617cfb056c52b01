package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kityk/wms-order-service/internal/apperr"
	"github.com/kityk/wms-order-service/internal/entities"
	"github.com/kityk/wms-order-service/internal/handler"
	"github.com/kityk/wms-order-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	createFn       func(ctx context.Context, customerID int64, items []service.NewOrderItem) (entities.Order, error)
	getFn          func(ctx context.Context, orderID int64) (entities.Order, error)
	listFn         func(ctx context.Context, filter service.OrderFilter) ([]entities.Order, error)
	updateFn       func(ctx context.Context, orderID int64, patch service.OrderPatch) (entities.Order, error)
	updateStatusFn func(ctx context.Context, orderID int64, status string) (entities.Order, error)
	deleteFn       func(ctx context.Context, orderID int64) error
	paymentsFn     func(ctx context.Context, orderID int64) ([]entities.Payment, error)
	shipmentsFn    func(ctx context.Context, orderID int64) ([]entities.Shipment, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, customerID int64, items []service.NewOrderItem) (entities.Order, error) {
	return s.createFn(ctx, customerID, items)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	return s.getFn(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter service.OrderFilter) ([]entities.Order, error) {
	return s.listFn(ctx, filter)
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, orderID int64, patch service.OrderPatch) (entities.Order, error) {
	return s.updateFn(ctx, orderID, patch)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (entities.Order, error) {
	return s.updateStatusFn(ctx, orderID, status)
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.deleteFn(ctx, orderID)
}

func (s *stubOrderService) ListOrderPayments(ctx context.Context, orderID int64) ([]entities.Payment, error) {
	return s.paymentsFn(ctx, orderID)
}

func (s *stubOrderService) ListOrderShipments(ctx context.Context, orderID int64) ([]entities.Shipment, error) {
	return s.shipmentsFn(ctx, orderID)
}

func newTestRouter(svc *stubOrderService) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc)
	r := chi.NewRouter()
	h.Init(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apperr.Envelope {
	t.Helper()
	var env apperr.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func sampleOrder() entities.Order {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return entities.Order{
		ID:          7,
		CustomerID:  42,
		OrderDate:   now,
		Status:      entities.StatusPending,
		TotalAmount: decimal.RequireFromString("24.25"),
		Items: []entities.OrderItem{
			{ID: 1, OrderID: 7, ProductID: 101, Quantity: 2, Price: decimal.RequireFromString("10.50")},
			{ID: 2, OrderID: 7, ProductID: 102, Quantity: 1, Price: decimal.RequireFromString("3.25")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &stubOrderService{
			createFn: func(ctx context.Context, customerID int64, items []service.NewOrderItem) (entities.Order, error) {
				assert.EqualValues(t, 42, customerID)
				require.Len(t, items, 2)
				return sampleOrder(), nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodPost, "/orders",
			`{"customerId":42,"items":[{"productId":101,"quantity":2},{"productId":102,"quantity":1}]}`)

		require.Equal(t, http.StatusCreated, rec.Code)

		var got handler.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.EqualValues(t, 7, got.ID)
		assert.Equal(t, "Pending", got.Status)
		assert.Equal(t, "24.25", got.TotalAmount.String())
		assert.Len(t, got.Items, 2)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodPost, "/orders", `{not json`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Invalid request body", env.Detail)
		assert.Equal(t, apperr.Critical, env.Criticality)
		assert.NotEmpty(t, env.ID)
	})

	t.Run("validation errors aggregated", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodPost, "/orders", `{"customerId":0,"items":[]}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Multiple validation errors occurred", env.Detail)
		require.GreaterOrEqual(t, len(env.OtherErrors), 3)

		assert.Equal(t, apperr.NonCritical, env.OtherErrors[0].Criticality)
		assert.Contains(t, env.OtherErrors[0].Detail, "Recovery suggestion:")

		var fieldDetails []string
		for _, sub := range env.OtherErrors[1:] {
			assert.Equal(t, apperr.Critical, sub.Criticality)
			fieldDetails = append(fieldDetails, sub.Detail)
		}
		assert.Contains(t, fieldDetails, "Validation error for field 'CustomerID': required")
		assert.Contains(t, fieldDetails, "Validation error for field 'Items': min")
	})

	t.Run("single validation error becomes main detail", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodPost, "/orders",
			`{"customerId":42,"items":[{"productId":101,"quantity":0}]}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Validation error for field 'Quantity': required", env.Detail)
	})

	t.Run("service errors pass through the envelope", func(t *testing.T) {
		svc := &stubOrderService{
			createFn: func(ctx context.Context, customerID int64, items []service.NewOrderItem) (entities.Order, error) {
				return entities.Order{}, apperr.NotFound("Customer", customerID)
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodPost, "/orders",
			`{"customerId":42,"items":[{"productId":101,"quantity":2}]}`)

		require.Equal(t, http.StatusNotFound, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Customer not found with ID: 42", env.Detail)
	})

	t.Run("unknown errors never leak the cause", func(t *testing.T) {
		svc := &stubOrderService{
			createFn: func(ctx context.Context, customerID int64, items []service.NewOrderItem) (entities.Order, error) {
				return entities.Order{}, errors.New("pq: connection reset")
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodPost, "/orders",
			`{"customerId":42,"items":[{"productId":101,"quantity":2}]}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Internal server error", env.Detail)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}

func TestHTTPHandler_GetOrder(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubOrderService{
			getFn: func(ctx context.Context, orderID int64) (entities.Order, error) {
				assert.EqualValues(t, 7, orderID)
				return sampleOrder(), nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet, "/orders/7", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got handler.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.EqualValues(t, 7, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubOrderService{
			getFn: func(ctx context.Context, orderID int64) (entities.Order, error) {
				return entities.Order{}, apperr.NotFound("Order", orderID)
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet, "/orders/7", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Order not found with ID: 7", env.Detail)
		assert.Equal(t, apperr.Critical, env.Criticality)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodGet, "/orders/abc", "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Invalid order id: abc", env.Detail)
	})

	t.Run("non-positive id", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodGet, "/orders/0", "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		svc := &stubOrderService{
			listFn: func(ctx context.Context, filter service.OrderFilter) ([]entities.Order, error) {
				assert.Nil(t, filter.Status)
				assert.Nil(t, filter.From)
				return []entities.Order{sampleOrder()}, nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet, "/orders", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []handler.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.EqualValues(t, 7, got[0].ID)
	})

	t.Run("status filter passed through", func(t *testing.T) {
		svc := &stubOrderService{
			listFn: func(ctx context.Context, filter service.OrderFilter) ([]entities.Order, error) {
				require.NotNil(t, filter.Status)
				assert.Equal(t, "Shipped", *filter.Status)
				return nil, nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet, "/orders?status=Shipped", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("date range filter parsed", func(t *testing.T) {
		svc := &stubOrderService{
			listFn: func(ctx context.Context, filter service.OrderFilter) ([]entities.Order, error) {
				require.NotNil(t, filter.From)
				require.NotNil(t, filter.To)
				assert.Equal(t, 2025, filter.From.Year())
				return nil, nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet,
			"/orders?from=2025-01-01T00:00:00Z&to=2025-02-01T00:00:00Z", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodGet, "/orders?from=yesterday", "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Invalid from date: yesterday", env.Detail)
	})
}

func TestHTTPHandler_ListOrderPayments(t *testing.T) {
	t.Run("payments returned", func(t *testing.T) {
		svc := &stubOrderService{
			paymentsFn: func(ctx context.Context, orderID int64) ([]entities.Payment, error) {
				assert.EqualValues(t, 7, orderID)
				return []entities.Payment{{
					ID:            1,
					OrderID:       7,
					Amount:        decimal.RequireFromString("24.25"),
					PaymentMethod: "card",
					TransactionID: "tx-1",
					Status:        "Completed",
				}}, nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet, "/orders/7/payments", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []handler.Payment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "tx-1", got[0].TransactionID)
	})

	t.Run("missing order", func(t *testing.T) {
		svc := &stubOrderService{
			paymentsFn: func(ctx context.Context, orderID int64) ([]entities.Payment, error) {
				return nil, apperr.NotFound("Order", orderID)
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodGet, "/orders/7/payments", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHTTPHandler_ListOrderShipments(t *testing.T) {
	svc := &stubOrderService{
		shipmentsFn: func(ctx context.Context, orderID int64) ([]entities.Shipment, error) {
			return []entities.Shipment{{
				ID:             1,
				OrderID:        7,
				Carrier:        "DHL",
				TrackingNumber: "trk-1",
				Status:         "In Transit",
			}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/orders/7/shipments", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []handler.Shipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "trk-1", got[0].TrackingNumber)
}

func TestHTTPHandler_UpdateOrderStatus(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		svc := &stubOrderService{
			updateStatusFn: func(ctx context.Context, orderID int64, status string) (entities.Order, error) {
				assert.Equal(t, "Shipped", status)
				order := sampleOrder()
				order.Status = entities.StatusShipped
				return order, nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodPut, "/orders/7/status", `{"status":"Shipped"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var got handler.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Shipped", got.Status)
	})

	t.Run("unknown status rejected before the service", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodPut, "/orders/7/status", `{"status":"Bogus"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Invalid order status: Bogus", env.Detail)
	})

	t.Run("missing status", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodPut, "/orders/7/status", `{}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Validation error for field 'Status': required", env.Detail)
	})
}

func TestHTTPHandler_UpdateOrder(t *testing.T) {
	t.Run("status patch", func(t *testing.T) {
		svc := &stubOrderService{
			updateFn: func(ctx context.Context, orderID int64, patch service.OrderPatch) (entities.Order, error) {
				require.NotNil(t, patch.Status)
				assert.Equal(t, "Cancelled", *patch.Status)
				order := sampleOrder()
				order.Status = entities.StatusCancelled
				return order, nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodPut, "/orders/7", `{"status":"Cancelled"}`)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid status in patch", func(t *testing.T) {
		router := newTestRouter(&stubOrderService{})

		rec := doRequest(t, router, http.MethodPut, "/orders/7", `{"status":"Nope"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "Invalid order status: Nope", env.Detail)
	})
}

func TestHTTPHandler_DeleteOrder(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc := &stubOrderService{
			deleteFn: func(ctx context.Context, orderID int64) error {
				assert.EqualValues(t, 7, orderID)
				return nil
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodDelete, "/orders/7", "")

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubOrderService{
			deleteFn: func(ctx context.Context, orderID int64) error {
				return apperr.NotFound("Order", orderID)
			},
		}
		router := newTestRouter(svc)

		rec := doRequest(t, router, http.MethodDelete, "/orders/7", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
