// Package events publishes order lifecycle events to Kafka. Publishing is
// best effort: a broker failure is logged and never changes the outcome
// of the request that produced the event.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/kityk/wms-order-service/internal/config"
	"github.com/kityk/wms-order-service/internal/entities"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type        string          `json:"type"`
	OrderID     int64           `json:"order_id"`
	CustomerID  int64           `json:"customer_id,omitempty"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(logger *slog.Logger, cfg config.Kafka) *KafkaPublisher {
	return &KafkaPublisher{
		logger: logger.With(slog.String("publisher", "kafka")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *KafkaPublisher) OrderCreated(ctx context.Context, order entities.Order) {
	p.publish(ctx, OrderEvent{
		Type:        TypeOrderCreated,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now(),
	})
}

func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, orderID int64, status entities.Status) {
	p.publish(ctx, OrderEvent{
		Type:       TypeOrderStatusChanged,
		OrderID:    orderID,
		Status:     string(status),
		OccurredAt: time.Now(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, event OrderEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal order event", slog.Any("error", err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish order event",
			slog.String("type", event.Type),
			slog.Int64("order_id", event.OrderID),
			slog.Any("error", err))
		return
	}
	p.logger.Debug("order event published",
		slog.String("type", event.Type), slog.Int64("order_id", event.OrderID))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is wired when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(context.Context, entities.Order) {}

func (NopPublisher) OrderStatusChanged(context.Context, int64, entities.Status) {}
