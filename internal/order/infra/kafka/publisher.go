// Package kafka publishes order lifecycle events as JSON messages keyed
// by order id. Consumers (fulfillment, notifications) are outside this
// service.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/storefront/commerce/internal/order/domain"
)

const Topic = "storefront.orders"

type event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	Total      string    `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher struct {
	writer *kafkaGo.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafkaGo.LeastBytes{},
		},
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) OrderPlaced(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, "order.placed", order)
}

func (p *Publisher) OrderPaid(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, "order.paid", order)
}

func (p *Publisher) OrderCancelled(ctx context.Context, order domain.Order) error {
	return p.publish(ctx, "order.cancelled", order)
}

func (p *Publisher) publish(ctx context.Context, eventType string, order domain.Order) error {
	payload, err := json.Marshal(event{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	return p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(order.ID),
		Value: payload,
	})
}
