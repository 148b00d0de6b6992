package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitWebhookPublisher publishes webhook events to a topic exchange,
// routed by event type (e.g. "inventory.low_stock").
type RabbitWebhookPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitWebhookPublisher(url, exchange string) (*RabbitWebhookPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitWebhookPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitWebhookPublisher) Publish(ctx context.Context, eventType string, payload map[string]any) error {
	b, err := json.Marshal(map[string]any{
		"event":       eventType,
		"occurred_at": time.Now().UTC(),
		"data":        payload,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook %s: %w", eventType, err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         eventType,
		Body:         b,
	})
}

func (p *RabbitWebhookPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
