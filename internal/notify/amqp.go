package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"budgetpace/internal/logger"
)

// AMQPPublisher publishes alert events to a durable direct exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return p, nil
}

// Publish sends each event as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, events []AlertEvent) error {
	for _, e := range events {
		body, err := e.ToJSON()
		if err != nil {
			return fmt.Errorf("marshal alert event: %w", err)
		}

		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.channel.PublishWithContext(
			pubCtx,
			p.exchange,
			e.RoutingKey(),
			false, // mandatory
			false, // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				MessageId:    e.AlertID,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		cancel()
		if err != nil {
			return fmt.Errorf("publish alert %s: %w", e.AlertID, err)
		}

		logger.Get().Debugw("published alert event",
			"alert_id", e.AlertID,
			"budget_id", e.BudgetID,
			"routing_key", e.RoutingKey(),
		)
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
