package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"trip-service/internal/observability"
)

// Publisher publishes audit events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher connects to RabbitMQ and declares the exchange. When the URL
// is empty or the broker is unreachable the service still starts, with a
// noop publisher that only logs.
func NewPublisher(amqpURL, exchange string, log *logrus.Logger) Publisher {
	if amqpURL == "" {
		log.Warn("AMQP_URL not set, audit publishing disabled")
		return &noopPublisher{log: log, reason: "no amqp url"}
	}

	pub, err := dial(amqpURL, exchange)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unavailable, audit publishing disabled")
		return &noopPublisher{log: log, reason: err.Error()}
	}

	log.WithField("exchange", exchange).Info("rabbitmq audit publisher connected")
	pub.log = log
	return pub
}

func dial(amqpURL, exchange string) (*amqpPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}

	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *logrus.Logger
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		observability.IncAMQPPublishError()
		p.log.WithError(err).WithField("routing_key", routingKey).Error("rabbitmq publish failed")
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	log    *logrus.Logger
	reason string
}

func (p *noopPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.log.WithField("routing_key", routingKey).Debug("audit event dropped (publisher disabled)")
	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherMode reports whether the publisher is live or a noop, for the
// startup log line.
func PublisherMode(p Publisher) string {
	if np, ok := p.(*noopPublisher); ok {
		return "noop (" + np.reason + ")"
	}
	return "amqp"
}
