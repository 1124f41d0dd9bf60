// Package rabbitmq publishes and consumes booking events over AMQP. Each topic
// maps to a durable queue bound to the configured direct exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type Publisher struct {
	url      string
	exchange string
	logger   *logrus.Logger
}

func NewPublisher(url, exchange string, logger *logrus.Logger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{url: url, exchange: exchange, logger: logger}
}

// Publish opens a short-lived connection per message. Booking events are low
// volume and this keeps the publisher free of reconnect state.
func (p *Publisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	msg, err := newPublishing(key, payload, time.Now())
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareTopology(ch, p.exchange, topic); err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, p.exchange, topic, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	p.logger.WithFields(logrus.Fields{"queue": topic, "key": key}).Debug("published to rabbitmq")
	return nil
}

func newPublishing(key string, payload interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func declareTopology(ch *amqp.Channel, exchange, queue string) error {
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq exchange declare: %w", err)
		}
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if exchange != "" {
		if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
			return fmt.Errorf("rabbitmq queue bind: %w", err)
		}
	}
	return nil
}

// Consume delivers messages from queue to handler until ctx is cancelled.
// A message the handler rejects is nacked without requeue.
func (p *Publisher) Consume(ctx context.Context, queue string, handler func(context.Context, []byte) error) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareTopology(ch, p.exchange, queue); err != nil {
		return err
	}
	if err := ch.Qos(50, 0, false); err != nil {
		p.logger.WithError(err).Warn("rabbitmq qos failed")
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq deliveries channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				p.logger.WithError(err).WithField("message_id", d.MessageId).Warn("rejecting message")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
