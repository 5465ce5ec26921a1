package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"insightpro/internal/logging"
	"insightpro/internal/models"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	amqp "github.com/streadway/amqp"
)

// ProductEventsQueue is the durable queue product lifecycle events go to.
const ProductEventsQueue = "product_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// mu serializes publishes on the shared channel.
	mu     sync.Mutex
	logger log.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the product events queue.
func NewClient(cfg Config, logger log.Logger) (*Client, error) {
	logger = logging.OrNop(logger)

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	level.Info(logger).Log("msg", "RabbitMQ client connected", "queue", ProductEventsQueue)

	return &Client{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		ProductEventsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", ProductEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newPublishing builds the persistent JSON message for event.
func newPublishing(event models.ProductEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal product event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// PublishProductEvent publishes event to the product events queue through the
// default exchange.
func (c *Client) PublishProductEvent(ctx context.Context, event models.ProductEvent) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",                 // exchange: default exchange
		ProductEventsQueue, // routing key: the queue name
		false,              // mandatory
		false,              // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish product event: %w", err)
	}

	level.Debug(c.logger).Log("msg", "product event sent", "event_id", event.ID, "type", event.Type, "product_id", event.ProductID)
	return nil
}

// decodeEvent parses a message body into a ProductEvent.
func decodeEvent(body []byte) (models.ProductEvent, error) {
	var event models.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("malformed product event: %w", err)
	}
	if event.Type == "" || event.ProductID == 0 {
		return event, errors.New("malformed product event: type and product_id are required")
	}
	return event, nil
}

// handleDelivery runs handler on one message and acknowledges it. Malformed
// messages are dropped; a failing handler gets one redelivery.
func handleDelivery(msg amqp.Delivery, handler func(models.ProductEvent) error, logger log.Logger) {
	event, err := decodeEvent(msg.Body)
	if err != nil {
		level.Warn(logger).Log("msg", "dropping message", "delivery_tag", msg.DeliveryTag, "err", err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			level.Error(logger).Log("msg", "failed to nack message", "delivery_tag", msg.DeliveryTag, "err", nackErr)
		}
		return
	}

	if err := handler(event); err != nil {
		requeue := !msg.Redelivered
		level.Warn(logger).Log("msg", "failed to process product event", "event_id", event.ID, "requeue", requeue, "err", err)
		if nackErr := msg.Nack(false, requeue); nackErr != nil {
			level.Error(logger).Log("msg", "failed to nack message", "delivery_tag", msg.DeliveryTag, "err", nackErr)
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		level.Error(logger).Log("msg", "failed to ack message", "delivery_tag", msg.DeliveryTag, "err", ackErr)
	}
}

// ConsumeProductEvents starts a goroutine that passes every message on the
// product events queue to handler. It returns once the consumer is registered.
func (c *Client) ConsumeProductEvents(handler func(models.ProductEvent) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		ProductEventsQueue, // queue
		"",                 // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	level.Info(c.logger).Log("msg", "waiting for product events", "queue", ProductEventsQueue)

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler, c.logger)
		}
		level.Info(c.logger).Log("msg", "product events consumer stopped")
	}()

	return nil
}

// AuditHandler returns a handler that records every product event in the log.
func AuditHandler(logger log.Logger) func(models.ProductEvent) error {
	logger = logging.OrNop(logger)
	return func(event models.ProductEvent) error {
		level.Info(logger).Log("msg", "product event", "event_id", event.ID, "type", event.Type,
			"product_id", event.ProductID, "occurred_at", event.OccurredAt)
		return nil
	}
}
