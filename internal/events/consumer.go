package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bookstore/recordstore/internal/merchant"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const prefetchCount = 10

// Stocker is the part of the merchant the consumer drives
type Stocker interface {
	AddItem(quantity int, artist, title, notes, id string) error
	Item(id string) (merchant.Item, error)
}

// AddedNotifier is told about stock the consumer has taken in
type AddedNotifier interface {
	PublishRecordAdded(ctx context.Context, id, artist, title string, quantity, onHand int) error
}

// Consumer applies stock deliveries from the exchange to the merchant
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	serviceName string
	stock       Stocker
	notifier    AddedNotifier
	log         *zap.Logger
}

// NewConsumer connects to RabbitMQ. notifier may be nil.
func NewConsumer(url, serviceName string, stock Stocker, notifier AddedNotifier, log *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	log.Info("Consumer connected to RabbitMQ", zap.String("exchange", ExchangeName))

	return newConsumer(serviceName, stock, notifier, log, conn, ch), nil
}

func newConsumer(serviceName string, stock Stocker, notifier AddedNotifier, log *zap.Logger, conn *amqp.Connection, ch *amqp.Channel) *Consumer {
	return &Consumer{
		conn:        conn,
		channel:     ch,
		serviceName: serviceName,
		stock:       stock,
		notifier:    notifier,
		log:         log,
	}
}

// QueueName is the durable queue this service consumes from
func (c *Consumer) QueueName() string {
	return fmt.Sprintf("%s.stock.queue", c.serviceName)
}

// Start consumes until ctx is cancelled or the channel closes. It returns
// after the delivery in progress, if any, has been applied and acknowledged.
func (c *Consumer) Start(ctx context.Context) error {
	queue, err := c.channel.QueueDeclare(
		c.QueueName(),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.QueueBind(queue.Name, EventTypeStockReceived, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to %s: %w", EventTypeStockReceived, err)
	}
	c.log.Info("Listening for events", zap.String("queue", queue.Name), zap.String("routing_key", EventTypeStockReceived))

	msgs, err := c.channel.Consume(
		queue.Name,
		c.serviceName, // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	return c.consume(ctx, msgs)
}

// consume handles deliveries one at a time. It returns only between
// deliveries, so once it has returned no message is being applied. A delivery
// received after ctx is cancelled is left unacked for redelivery.
func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if ctx.Err() != nil {
				return nil
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	c.log.Debug("Received event", zap.String("routing_key", msg.RoutingKey))

	switch msg.RoutingKey {
	case EventTypeStockReceived:
		c.handleStockReceived(ctx, msg)
	default:
		c.log.Warn("Unknown event type", zap.String("routing_key", msg.RoutingKey))
		_ = msg.Nack(false, false) // Don't requeue unknown events
	}
}

func (c *Consumer) handleStockReceived(ctx context.Context, msg amqp.Delivery) {
	var event StockReceivedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Warn("Failed to unmarshal stock.received event", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	p := event.Payload
	log := c.log.With(zap.String("event_id", event.EventID), zap.String("item_id", p.ItemID))

	// Engine rejections are permanent; redelivery would fail the same way.
	if err := c.stock.AddItem(p.Quantity, p.Artist, p.Title, p.Notes, p.ItemID); err != nil {
		log.Warn("Rejected stock delivery", zap.Int("quantity", p.Quantity), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	onHand := p.Quantity
	if it, err := c.stock.Item(p.ItemID); err == nil {
		onHand = it.OnHand
	}
	log.Info("Stock received", zap.Int("quantity", p.Quantity), zap.Int("on_hand", onHand))

	if c.notifier != nil {
		pubCtx := WithCorrelationID(ctx, event.EventID)
		if err := c.notifier.PublishRecordAdded(pubCtx, p.ItemID, p.Artist, p.Title, p.Quantity, onHand); err != nil {
			// Don't fail the delivery if event publishing fails
			log.Warn("Failed to publish record.added event", zap.Error(err))
		}
	}

	_ = msg.Ack(false)
}

// Close closes the consumer channel and connection
func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
