package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second
)

var errNotAcknowledged = errors.New("event not acknowledged")

type sendFunc func(ctx context.Context, routingKey string, msg amqp.Publishing) error

// Publisher handles event publishing to RabbitMQ
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger

	mu   sync.Mutex
	send sendFunc
}

// NewPublisher creates a new event publisher
func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	// Enable publisher confirms for reliability
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", ExchangeName))

	p := &Publisher{
		conn:    conn,
		channel: channel,
		log:     log,
	}
	p.send = p.publishConfirmed
	return p, nil
}

func declareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		ExchangeName,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// PublishRecordAdded publishes a record added event
func (p *Publisher) PublishRecordAdded(ctx context.Context, id, artist, title string, quantity, onHand int) error {
	return p.publishWithRetry(ctx, newEvent(ctx, EventTypeRecordAdded, RecordAddedPayload{
		ItemID:   id,
		Artist:   artist,
		Title:    title,
		Quantity: quantity,
		OnHand:   onHand,
	}))
}

// PublishRecordPriced publishes a record priced event
func (p *Publisher) PublishRecordPriced(ctx context.Context, id string, price int64) error {
	return p.publishWithRetry(ctx, newEvent(ctx, EventTypeRecordPriced, RecordPricedPayload{
		ItemID:    id,
		UnitPrice: price,
	}))
}

// PublishRecordSold publishes a record sold event
func (p *Publisher) PublishRecordSold(ctx context.Context, id string, quantity int, value int64) error {
	return p.publishWithRetry(ctx, newEvent(ctx, EventTypeRecordSold, RecordSoldPayload{
		ItemID:   id,
		Quantity: quantity,
		Value:    value,
	}))
}

// PublishReservationCreated publishes a reservation created event
func (p *Publisher) PublishReservationCreated(ctx context.Context, rid int, id string, quantity int) error {
	return p.publishReservation(ctx, EventTypeReservationCreated, rid, id, quantity)
}

// PublishReservationCancelled publishes a reservation cancelled event
func (p *Publisher) PublishReservationCancelled(ctx context.Context, rid int, id string, quantity int) error {
	return p.publishReservation(ctx, EventTypeReservationCancelled, rid, id, quantity)
}

// PublishReservationCommitted publishes a reservation committed event
func (p *Publisher) PublishReservationCommitted(ctx context.Context, rid int, id string, quantity int) error {
	return p.publishReservation(ctx, EventTypeReservationCommitted, rid, id, quantity)
}

func (p *Publisher) publishReservation(ctx context.Context, eventType string, rid int, id string, quantity int) error {
	return p.publishWithRetry(ctx, newEvent(ctx, eventType, ReservationPayload{
		ReservationID: rid,
		ItemID:        id,
		Quantity:      quantity,
	}))
}

// publishWithRetry publishes an event with exponential backoff retry. The
// event type doubles as the routing key.
func (p *Publisher) publishWithRetry(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.Error(err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
		MessageId:     event.EventID,
		CorrelationId: event.CorrelationID,
		Body:          body,
		Headers: amqp.Table{
			"event_type":    event.EventType,
			"event_version": event.EventVersion,
		},
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}

		p.mu.Lock()
		lastErr = p.send(ctx, event.EventType, msg)
		p.mu.Unlock()

		if lastErr == nil {
			p.log.Info("Event published successfully",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
			)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.log.Warn("Failed to publish event, retrying",
			zap.Int("attempt", attempt+1),
			zap.String("event_type", event.EventType),
			zap.Error(lastErr),
		)
	}

	p.log.Error("Failed to publish event after retries",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Int("attempts", maxRetries),
		zap.Error(lastErr),
	)
	return fmt.Errorf("failed to publish event after %d attempts: %w", maxRetries, lastErr)
}

// publishConfirmed publishes msg and waits for the broker confirmation
func (p *Publisher) publishConfirmed(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !acked {
		return errNotAcknowledged
	}
	return nil
}

// IsHealthy checks if the publisher connection is healthy
func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close closes the publisher connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Error("Failed to close channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.log.Error("Failed to close connection", zap.Error(err))
			return err
		}
	}
	p.log.Info("Publisher closed")
	return nil
}
