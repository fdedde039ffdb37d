package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ExchangeName = "recordstore.events"
	ExchangeType = "topic"

	EventVersion = "1.0.0"

	// Published event types, also used as routing keys
	EventTypeRecordAdded          = "record.added"
	EventTypeRecordPriced         = "record.priced"
	EventTypeRecordSold           = "record.sold"
	EventTypeReservationCreated   = "reservation.created"
	EventTypeReservationCancelled = "reservation.cancelled"
	EventTypeReservationCommitted = "reservation.committed"

	// Consumed event types
	EventTypeStockReceived = "stock.received"
)

// Event is the envelope of every message on the exchange
type Event struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	EventVersion  string `json:"event_version"`
	Timestamp     string `json:"timestamp"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Payload       any    `json:"payload"`
}

type RecordAddedPayload struct {
	ItemID   string `json:"item_id"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	OnHand   int    `json:"on_hand"`
}

type RecordPricedPayload struct {
	ItemID    string `json:"item_id"`
	UnitPrice int64  `json:"unit_price"`
}

type RecordSoldPayload struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Value    int64  `json:"value"`
}

type ReservationPayload struct {
	ReservationID int    `json:"reservation_id"`
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`
}

// StockReceivedEvent announces a delivery of records to the shop
type StockReceivedEvent struct {
	EventID      string               `json:"event_id"`
	EventType    string               `json:"event_type"`
	EventVersion string               `json:"event_version"`
	Timestamp    string               `json:"timestamp"`
	Payload      StockReceivedPayload `json:"payload"`
}

type StockReceivedPayload struct {
	ItemID   string `json:"item_id"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`
	Quantity int    `json:"quantity"`
}

type correlationKey struct{}

// WithCorrelationID attaches id to ctx; events published with the returned
// context carry it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func newEvent(ctx context.Context, eventType string, payload any) Event {
	return Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		CorrelationID: CorrelationID(ctx),
		Payload:       payload,
	}
}
