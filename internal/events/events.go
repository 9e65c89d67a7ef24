package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Event types published by the marketplace.
const (
	SessionCreated       = "session.created"
	SessionStatusChanged = "session.status_changed"
	SessionDeleted       = "session.deleted"
	BookingCreated       = "booking.created"
)

// Event is the envelope published to the configured broker.
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	Actor      string      `json:"actor"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurredAt"`
}

func New(eventType, key, actor string, payload interface{}) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		Actor:      actor,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode renders the envelope as broker message body.
func (e Event) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return body, nil
}

// Publisher delivers events to a broker (NATS/Kafka)
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// PublishBestEffort publishes event and only logs a failure. The write that produced
// the event has already been committed and is not rolled back.
func PublishBestEffort(ctx context.Context, p Publisher, logger *slog.Logger, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "type", event.Type, "key", event.Key, "error", err)
	}
}
