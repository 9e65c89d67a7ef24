package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tutoring-service/internal/events"
	"tutoring-service/internal/metrics"

	"github.com/nats-io/nats.go"
)

const clientName = "tutoring-service"

// Producer publishes marketplace events as core NATS messages. Every event type gets
// its own subject below the configured prefix, e.g. "tutoring.booking.created".
type Producer struct {
	nc      *nats.Conn
	prefix  string
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewProducer(url, prefix string, log *slog.Logger, m *metrics.Metrics) (*Producer, error) {
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}

	return &Producer{nc: nc, prefix: prefix, log: log, metrics: m}, nil
}

func (p *Producer) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	body, err := event.Encode()
	if err != nil {
		return err
	}

	subject := p.Subject(event.Type)
	msg := nats.NewMsg(subject)
	msg.Data = body
	msg.Header.Set("Event-Key", event.Key)

	start := time.Now()
	err = p.nc.PublishMsg(msg)
	p.metrics.Messaging.RecordPublish(ctx, subject, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	p.log.DebugContext(ctx, "event published", "subject", subject, "key", event.Key)
	return nil
}

// Close flushes buffered messages before closing the connection.
func (p *Producer) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	return nil
}

// HealthCheck fails while the connection to the NATS server is down.
func (p *Producer) HealthCheck() error {
	switch {
	case p.nc == nil || p.nc.IsClosed():
		return nats.ErrConnectionClosed
	case !p.nc.IsConnected():
		return nats.ErrDisconnected
	}
	return nil
}
