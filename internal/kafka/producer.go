package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tutoring-service/internal/events"
	"tutoring-service/internal/metrics"

	"github.com/IBM/sarama"
)

const (
	eventTypeHeader = "event-type"

	// sendTimeout bounds each network step of a publish.
	sendTimeout = 2 * time.Second
)

// Producer writes every event to one topic. Messages are keyed by the event key so
// the history of a session stays ordered within a partition.
type Producer struct {
	sync    sarama.SyncProducer
	topic   string
	log     *slog.Logger
	metrics *metrics.Metrics
}

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "tutoring-service"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Retry.Max = 1
	cfg.Producer.Retry.Backoff = 50 * time.Millisecond
	cfg.Producer.Timeout = sendTimeout
	cfg.Producer.Return.Successes = true
	cfg.Metadata.Retry.Max = 1
	cfg.Metadata.Retry.Backoff = 50 * time.Millisecond
	cfg.Net.MaxOpenRequests = 1
	cfg.Net.DialTimeout = sendTimeout
	cfg.Net.ReadTimeout = sendTimeout
	cfg.Net.WriteTimeout = sendTimeout
	return cfg
}

func NewProducer(brokers []string, topic string, log *slog.Logger, m *metrics.Metrics) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to kafka %v: %w", brokers, err)
	}
	return NewWithSyncProducer(sync, topic, log, m), nil
}

// NewWithSyncProducer wraps an already constructed producer, such as sarama's mocks.
func NewWithSyncProducer(sync sarama.SyncProducer, topic string, log *slog.Logger, m *metrics.Metrics) *Producer {
	return &Producer{sync: sync, topic: topic, log: log, metrics: m}
}

func (p *Producer) message(event events.Event) (*sarama.ProducerMessage, error) {
	body, err := event.Encode()
	if err != nil {
		return nil, err
	}
	return &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(event.Key),
		Value:   sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{{Key: []byte(eventTypeHeader), Value: []byte(event.Type)}},
	}, nil
}

func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	msg, err := p.message(event)
	if err != nil {
		return err
	}

	start := time.Now()
	partition, offset, err := p.sync.SendMessage(msg)
	p.metrics.Messaging.RecordPublish(ctx, p.topic, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", event.Type, p.topic, err)
	}

	p.log.DebugContext(ctx, "event published", "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

func (p *Producer) Close() error {
	return p.sync.Close()
}
