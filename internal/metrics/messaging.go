package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MessagingMetrics covers the NATS and Kafka event publishers.
type MessagingMetrics struct {
	published       metric.Int64Counter
	failed          metric.Int64Counter
	publishDuration metric.Float64Histogram
}

func NewMessagingMetrics(meter metric.Meter) (*MessagingMetrics, error) {
	mm := &MessagingMetrics{}

	var err error
	if mm.published, err = meter.Int64Counter("messaging.messages.published",
		metric.WithDescription("Events handed to the broker"), metric.WithUnit("{message}")); err != nil {
		return nil, err
	}
	if mm.failed, err = meter.Int64Counter("messaging.message.errors",
		metric.WithDescription("Events the broker did not accept"), metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if mm.publishDuration, err = durationHistogram(meter, "messaging.message.publish_duration", "Time spent publishing an event"); err != nil {
		return nil, err
	}

	return mm, nil
}

// RecordPublish records one publish attempt to destination (a subject or topic).
func (mm *MessagingMetrics) RecordPublish(ctx context.Context, destination string, duration time.Duration, err error) {
	if mm == nil || mm.published == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("destination", destination))
	mm.publishDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		mm.failed.Add(ctx, 1, attrs)
		return
	}
	mm.published.Add(ctx, 1, attrs)
}
