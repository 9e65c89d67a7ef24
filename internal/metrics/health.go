package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DependencyMetrics tracks the outcome of readiness checks per dependency.
type DependencyMetrics struct {
	up           metric.Int64ObservableGauge
	responseTime metric.Float64Histogram

	mu        sync.Mutex
	available map[string]bool
}

func NewDependencyMetrics(meter metric.Meter) (*DependencyMetrics, error) {
	dm := &DependencyMetrics{available: make(map[string]bool)}

	var err error
	dm.up, err = meter.Int64ObservableGauge(
		"dependency.up",
		metric.WithDescription("Dependency availability status (1=up, 0=down)"),
		metric.WithUnit("{status}"),
	)
	if err != nil {
		return nil, err
	}

	dm.responseTime, err = durationHistogram(meter, "dependency.response_time", "Readiness check response time")
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		dm.mu.Lock()
		defer dm.mu.Unlock()
		for name, ok := range dm.available {
			value := int64(0)
			if ok {
				value = 1
			}
			o.ObserveInt64(dm.up, value, metric.WithAttributes(attribute.String("dependency", name)))
		}
		return nil
	}, dm.up)
	if err != nil {
		return nil, err
	}
	return dm, nil
}

// RecordCheck stores the latest status of dependency and the time the check took.
func (dm *DependencyMetrics) RecordCheck(ctx context.Context, dependency string, duration time.Duration, err error) {
	if dm == nil || dm.responseTime == nil {
		return
	}

	dm.responseTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("dependency", dependency)))

	dm.mu.Lock()
	dm.available[dependency] = err == nil
	dm.mu.Unlock()
}
