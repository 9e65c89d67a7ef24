package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tutoring-service/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const exportInterval = 10 * time.Second

type Telemetry struct {
	// MeterProvider is nil when no collector endpoint is configured.
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *metrics.Metrics
}

// Init builds the service metrics. When endpoint is set, a periodic OTLP exporter is
// installed as the global meter provider first; otherwise the global no-op provider
// stays and every instrument is inert.
func Init(ctx context.Context, endpoint, serviceName, serviceVersion string, logger *slog.Logger) (*Telemetry, error) {
	t := &Telemetry{}

	if endpoint == "" {
		logger.Info("no OTLP endpoint configured, metrics export disabled")
	} else {
		mp, err := newMeterProvider(ctx, endpoint, serviceName, serviceVersion)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(mp)
		t.MeterProvider = mp
		logger.Info("exporting metrics over OTLP", "endpoint", endpoint, "interval", exportInterval)
	}

	m, err := metrics.New(serviceName, logger)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	t.Metrics = m
	return t, nil
}

func newMeterProvider(ctx context.Context, endpoint, serviceName, serviceVersion string) (*sdkmetric.MeterProvider, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)), nil
}

// Shutdown flushes pending metrics. Safe on a nil receiver.
func (t *Telemetry) Shutdown(ctx context.Context, logger *slog.Logger) error {
	if t == nil || t.MeterProvider == nil {
		return nil
	}
	logger.Info("flushing metrics")
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}
