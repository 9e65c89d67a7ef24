package metrics

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DatabaseMetrics records query latency and errors per (operation, table) and observes
// the connection pool once a *sql.DB is registered.
type DatabaseMetrics struct {
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter

	poolOpen  metric.Int64ObservableGauge
	poolIdle  metric.Int64ObservableGauge
	poolInUse metric.Int64ObservableGauge
}

func NewDatabaseMetrics(meter metric.Meter) (*DatabaseMetrics, error) {
	dm := &DatabaseMetrics{}

	var err error
	if dm.queryDuration, err = durationHistogram(meter, "db.query.duration", "Database query duration"); err != nil {
		return nil, err
	}
	if dm.queryErrors, err = meter.Int64Counter("db.query.errors",
		metric.WithDescription("Database query errors"), metric.WithUnit("{error}")); err != nil {
		return nil, err
	}

	gauges := []struct {
		dst         *metric.Int64ObservableGauge
		name        string
		description string
	}{
		{&dm.poolOpen, "db.connections.open", "Open database connections"},
		{&dm.poolIdle, "db.connections.idle", "Idle database connections"},
		{&dm.poolInUse, "db.connections.in_use", "Database connections in use"},
	}
	for _, g := range gauges {
		*g.dst, err = meter.Int64ObservableGauge(g.name, metric.WithDescription(g.description), metric.WithUnit("{connection}"))
		if err != nil {
			return nil, err
		}
	}

	return dm, nil
}

// RegisterDB reports pool stats of pool on every collection.
func (dm *DatabaseMetrics) RegisterDB(pool *sql.DB, meter metric.Meter) error {
	if dm == nil || dm.poolOpen == nil || pool == nil {
		return nil
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := pool.Stats()
		o.ObserveInt64(dm.poolOpen, int64(stats.OpenConnections))
		o.ObserveInt64(dm.poolIdle, int64(stats.Idle))
		o.ObserveInt64(dm.poolInUse, int64(stats.InUse))
		return nil
	}, dm.poolOpen, dm.poolIdle, dm.poolInUse)
	return err
}

func (dm *DatabaseMetrics) RecordQuery(ctx context.Context, operation string, table string, duration time.Duration, err error) {
	if dm == nil || dm.queryDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
	)
	dm.queryDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		dm.queryErrors.Add(ctx, 1, attrs)
	}
}
