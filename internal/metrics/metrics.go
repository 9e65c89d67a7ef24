package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the infrastructure collectors with the marketplace's business counters.
type Metrics struct {
	Database     *DatabaseMetrics
	Messaging    *MessagingMetrics
	Dependencies *DependencyMetrics
	Grpc         *GrpcMetrics
	Runtime      *RuntimeMetrics

	registrations         metric.Int64Counter
	logins                metric.Int64Counter
	sessionsCreated       metric.Int64Counter
	sessionStatusChanges  metric.Int64Counter
	bookingsCreated       metric.Int64Counter
	duplicateBookingsSeen metric.Int64Counter
}

func New(serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	messaging, err := NewMessagingMetrics(meter)
	if err != nil {
		return nil, err
	}

	dependencies, err := NewDependencyMetrics(meter)
	if err != nil {
		return nil, err
	}

	grpcMetrics, err := NewGrpcMetrics(meter)
	if err != nil {
		return nil, err
	}

	runtimeMetrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		Database:     database,
		Messaging:    messaging,
		Dependencies: dependencies,
		Grpc:         grpcMetrics,
		Runtime:      runtimeMetrics,
	}

	counters := []struct {
		dst         *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.registrations, "tutoring.users.registered", "Total number of users registered", "{user}"},
		{&m.logins, "tutoring.users.logins", "Total number of recorded logins", "{login}"},
		{&m.sessionsCreated, "tutoring.sessions.created", "Total number of study sessions created", "{session}"},
		{&m.sessionStatusChanges, "tutoring.sessions.status_changes", "Total number of session status changes", "{change}"},
		{&m.bookingsCreated, "tutoring.bookings.created", "Total number of bookings created", "{booking}"},
		{&m.duplicateBookingsSeen, "tutoring.bookings.duplicates", "Total number of rejected duplicate bookings", "{booking}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}

	logger.Info("metrics collectors initialized successfully")

	return m, nil
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database:     &DatabaseMetrics{},
		Messaging:    &MessagingMetrics{},
		Dependencies: &DependencyMetrics{},
		Grpc:         &GrpcMetrics{},
	}
}

func (m *Metrics) RecordRegistration(ctx context.Context, source string) {
	if m != nil && m.registrations != nil {
		m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
}

func (m *Metrics) RecordLogin(ctx context.Context, event string) {
	if m != nil && m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}
}

func (m *Metrics) RecordSessionCreated(ctx context.Context) {
	if m != nil && m.sessionsCreated != nil {
		m.sessionsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordSessionStatusChange(ctx context.Context, status string) {
	if m != nil && m.sessionStatusChanges != nil {
		m.sessionStatusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (m *Metrics) RecordBookingCreated(ctx context.Context) {
	if m != nil && m.bookingsCreated != nil {
		m.bookingsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordDuplicateBooking(ctx context.Context) {
	if m != nil && m.duplicateBookingsSeen != nil {
		m.duplicateBookingsSeen.Add(ctx, 1)
	}
}

// latencyBuckets spans 1ms to 10s.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

func durationHistogram(meter metric.Meter, name, description string) (metric.Float64Histogram, error) {
	return meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
}
