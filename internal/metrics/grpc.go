package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// GrpcMetrics instruments the gRPC health server.
type GrpcMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	errorsTotal     metric.Int64Counter
}

func NewGrpcMetrics(meter metric.Meter) (*GrpcMetrics, error) {
	gm := &GrpcMetrics{}

	var err error
	if gm.requestDuration, err = durationHistogram(meter, "grpc.server.request_duration", "gRPC request duration"); err != nil {
		return nil, err
	}
	if gm.requestsTotal, err = meter.Int64Counter("grpc.server.requests_total",
		metric.WithDescription("Handled gRPC requests"), metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if gm.errorsTotal, err = meter.Int64Counter("grpc.server.errors_total",
		metric.WithDescription("gRPC requests that ended with a non-OK code"), metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	return gm, nil
}

func (gm *GrpcMetrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if gm != nil && gm.requestDuration != nil {
			service, method := splitMethodName(info.FullMethod)
			code := status.Code(err)
			attrs := metric.WithAttributes(
				attribute.String("grpc_service", service),
				attribute.String("grpc_method", method),
				attribute.String("grpc_code", code.String()),
			)

			gm.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			gm.requestsTotal.Add(ctx, 1, attrs)
			if err != nil {
				gm.errorsTotal.Add(ctx, 1, attrs)
			}
		}
		return resp, err
	}
}

// splitMethodName turns "/grpc.health.v1.Health/Check" into ("grpc.health.v1.Health", "Check").
func splitMethodName(fullMethod string) (service, method string) {
	service, method, ok := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	if !ok {
		return "unknown", service
	}
	return service, method
}
