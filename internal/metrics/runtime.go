package metrics

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics observes the Go runtime and process uptime on every collection.
type RuntimeMetrics struct {
	goroutines  metric.Int64ObservableGauge
	heapAlloc   metric.Int64ObservableGauge
	heapObjects metric.Int64ObservableGauge
	gcCount     metric.Int64ObservableCounter
	uptime      metric.Float64ObservableCounter
	startTime   time.Time
}

func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	rm := &RuntimeMetrics{startTime: time.Now()}

	var err error
	if rm.goroutines, err = meter.Int64ObservableGauge("runtime.go.goroutines",
		metric.WithDescription("Number of goroutines"), metric.WithUnit("{goroutine}")); err != nil {
		return nil, err
	}
	if rm.heapAlloc, err = meter.Int64ObservableGauge("runtime.go.mem.heap_alloc",
		metric.WithDescription("Bytes of allocated heap objects"), metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if rm.heapObjects, err = meter.Int64ObservableGauge("runtime.go.mem.heap_objects",
		metric.WithDescription("Number of allocated heap objects"), metric.WithUnit("{object}")); err != nil {
		return nil, err
	}
	if rm.gcCount, err = meter.Int64ObservableCounter("runtime.go.gc.count",
		metric.WithDescription("Number of completed GC cycles"), metric.WithUnit("{gc}")); err != nil {
		return nil, err
	}
	if rm.uptime, err = meter.Float64ObservableCounter("service.uptime",
		metric.WithDescription("Service uptime in seconds"), metric.WithUnit("s")); err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(rm.observe, rm.goroutines, rm.heapAlloc, rm.heapObjects, rm.gcCount, rm.uptime)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (rm *RuntimeMetrics) observe(_ context.Context, o metric.Observer) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	o.ObserveInt64(rm.goroutines, int64(runtime.NumGoroutine()))
	o.ObserveInt64(rm.heapAlloc, int64(mem.HeapAlloc))
	o.ObserveInt64(rm.heapObjects, int64(mem.HeapObjects))
	o.ObserveInt64(rm.gcCount, int64(mem.NumGC))
	o.ObserveFloat64(rm.uptime, time.Since(rm.startTime).Seconds())
	return nil
}
