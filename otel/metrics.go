package otel

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/petal-labs/factorcount/runtime"
)

// MetricsHandler translates factorcount runtime events into OpenTelemetry metrics.
// It records counters and histograms for worker throughput and run durations.
type MetricsHandler struct {
	numbersProcessed metric.Int64Counter
	workerRuns       metric.Int64Counter
	workerFailures   metric.Int64Counter
	workerDuration   metric.Float64Histogram
	runDuration      metric.Float64Histogram
}

// NewMetricsHandler creates a MetricsHandler that uses the given meter to create
// instruments for recording factorcount runtime metrics.
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	processed, err := meter.Int64Counter("factorcount.numbers.processed",
		metric.WithDescription("Number of integers factored"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("factorcount.worker.runs",
		metric.WithDescription("Number of workers that drained the cursor"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("factorcount.worker.failures",
		metric.WithDescription("Number of workers stopped before the cursor was drained"),
	)
	if err != nil {
		return nil, err
	}

	workerDur, err := meter.Float64Histogram("factorcount.worker.duration",
		metric.WithDescription("Duration of a worker's drain loop in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runDur, err := meter.Float64Histogram("factorcount.run.duration",
		metric.WithDescription("Duration of a factorcount run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{
		numbersProcessed: processed,
		workerRuns:       runs,
		workerFailures:   failures,
		workerDuration:   workerDur,
		runDuration:      runDur,
	}, nil
}

// Handle processes a runtime event and records the appropriate metrics.
// It implements runtime.EventHandler semantics.
func (h *MetricsHandler) Handle(e runtime.Event) {
	switch e.Kind {
	case runtime.EventWorkerFinished:
		h.handleWorkerFinished(e)
	case runtime.EventWorkerFailed:
		h.handleWorkerFailed(e)
	case runtime.EventRunFinished:
		h.handleRunFinished(e)
	}
}

// handleWorkerFinished adds the worker's throughput and records its duration.
func (h *MetricsHandler) handleWorkerFinished(e runtime.Event) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.Int("worker", e.WorkerID),
	)
	h.numbersProcessed.Add(ctx, processedCount(e), attrs)
	h.workerRuns.Add(ctx, 1, attrs)
	h.workerDuration.Record(ctx, e.Elapsed.Seconds(), attrs)
}

// handleWorkerFailed counts the partial work and the failure.
func (h *MetricsHandler) handleWorkerFailed(e runtime.Event) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.Int("worker", e.WorkerID),
	)
	h.numbersProcessed.Add(ctx, processedCount(e), attrs)
	h.workerFailures.Add(ctx, 1, attrs)
}

// handleRunFinished records the run duration.
func (h *MetricsHandler) handleRunFinished(e runtime.Event) {
	ctx := context.Background()
	status, _ := e.Payload["status"].(string)
	attrs := metric.WithAttributes(
		attribute.String("status", status),
	)
	h.runDuration.Record(ctx, e.Elapsed.Seconds(), attrs)
}

// processedCount reads the "processed" payload, clamped to the int64 range
// accepted by counters.
func processedCount(e runtime.Event) int64 {
	n, ok := e.Payload["processed"].(uint64)
	if !ok {
		return 0
	}
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
