package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	petalotel "github.com/petal-labs/factorcount/otel"
	"github.com/petal-labs/factorcount/runtime"
)

const instrumentationName = "github.com/petal-labs/factorcount"

// telemetry holds the in-process OpenTelemetry pipeline for one command run.
// Nothing is exported over the network; metrics are read back on demand.
type telemetry struct {
	reader         *sdkmetric.ManualReader
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider

	metrics *petalotel.MetricsHandler
	tracing *petalotel.TracingHandler
}

func newTelemetry() (*telemetry, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	tp := sdktrace.NewTracerProvider()

	metrics, err := petalotel.NewMetricsHandler(mp.Meter(instrumentationName))
	if err != nil {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
		return nil, fmt.Errorf("creating metrics handler: %w", err)
	}

	return &telemetry{
		reader:         reader,
		meterProvider:  mp,
		tracerProvider: tp,
		metrics:        metrics,
		tracing:        petalotel.NewTracingHandler(tp.Tracer(instrumentationName)),
	}, nil
}

// handler fans events out to the tracing and metrics handlers.
// Tracing runs first so spans exist before anything downstream reads them.
func (t *telemetry) handler(extra ...runtime.EventHandler) runtime.EventHandler {
	handlers := append([]runtime.EventHandler{t.tracing.Handle, t.metrics.Handle}, extra...)
	return runtime.MultiEventHandler(handlers...)
}

// decorator stamps trace context onto every emitted event.
func (t *telemetry) decorator() runtime.EventEmitterDecorator {
	return func(emit runtime.EventEmitter) runtime.EventEmitter {
		return petalotel.EnrichEmitter(emit, t.tracing)
	}
}

// writeSummary collects the current metrics and prints one line per instrument.
func (t *telemetry) writeSummary(ctx context.Context, w io.Writer) error {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}

	var lines []string
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				lines = append(lines, fmt.Sprintf("%s total=%d", m.Name, total))
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%.6f%s", m.Name, count, sum, m.Unit))
			}
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

func (t *telemetry) shutdown(ctx context.Context) error {
	return errors.Join(
		t.meterProvider.Shutdown(ctx),
		t.tracerProvider.Shutdown(ctx),
	)
}
