package otel

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/factorcount/runtime"
)

// EnrichEmitter returns an emitter that copies the owning span's trace and
// span IDs onto each event before forwarding it. Events emitted while no
// span is open are forwarded as is.
func EnrichEmitter(emit runtime.EventEmitter, tracing *TracingHandler) runtime.EventEmitter {
	return func(e runtime.Event) {
		if sc := tracing.owningSpan(e); sc.IsValid() {
			e.TraceID = sc.TraceID().String()
			e.SpanID = sc.SpanID().String()
		}
		emit(e)
	}
}

// owningSpan returns the worker span for worker events that have one open,
// otherwise the run span.
func (h *TracingHandler) owningSpan(e runtime.Event) trace.SpanContext {
	if e.IsWorkerEvent() {
		if sc := h.ActiveWorkerSpanContext(e.RunID, e.WorkerID); sc.IsValid() {
			return sc
		}
	}
	return h.ActiveRunSpanContext(e.RunID)
}
