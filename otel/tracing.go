// Package otel provides OpenTelemetry integration for factorcount runtime events.
package otel

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/factorcount/runtime"
)

// TracingHandler translates factorcount runtime events into OpenTelemetry spans.
// It keeps one root span per run and one child span per worker, creating and
// ending them based on event kind.
type TracingHandler struct {
	tracer trace.Tracer

	mu          sync.RWMutex
	runSpans    map[string]trace.Span      // runID -> span
	runCtxs     map[string]context.Context // runID -> context (for child spans)
	workerSpans map[string]trace.Span      // runID:workerID -> span
}

// NewTracingHandler creates a new TracingHandler that uses the given tracer
// to create spans from runtime events.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:      tracer,
		runSpans:    make(map[string]trace.Span),
		runCtxs:     make(map[string]context.Context),
		workerSpans: make(map[string]trace.Span),
	}
}

// Handle processes a runtime event and creates or ends spans accordingly.
// It implements runtime.EventHandler semantics and is safe for concurrent use.
func (h *TracingHandler) Handle(e runtime.Event) {
	switch e.Kind {
	case runtime.EventRunStarted:
		h.handleRunStarted(e)
	case runtime.EventWorkerStarted:
		h.handleWorkerStarted(e)
	case runtime.EventWorkerFinished:
		h.handleWorkerFinished(e)
	case runtime.EventWorkerFailed:
		h.handleWorkerFailed(e)
	case runtime.EventMergeFinished:
		h.handleMergeFinished(e)
	case runtime.EventRunFinished:
		h.handleRunFinished(e)
	}
}

func workerKey(runID string, workerID int) string {
	return runID + ":" + strconv.Itoa(workerID)
}

// handleRunStarted creates a root span for the run.
func (h *TracingHandler) handleRunStarted(e runtime.Event) {
	ctx, span := h.tracer.Start(context.Background(), "run:"+e.RunID,
		trace.WithAttributes(
			attribute.String("factorcount.run_id", e.RunID),
		),
		trace.WithTimestamp(e.Time),
	)

	if bound, ok := e.Payload["bound"].(uint64); ok {
		span.SetAttributes(attribute.String("factorcount.bound", strconv.FormatUint(bound, 10)))
	}
	if workers, ok := e.Payload["workers"].(int); ok {
		span.SetAttributes(attribute.Int("factorcount.workers", workers))
	}
	if merge, ok := e.Payload["merge"].(string); ok {
		span.SetAttributes(attribute.String("factorcount.merge", merge))
	}

	h.mu.Lock()
	h.runSpans[e.RunID] = span
	h.runCtxs[e.RunID] = ctx
	h.mu.Unlock()
}

// handleWorkerStarted creates a child span under the run span.
func (h *TracingHandler) handleWorkerStarted(e runtime.Event) {
	h.mu.RLock()
	parentCtx, ok := h.runCtxs[e.RunID]
	h.mu.RUnlock()

	if !ok {
		// No parent run span; start from background context.
		parentCtx = context.Background()
	}

	_, span := h.tracer.Start(parentCtx, "worker:"+strconv.Itoa(e.WorkerID),
		trace.WithAttributes(
			attribute.String("factorcount.run_id", e.RunID),
			attribute.Int("factorcount.worker", e.WorkerID),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.workerSpans[workerKey(e.RunID, e.WorkerID)] = span
	h.mu.Unlock()
}

// takeWorkerSpan removes and returns the worker span for e.
func (h *TracingHandler) takeWorkerSpan(e runtime.Event) (trace.Span, bool) {
	key := workerKey(e.RunID, e.WorkerID)

	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.workerSpans[key]
	if ok {
		delete(h.workerSpans, key)
	}
	return span, ok
}

// handleWorkerFinished ends the worker span with success status.
func (h *TracingHandler) handleWorkerFinished(e runtime.Event) {
	span, ok := h.takeWorkerSpan(e)
	if !ok {
		return
	}
	if processed, found := e.Payload["processed"].(uint64); found {
		span.SetAttributes(attribute.String("factorcount.processed", strconv.FormatUint(processed, 10)))
	}
	span.SetAttributes(
		attribute.String("factorcount.duration", e.Elapsed.String()),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(e.Time))
}

// handleWorkerFailed ends the worker span with error status.
func (h *TracingHandler) handleWorkerFailed(e runtime.Event) {
	span, ok := h.takeWorkerSpan(e)
	if !ok {
		return
	}
	errMsg := payloadString(e, "error", "unknown error")
	span.SetStatus(codes.Error, errMsg)
	span.RecordError(
		spanError(errMsg),
		trace.WithTimestamp(e.Time),
	)
	span.End(trace.WithTimestamp(e.Time))
}

// handleMergeFinished adds a span event for the merge on the run span.
func (h *TracingHandler) handleMergeFinished(e runtime.Event) {
	h.mu.RLock()
	span, ok := h.runSpans[e.RunID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("factorcount.event_kind", string(e.Kind)),
	}
	if keys, found := e.Payload["keys"].(int); found {
		attrs = append(attrs, attribute.Int("factorcount.keys", keys))
	}

	span.AddEvent(string(e.Kind), trace.WithTimestamp(e.Time), trace.WithAttributes(attrs...))
}

// handleRunFinished ends the root run span.
func (h *TracingHandler) handleRunFinished(e runtime.Event) {
	h.mu.Lock()
	span, ok := h.runSpans[e.RunID]
	if ok {
		delete(h.runSpans, e.RunID)
		delete(h.runCtxs, e.RunID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	status := payloadString(e, "status", "")
	span.SetAttributes(
		attribute.String("factorcount.duration", e.Elapsed.String()),
		attribute.String("factorcount.status", status),
	)

	if status == "failed" {
		span.SetStatus(codes.Error, payloadString(e, "error", "run failed"))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(e.Time))
}

// ActiveWorkerSpanContext returns the SpanContext for the active worker span
// identified by runID and workerID. Returns an empty SpanContext if not found.
func (h *TracingHandler) ActiveWorkerSpanContext(runID string, workerID int) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.workerSpans[workerKey(runID, workerID)]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

// ActiveRunSpanContext returns the SpanContext for the active run span
// identified by runID. Returns an empty SpanContext if not found.
func (h *TracingHandler) ActiveRunSpanContext(runID string) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.runSpans[runID]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

func payloadString(e runtime.Event, key, fallback string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return fallback
}

// spanError is a simple error type for recording span errors.
type spanError string

func (e spanError) Error() string { return string(e) }
