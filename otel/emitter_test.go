package otel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	petalotel "github.com/petal-labs/factorcount/otel"
	"github.com/petal-labs/factorcount/runtime"
)

func TestEnrichEmitter_WorkerEventUsesWorkerSpan(t *testing.T) {
	_, tp := newTestTracer()
	h := petalotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(runStarted("run-1", now))
	h.Handle(runtime.NewEvent(runtime.EventWorkerStarted, "run-1").WithWorker(1).WithTime(now))

	expectedSC := h.ActiveWorkerSpanContext("run-1", 1)
	if !expectedSC.IsValid() {
		t.Fatal("expected valid worker span context")
	}

	var received runtime.Event
	enriched := petalotel.EnrichEmitter(func(e runtime.Event) { received = e }, h)

	enriched(runtime.NewEvent(runtime.EventWorkerFinished, "run-1").WithWorker(1))

	if received.TraceID != expectedSC.TraceID().String() {
		t.Errorf("TraceID: got %q, want %q", received.TraceID, expectedSC.TraceID().String())
	}
	if received.SpanID != expectedSC.SpanID().String() {
		t.Errorf("SpanID: got %q, want %q", received.SpanID, expectedSC.SpanID().String())
	}
}

func TestEnrichEmitter_RunSpanFallback(t *testing.T) {
	_, tp := newTestTracer()
	h := petalotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(runStarted("run-1", now))

	expectedSC := h.ActiveRunSpanContext("run-1")
	if !expectedSC.IsValid() {
		t.Fatal("expected valid run span context")
	}

	var received runtime.Event
	enriched := petalotel.EnrichEmitter(func(e runtime.Event) { received = e }, h)

	// Worker 7 never started, so its event falls back to the run span.
	enriched(runtime.NewEvent(runtime.EventWorkerStarted, "run-1").WithWorker(7))
	if received.SpanID != expectedSC.SpanID().String() {
		t.Errorf("worker fallback SpanID: got %q, want %q", received.SpanID, expectedSC.SpanID().String())
	}

	enriched(runtime.NewEvent(runtime.EventMergeFinished, "run-1"))
	if received.TraceID != expectedSC.TraceID().String() {
		t.Errorf("TraceID: got %q, want %q", received.TraceID, expectedSC.TraceID().String())
	}
	if received.SpanID != expectedSC.SpanID().String() {
		t.Errorf("SpanID: got %q, want %q", received.SpanID, expectedSC.SpanID().String())
	}
}

func TestEnrichEmitter_PassthroughWhenNoSpanActive(t *testing.T) {
	_, tp := newTestTracer()
	h := petalotel.NewTracingHandler(tp.Tracer("test"))

	var received runtime.Event
	enriched := petalotel.EnrichEmitter(func(e runtime.Event) { received = e }, h)

	enriched(runtime.NewEvent(runtime.EventRunStarted, "run-no-span").WithPayload("bound", uint64(3)))

	if received.TraceID != "" {
		t.Errorf("expected empty TraceID, got %q", received.TraceID)
	}
	if received.SpanID != "" {
		t.Errorf("expected empty SpanID, got %q", received.SpanID)
	}
	if received.RunID != "run-no-span" || received.Kind != runtime.EventRunStarted {
		t.Errorf("event not forwarded unchanged: %+v", received)
	}
	if received.Payload["bound"] != uint64(3) {
		t.Errorf("payload not preserved: %v", received.Payload)
	}
}

func TestEnrichEmitter_AsRuntimeDecorator(t *testing.T) {
	_, tp := newTestTracer()
	tracing := petalotel.NewTracingHandler(tp.Tracer("test"))

	var mu sync.Mutex
	stamped := make(map[runtime.EventKind]bool)
	handler := runtime.MultiEventHandler(tracing.Handle, func(e runtime.Event) {
		mu.Lock()
		defer mu.Unlock()
		if e.TraceID != "" {
			stamped[e.Kind] = true
		}
	})

	_, err := runtime.NewRuntime().Run(context.Background(), runtime.RunOptions{
		Bound:        500,
		Workers:      2,
		EventHandler: handler,
		EventEmitterDecorator: func(emit runtime.EventEmitter) runtime.EventEmitter {
			return petalotel.EnrichEmitter(emit, tracing)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// run.started is stamped before its span exists; everything after carries a trace.
	for _, kind := range []runtime.EventKind{
		runtime.EventWorkerStarted,
		runtime.EventWorkerFinished,
		runtime.EventMergeFinished,
		runtime.EventRunFinished,
	} {
		if !stamped[kind] {
			t.Errorf("%s events were not stamped with a trace ID", kind)
		}
	}
	if stamped[runtime.EventRunStarted] {
		t.Error("run.started cannot carry a trace ID before its span exists")
	}
}
