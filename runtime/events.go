// Package runtime provides the execution engine for factorcount runs.
package runtime

import (
	"time"
)

// EventKind identifies the type of event emitted by the runtime.
type EventKind string

const (
	// EventRunStarted is emitted before any worker is spawned.
	EventRunStarted EventKind = "run.started"

	// EventWorkerStarted is emitted by a worker before it pulls its first number.
	EventWorkerStarted EventKind = "worker.started"

	// EventWorkerFinished is emitted when a worker has drained the cursor.
	EventWorkerFinished EventKind = "worker.finished"

	// EventWorkerFailed is emitted when a worker stops early because the
	// run context was canceled.
	EventWorkerFailed EventKind = "worker.failed"

	// EventMergeFinished is emitted once the local histograms are merged.
	EventMergeFinished EventKind = "merge.finished"

	// EventRunFinished is emitted when a run completes or fails.
	EventRunFinished EventKind = "run.finished"
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// NoWorker is the WorkerID of run-level events.
const NoWorker = -1

// Event is a structured record of what happened during a run.
type Event struct {
	// Kind identifies the event type.
	Kind EventKind

	// RunID is the unique identifier for this run.
	RunID string

	// WorkerID is the zero-based worker index, or NoWorker for run-level events.
	WorkerID int

	// Time is when the event occurred.
	Time time.Time

	// Elapsed is the duration since the run or worker started.
	Elapsed time.Duration

	// Payload contains event-specific data.
	Payload map[string]any

	// Seq is a monotonic sequence number per run (1-indexed).
	Seq uint64

	// TraceID is the OpenTelemetry trace ID (hex-encoded, empty when OTel inactive).
	TraceID string

	// SpanID is the OpenTelemetry span ID (hex-encoded, empty when OTel inactive).
	SpanID string
}

// NewEvent creates a new run-level event with the current timestamp.
func NewEvent(kind EventKind, runID string) Event {
	return Event{
		Kind:     kind,
		RunID:    runID,
		WorkerID: NoWorker,
		Time:     time.Now(),
		Payload:  make(map[string]any),
	}
}

// WithWorker sets the worker index on the event.
func (e Event) WithWorker(workerID int) Event {
	e.WorkerID = workerID
	return e
}

// WithTime overrides the event timestamp.
func (e Event) WithTime(t time.Time) Event {
	e.Time = t
	return e
}

// WithElapsed sets the elapsed duration on the event.
func (e Event) WithElapsed(elapsed time.Duration) Event {
	e.Elapsed = elapsed
	return e
}

// WithPayload adds a key-value pair to the event payload.
func (e Event) WithPayload(key string, value any) Event {
	if e.Payload == nil {
		e.Payload = make(map[string]any)
	}
	e.Payload[key] = value
	return e
}

// IsWorkerEvent reports whether the event belongs to a single worker.
func (e Event) IsWorkerEvent() bool {
	return e.WorkerID != NoWorker
}

// EventEmitter is a function type for emitting events.
type EventEmitter func(Event)

// EventEmitterDecorator wraps an emitter to add cross-cutting behavior.
// Typical uses include enriching emitted events (for example with trace metadata).
type EventEmitterDecorator func(EventEmitter) EventEmitter

// EventHandler is a function type for handling events.
// Handlers are called from worker goroutines and must be safe for concurrent use.
type EventHandler func(Event)

// MultiEventHandler combines multiple handlers into one.
func MultiEventHandler(handlers ...EventHandler) EventHandler {
	return func(e Event) {
		for _, h := range handlers {
			if h != nil {
				h(e)
			}
		}
	}
}
