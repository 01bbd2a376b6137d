package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/factorcount/core"
)

// Runtime errors
var (
	ErrInvalidWorkers = errors.New("worker count must be at least 1")
	ErrRunCanceled    = errors.New("run was canceled")
)

// Runtime executes factor-count runs and emits events.
type Runtime interface {
	// Run factors every integer in [1, opts.Bound] and returns the merged histogram.
	Run(ctx context.Context, opts RunOptions) (*Result, error)
}

// RunOptions controls execution behavior.
type RunOptions struct {
	// Bound is the inclusive upper limit of integers to examine.
	Bound uint64

	// Workers is the number of goroutines draining the cursor (default: hardware parallelism).
	Workers int

	// Merge selects how local histograms are combined (default: MergeSum).
	Merge core.MergePolicy

	// Now provides the current time (for testing). If nil, uses time.Now.
	Now func() time.Time

	// EventHandler receives events during execution.
	EventHandler EventHandler

	// EventEmitterDecorator wraps the internal event emitter.
	// If nil, events are emitted without decoration.
	EventEmitterDecorator EventEmitterDecorator
}

// DefaultRunOptions returns sensible default options.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Bound:   50_000_000,
		Workers: HardwareParallelism(),
		Merge:   core.MergeSum,
	}
}

// WorkerStats describes what one worker did during a run.
type WorkerStats struct {
	ID        int
	Processed uint64
	Elapsed   time.Duration
}

// Result is the outcome of a completed run.
type Result struct {
	RunID     string
	Bound     uint64
	Workers   int
	Merge     core.MergePolicy
	Histogram core.Histogram
	Stats     []WorkerStats
	Elapsed   time.Duration
}

// BasicRuntime runs a fixed pool of workers over one shared cursor.
type BasicRuntime struct{}

// NewRuntime creates a new runtime instance.
func NewRuntime() *BasicRuntime {
	return &BasicRuntime{}
}

// Run spawns opts.Workers workers sharing one Cursor, waits for all of them,
// and merges their local histograms in worker order.
func (r *BasicRuntime) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, opts.Workers)
	}
	if opts.Merge == "" {
		opts.Merge = core.MergeSum
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	runID := uuid.New().String()

	seq := newSeqGen()
	emit := func(e Event) {
		e.Seq = seq.Next()
		if opts.EventHandler != nil {
			opts.EventHandler(e)
		}
	}
	if opts.EventEmitterDecorator != nil {
		emit = opts.EventEmitterDecorator(emit)
	}

	runStart := opts.Now()
	emit(NewEvent(EventRunStarted, runID).
		WithTime(runStart).
		WithPayload("bound", opts.Bound).
		WithPayload("workers", opts.Workers).
		WithPayload("merge", opts.Merge.String()))

	locals, stats, err := r.runWorkers(ctx, runID, opts, emit)

	result := &Result{
		RunID:   runID,
		Bound:   opts.Bound,
		Workers: opts.Workers,
		Merge:   opts.Merge,
		Stats:   stats,
	}
	if err == nil {
		result.Histogram = core.Merge(opts.Merge, locals...)
		emit(NewEvent(EventMergeFinished, runID).
			WithTime(opts.Now()).
			WithPayload("keys", len(result.Histogram)).
			WithPayload("total", result.Histogram.Total()))
	}

	finishedAt := opts.Now()
	result.Elapsed = finishedAt.Sub(runStart)
	finishEvent := NewEvent(EventRunFinished, runID).
		WithTime(finishedAt).
		WithElapsed(result.Elapsed)
	if err != nil {
		finishEvent = finishEvent.
			WithPayload("status", "failed").
			WithPayload("error", err.Error())
	} else {
		finishEvent = finishEvent.
			WithPayload("status", "completed")
	}
	emit(finishEvent)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// runWorkers is the join barrier: it returns only after every worker has
// stopped, so the returned histograms are no longer being written.
func (r *BasicRuntime) runWorkers(ctx context.Context, runID string, opts RunOptions, emit EventEmitter) ([]core.Histogram, []WorkerStats, error) {
	cursor := NewCursor(opts.Bound)
	locals := make([]core.Histogram, opts.Workers)
	stats := make([]WorkerStats, opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Workers; i++ {
		w := &worker{
			id:     i,
			runID:  runID,
			cursor: cursor,
			emit:   emit,
			now:    opts.Now,
		}
		g.Go(func() error {
			hist, st, err := w.run(gctx)
			locals[w.id] = hist
			stats[w.id] = st
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, stats, fmt.Errorf("%w: %v", ErrRunCanceled, err)
		}
		return nil, stats, err
	}
	return locals, stats, nil
}

// seqGen produces monotonically increasing event sequence numbers for a single run.
type seqGen struct {
	counter atomic.Uint64
}

func newSeqGen() *seqGen {
	return &seqGen{}
}

// Next returns the next sequence number (1-indexed).
func (s *seqGen) Next() uint64 {
	return s.counter.Add(1)
}

// Ensure interface compliance at compile time.
var _ Runtime = (*BasicRuntime)(nil)
