package runtime

import (
	"context"
	"time"

	"github.com/petal-labs/factorcount/core"
	"github.com/petal-labs/factorcount/factor"
)

// cancelCheckInterval is how many numbers a worker factors between context checks.
const cancelCheckInterval = 4096

// worker drains a shared cursor into a histogram it owns exclusively.
type worker struct {
	id     int
	runID  string
	cursor *Cursor
	emit   EventEmitter
	now    func() time.Time
}

// run loops until the cursor is exhausted (DONE) or ctx is canceled.
func (w *worker) run(ctx context.Context) (core.Histogram, WorkerStats, error) {
	local := make(core.Histogram)
	stats := WorkerStats{ID: w.id}

	start := w.now()
	w.emit(NewEvent(EventWorkerStarted, w.runID).WithWorker(w.id).WithTime(start))

	for {
		if stats.Processed%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				stats.Elapsed = w.now().Sub(start)
				w.emit(NewEvent(EventWorkerFailed, w.runID).
					WithWorker(w.id).
					WithTime(start.Add(stats.Elapsed)).
					WithElapsed(stats.Elapsed).
					WithPayload("processed", stats.Processed).
					WithPayload("error", err.Error()))
				return local, stats, err
			}
		}

		n := w.cursor.Next()
		if n == 0 {
			break
		}
		local.Add(factor.Count(n))
		stats.Processed++
	}

	stats.Elapsed = w.now().Sub(start)
	w.emit(NewEvent(EventWorkerFinished, w.runID).
		WithWorker(w.id).
		WithTime(start.Add(stats.Elapsed)).
		WithElapsed(stats.Elapsed).
		WithPayload("processed", stats.Processed).
		WithPayload("keys", len(local)))
	return local, stats, nil
}
