package cli

import (
	"io"
	"log/slog"

	"github.com/petal-labs/factorcount/runtime"
)

// newLogger builds the stderr logger. quiet wins over verbose.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logEventHandler reports runtime lifecycle events through logger.
func logEventHandler(logger *slog.Logger) runtime.EventHandler {
	return func(e runtime.Event) {
		switch e.Kind {
		case runtime.EventWorkerStarted:
			logger.Debug("worker started", "run_id", e.RunID, "worker", e.WorkerID)
		case runtime.EventWorkerFinished:
			logger.Debug("worker finished",
				"run_id", e.RunID,
				"worker", e.WorkerID,
				"processed", e.Payload["processed"],
				"keys", e.Payload["keys"],
				"elapsed", e.Elapsed,
			)
		case runtime.EventWorkerFailed:
			logger.Warn("worker stopped early",
				"run_id", e.RunID,
				"worker", e.WorkerID,
				"error", e.Payload["error"],
			)
		case runtime.EventRunFinished:
			attrs := []any{
				"run_id", e.RunID,
				"status", e.Payload["status"],
				"elapsed", e.Elapsed,
			}
			if e.TraceID != "" {
				attrs = append(attrs, "trace_id", e.TraceID)
			}
			if errMsg, ok := e.Payload["error"]; ok {
				logger.Error("run finished", append(attrs, "error", errMsg)...)
				return
			}
			logger.Info("run finished", attrs...)
		}
	}
}
