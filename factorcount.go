// Package factorcount histograms the integers 1..N by their prime factor count,
// spreading the work across a pool of workers that share one counter.
//
// This file re-exports the commonly used types and constructors from the
// core, factor, and runtime subpackages so callers can depend on a single
// import:
//
//	import "github.com/petal-labs/factorcount"
//
//	res, err := factorcount.Count(ctx, 1_000_000, 8)
package factorcount

import (
	"context"

	"github.com/petal-labs/factorcount/core"
	"github.com/petal-labs/factorcount/factor"
	"github.com/petal-labs/factorcount/runtime"
)

// Type aliases from core package
type (
	// Histogram maps a factor count to the number of integers that produced it.
	Histogram = core.Histogram

	// Pair is a single sorted histogram entry.
	Pair = core.Pair

	// MergePolicy decides how per-worker histograms are combined.
	MergePolicy = core.MergePolicy
)

// Merge policies
const (
	MergeSum       = core.MergeSum
	MergeOverwrite = core.MergeOverwrite
)

// Type aliases from runtime package
type (
	RunOptions   = runtime.RunOptions
	Result       = runtime.Result
	WorkerStats  = runtime.WorkerStats
	Event        = runtime.Event
	EventKind    = runtime.EventKind
	EventHandler = runtime.EventHandler
)

// Runtime errors
var (
	ErrInvalidWorkers = runtime.ErrInvalidWorkers
	ErrRunCanceled    = runtime.ErrRunCanceled
)

// FactorCount returns the factor count of n using the offset convention
// (every count starts at factor.Base).
func FactorCount(n uint64) uint64 {
	return factor.Count(n)
}

// DefaultRunOptions returns the default bound, hardware worker count and sum merge.
func DefaultRunOptions() RunOptions {
	return runtime.DefaultRunOptions()
}

// Count runs bound integers across workers with default options otherwise.
// workers <= 0 selects the hardware parallelism.
func Count(ctx context.Context, bound uint64, workers int) (*Result, error) {
	opts := DefaultRunOptions()
	opts.Bound = bound
	if workers > 0 {
		opts.Workers = workers
	}
	return RunWithOptions(ctx, opts)
}

// RunWithOptions is a convenience function to execute a run with custom options.
func RunWithOptions(ctx context.Context, opts RunOptions) (*Result, error) {
	return runtime.NewRuntime().Run(ctx, opts)
}

// RunWithHandler is a convenience function to execute a run with an event handler.
func RunWithHandler(ctx context.Context, bound uint64, handler EventHandler) (*Result, error) {
	opts := DefaultRunOptions()
	opts.Bound = bound
	opts.EventHandler = handler
	return RunWithOptions(ctx, opts)
}
