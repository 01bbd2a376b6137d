// Package cli implements the factorcount command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/factorcount/config"
	"github.com/petal-labs/factorcount/core"
	"github.com/petal-labs/factorcount/runtime"
)

const defaultMax = "50000000"

// ErrBoundOverflow is returned when --max or the config max does not fit in 64 bits.
var ErrBoundOverflow = config.ErrBoundOverflow

// hardwareParallelism is replaced in tests to pin the reported CPU count.
var hardwareParallelism = runtime.HardwareParallelism

// NewRootCmd creates the factorcount command. The root command runs the
// count itself so that `factorcount -m 1000 -t 4 -o` works without a subcommand.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factorcount",
		Short: "Histogram integers by their prime factor count",
		Long: "factorcount factors every integer from 1 to --max across a pool of workers\n" +
			"sharing one counter, and reports how many integers have each factor count.",
		Args: cobra.ArbitraryArgs,
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		Version:      version,
		RunE:         runFactorCount,
	}
	cmd.SetVersionTemplate(fmt.Sprintf("factorcount version %s\n", version))

	cmd.Flags().StringP("max", "m", defaultMax, "Max number to factor")
	cmd.Flags().IntP("threads", "t", 0, "Number of worker threads (0: all hardware threads)")
	cmd.Flags().BoolP("show-output", "o", false, "Print the factor count histogram")
	cmd.Flags().String("format", config.FormatCSV, "Histogram format: csv | json | yaml")
	cmd.Flags().String("merge", string(core.MergeSum), "Merge policy for worker results: sum | overwrite")
	cmd.Flags().String("config", "", "Path to a factorcount.yaml run config")
	cmd.Flags().Bool("metrics", false, "Print collected metrics to stderr after the run")
	cmd.Flags().Bool("verbose", false, "Enable verbose/debug logging")
	cmd.Flags().Bool("quiet", false, "Suppress all output except errors and the histogram")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitError(exitInputParse, "%v", err)
	})
	return cmd
}

// settings is the resolved run configuration: defaults, then config file,
// then explicitly set flags.
type settings struct {
	bound      uint64
	threads    int
	hardware   int
	showOutput bool
	format     string
	merge      core.MergePolicy
	verbose    bool
	quiet      bool
	metrics    bool
}

func runFactorCount(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()
	for _, arg := range args {
		fmt.Fprintf(stderr, "Unknown positional argument %s\n", arg)
	}

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, s.verbose, s.quiet)

	if s.threads > s.hardware {
		fmt.Fprintf(stderr, "Your CPU has %d hardware threads, using %d threads may hurt performance\n", s.hardware, s.threads)
	}
	if !s.quiet {
		writeBanner(cmd.OutOrStdout(), s.hardware, s.threads, s.bound)
	}

	tel, err := newTelemetry()
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	defer func() {
		if err := tel.shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := runtime.NewRuntime().Run(ctx, runtime.RunOptions{
		Bound:                 s.bound,
		Workers:               s.threads,
		Merge:                 s.merge,
		EventHandler:          tel.handler(logEventHandler(logger)),
		EventEmitterDecorator: tel.decorator(),
	})
	if err != nil {
		return runRuntimeError(ctx, err)
	}

	if s.showOutput {
		if err := writeHistogram(cmd.OutOrStdout(), s.format, result.Histogram); err != nil {
			return exitError(exitRuntime, "writing histogram: %v", err)
		}
	}
	if s.metrics {
		if err := tel.writeSummary(ctx, stderr); err != nil {
			return exitError(exitRuntime, "%v", err)
		}
	}
	return nil
}

func runRuntimeError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, runtime.ErrRunCanceled) {
		return exitError(exitInterrupted, "interrupted: %w", err)
	}
	if errors.Is(err, runtime.ErrInvalidWorkers) {
		return exitError(exitValidation, "%w", err)
	}
	return exitError(exitRuntime, "execution failed: %w", err)
}

func resolveSettings(cmd *cobra.Command) (settings, error) {
	flags := cmd.Flags()

	s := settings{
		hardware: hardwareParallelism(),
		format:   config.FormatCSV,
		merge:    core.MergeSum,
	}
	s.bound, _ = strconv.ParseUint(defaultMax, 10, 64)
	s.verbose, _ = flags.GetBool("verbose")
	s.quiet, _ = flags.GetBool("quiet")
	s.metrics, _ = flags.GetBool("metrics")

	configPath, _ := flags.GetString("config")
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return settings{}, err
	}
	if cfg.Max != nil {
		s.bound = uint64(*cfg.Max)
	}
	if cfg.Threads != nil {
		s.threads = *cfg.Threads
	}
	if cfg.ShowOutput != nil {
		s.showOutput = *cfg.ShowOutput
	}
	if cfg.Format != "" {
		s.format = cfg.Format
	}
	mergeName := cfg.Merge

	if flags.Changed("max") {
		raw, _ := flags.GetString("max")
		bound, err := parseBound(raw)
		if err != nil {
			return settings{}, err
		}
		s.bound = bound
	}
	if flags.Changed("threads") {
		s.threads, _ = flags.GetInt("threads")
	}
	if flags.Changed("show-output") {
		s.showOutput, _ = flags.GetBool("show-output")
	}
	if flags.Changed("format") {
		s.format, _ = flags.GetString("format")
	}
	if flags.Changed("merge") {
		mergeName, _ = flags.GetString("merge")
	}

	if s.threads < 0 {
		return settings{}, exitError(exitValidation, "threads must not be negative, got %d", s.threads)
	}
	if s.threads == 0 {
		s.threads = s.hardware
	}
	s.format = strings.ToLower(strings.TrimSpace(s.format))
	if err := config.ValidateFormat(s.format); err != nil {
		return settings{}, exitError(exitValidation, "%v", err)
	}
	if mergeName != "" {
		policy, err := core.ParseMergePolicy(mergeName)
		if err != nil {
			return settings{}, exitError(exitValidation, "%v", err)
		}
		s.merge = policy
	}
	return s, nil
}

// loadRunConfig discovers and loads the run config. No config is not an error.
func loadRunConfig(explicitPath string) (config.RunConfig, error) {
	path, found, err := config.DiscoverPath(explicitPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return config.RunConfig{}, exitError(exitFileNotFound, "%w", err)
		}
		return config.RunConfig{}, exitError(exitValidation, "%w", err)
	}
	if !found {
		return config.RunConfig{}, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return config.RunConfig{}, exitError(exitFileNotFound, "%w", err)
		}
		if errors.Is(err, config.ErrBoundOverflow) {
			return config.RunConfig{}, exitError(exitOverflow, "%w", err)
		}
		return config.RunConfig{}, exitError(exitValidation, "%w", err)
	}
	return cfg, nil
}

// parseBound parses --max. Values beyond uint64 map to ErrBoundOverflow.
func parseBound(raw string) (uint64, error) {
	bound, err := config.ParseBound(raw)
	if err == nil {
		return bound, nil
	}
	if errors.Is(err, config.ErrBoundOverflow) {
		return 0, exitError(exitOverflow, "%w", err)
	}
	return 0, exitError(exitInputParse, "invalid value %q for --max: expected a non-negative integer", raw)
}
