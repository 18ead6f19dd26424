package mainthread

import (
	"io"
	"log/slog"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mainthread/metrics"
)

// config holds Dispatcher configuration.
type config struct {
	// ItemsBufferSize defines the size of the work items conduit buffer.
	// Producers block on Post once the buffer is full.
	// Default: 0 (unbuffered, every Post is a rendezvous with the loop)
	ItemsBufferSize uint

	// StopOnError terminates the loop on the first failed work item.
	// Default: false (failures are collected and returned by Run)
	StopOnError bool

	// LockOSThread wires the loop goroutine to its OS thread for the
	// whole Run/Loop call.
	// Default: false
	LockOSThread bool

	// Logger receives loop diagnostics.
	// Default: discards everything.
	Logger *slog.Logger

	// Metrics records dispatch instruments.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		ItemsBufferSize: 0,     // rendezvous
		StopOnError:     false, // collect and continue
		LockOSThread:    false,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:         metrics.NewNoopProvider(),
	}
}

// validateConfig performs lightweight invariants checks.
func validateConfig(cfg *config) error {
	if cfg.Logger == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("logger", "must not be nil"))
	}
	if cfg.Metrics == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("metrics", "must not be nil"))
	}
	return nil
}

// Option configures a Dispatcher. Use New(opts...) to construct it.
type Option func(*config) error

// WithItemsBuffer sets the size of the work items conduit buffer.
// A buffer lets several producers post in bursts without waiting on the loop.
func WithItemsBuffer(size uint) Option {
	return func(cfg *config) error { cfg.ItemsBufferSize = size; return nil }
}

// WithStopOnError terminates the loop when the first work item fails.
func WithStopOnError() Option {
	return func(cfg *config) error { cfg.StopOnError = true; return nil }
}

// WithLockOSThread locks the goroutine calling Run or Loop to its current OS thread
// until the loop terminates. Call Run from the main goroutine of a program whose
// package main locks the thread in init to pin work to the process's first thread.
func WithLockOSThread() Option {
	return func(cfg *config) error { cfg.LockOSThread = true; return nil }
}

// WithLogger sets the logger used for loop diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
