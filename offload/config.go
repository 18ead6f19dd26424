package offload

import (
	"io"
	"log/slog"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mainthread"
	"github.com/ygrebnov/mainthread/metrics"
)

type config struct {
	// QueueSize is the buffer of the data conduit between callers and the I/O goroutine.
	// Default: 0 (each Write waits until the I/O goroutine takes the payload)
	QueueSize uint

	// Buffers caps the number of payload copies alive at once. Zero selects an
	// unbounded sync.Pool.
	// Default: 0
	Buffers uint

	Logger  *slog.Logger
	Metrics metrics.Provider
}

func defaultConfig() config {
	return config{
		QueueSize: 0,
		Buffers:   0,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:   metrics.NewNoopProvider(),
	}
}

// Option configures a Writer.
type Option func(*config) error

// WithQueue sets the data conduit buffer size.
func WithQueue(size uint) Option {
	return func(cfg *config) error { cfg.QueueSize = size; return nil }
}

// WithFixedBuffers bounds the number of in-flight payload copies (must be > 0).
// Writers block once n payloads are queued or being written.
func WithFixedBuffers(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(mainthread.ErrInvalidConfig, errorc.String("", "WithFixedBuffers requires n > 0"))
		}
		cfg.Buffers = n
		return nil
	}
}

// WithLogger sets the logger used to report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(mainthread.ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(mainthread.ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
