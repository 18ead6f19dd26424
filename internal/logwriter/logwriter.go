// Package logwriter wraps an io.Writer for mainthread logging.
package logwriter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/ygrebnov/mainthread/offload"
)

// Writer is a log writer and its configurations.
type Writer struct {
	io.Writer

	LogFile       string
	EnableLogging bool
	EnableColour  bool
	Cleanup       func()
}

// NewFile creates a new file writer. An empty logfile selects stderr.
func NewFile(logfile string, enableLogging, enableColour bool) *Writer {
	return &Writer{
		LogFile:       logfile,
		EnableLogging: enableLogging,
		EnableColour:  enableColour,
	}
}

// New creates a new log writer.
func New(w io.Writer, enableLogging, enableColour bool) *Writer {
	return &Writer{
		Writer:        w,
		EnableLogging: enableLogging,
		EnableColour:  enableColour,
	}
}

// Create initialises the writer. Output to a log file goes through an
// offload.Writer so slow disks never stall the dispatch loop.
func (w *Writer) Create() error {
	color.NoColor = !w.EnableColour
	if !w.EnableLogging {
		w.Writer = io.Discard
		w.Cleanup = func() {}
		return nil
	}
	if w.Writer != nil {
		w.Cleanup = func() {}
		return nil
	}
	if w.LogFile == "" {
		w.Writer = os.Stderr
		w.Cleanup = func() {}
		return nil
	}

	f, err := os.Create(w.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	bufWriter := bufio.NewWriter(f)
	ow, err := offload.New(bufWriter, offload.WithQueue(64))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.Writer = ow
	w.Cleanup = func() {
		if err := ow.Stop(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "log writer: %s\n", err)
		}
		if err := bufWriter.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "flush: %s\n", err)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close: %s\n", err)
		}
	}
	return nil
}

// Logger returns a text logger writing to w at the given level.
// Each record starts with its level, coloured unless colour is disabled.
func (w *Writer) Logger(level slog.Leveler) *slog.Logger {
	inner := slog.NewTextHandler(w.Writer, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: dropLevel,
	})
	return slog.New(&handler{mu: &sync.Mutex{}, w: w.Writer, inner: inner})
}

var levelColours = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgCyan),
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed, color.Bold),
}

func dropLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		return slog.Attr{}
	}
	return a
}

// handler prefixes the records of inner with a coloured level.
type handler struct {
	mu    *sync.Mutex
	w     io.Writer
	inner slog.Handler
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	label := r.Level.String()
	if c, ok := levelColours[r.Level]; ok {
		label = c.Sprint(label)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := fmt.Fprintf(h.w, "%-5s ", label); err != nil {
		return err
	}
	return h.inner.Handle(ctx, r)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{mu: h.mu, w: h.w, inner: h.inner.WithAttrs(attrs)}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{mu: h.mu, w: h.w, inner: h.inner.WithGroup(name)}
}
