// Package offload moves blocking writes off the calling goroutine.
//
// A Writer owns one I/O goroutine. Callers hand payloads over a data conduit;
// Stop sends on a separate stop conduit and waits for the done acknowledgement,
// which is only given after every payload queued before Stop has been written.
// This keeps a thread-affine loop (see package mainthread) responsive while
// slow sinks such as terminals, pipes or files absorb its output.
package offload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mainthread"
	"github.com/ygrebnov/mainthread/metrics"
	"github.com/ygrebnov/mainthread/pool"
)

const (
	MetricBytesWritten = "offload_bytes_written"
	MetricWritesFailed = "offload_writes_failed"
)

var ErrWriteFailed = errors.New(mainthread.Namespace + ": offloaded write failed")

// Writer is an io.Writer whose writes happen on a dedicated goroutine.
// Write, WriteContext and Stop are safe for concurrent use.
type Writer struct {
	dst io.Writer

	dataTx mainthread.Sender[*[]byte]
	dataRx mainthread.Receiver[*[]byte]
	stopTx mainthread.Sender[struct{}]
	stopRx mainthread.Receiver[struct{}]
	done   chan struct{}

	bufs  pool.Pool[*[]byte]
	latch errorLatch
	once  sync.Once

	log     *slog.Logger
	written metrics.Counter
	failed  metrics.Counter
}

// New starts a Writer forwarding payloads to dst.
func New(dst io.Writer, opts ...Option) (*Writer, error) {
	if dst == nil {
		return nil, errorc.With(mainthread.ErrInvalidConfig, errorc.String("dst", "must not be nil"))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	newBuf := func() *[]byte {
		b := make([]byte, 0, 512)
		return &b
	}
	var bufs pool.Pool[*[]byte]
	if cfg.Buffers > 0 {
		bufs = pool.NewFixed(cfg.Buffers, newBuf)
	} else {
		bufs = pool.NewDynamic(newBuf)
	}

	w := &Writer{
		dst:     dst,
		done:    make(chan struct{}),
		bufs:    bufs,
		log:     cfg.Logger,
		written: cfg.Metrics.Counter(MetricBytesWritten),
		failed:  cfg.Metrics.Counter(MetricWritesFailed),
	}
	w.dataTx, w.dataRx = mainthread.NewConduit[*[]byte](cfg.QueueSize)
	w.stopTx, w.stopRx = mainthread.NewConduit[struct{}](1)

	go w.run()
	return w, nil
}

// Write queues a copy of p and returns len(p) once the I/O goroutine (or the
// queue) has accepted it. A failure of the underlying write is reported by the
// next Write and by Stop; payloads queued after a failure are dropped.
func (w *Writer) Write(p []byte) (int, error) {
	return w.WriteContext(context.Background(), p)
}

// WriteContext is Write bounded by ctx.
// It returns mainthread.ErrClosed once Stop has been requested.
func (w *Writer) WriteContext(ctx context.Context, p []byte) (int, error) {
	if err := w.latch.get(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	b, err := w.bufs.Get(ctx)
	if err != nil {
		return 0, err
	}
	*b = append((*b)[:0], p...)

	if err := w.dataTx.Send(ctx, b); err != nil {
		w.bufs.Put(b)
		return 0, err
	}
	return len(p), nil
}

// Stop asks the I/O goroutine to finish and waits for its acknowledgement.
// Payloads accepted before Stop are written first. Stop is idempotent and
// returns the first write failure, if any.
func (w *Writer) Stop(ctx context.Context) error {
	w.once.Do(func() {
		// buffer of one: never blocks
		_, _ = w.stopTx.TrySend(struct{}{})
	})

	select {
	case <-w.done:
		return w.latch.get()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed after the I/O goroutine has exited.
func (w *Writer) Done() <-chan struct{} { return w.done }

func (w *Writer) run() {
	defer close(w.done)

	for {
		var (
			b    *[]byte
			open bool
		)
		// data is listed first so queued payloads win over a pending stop.
		chosen, _ := mainthread.Select(context.Background(),
			mainthread.Recv(w.dataRx.Chan(), func(v *[]byte, ok bool) { b, open = v, ok }),
			mainthread.Recv(w.stopRx.Chan(), nil),
		)
		if chosen == 0 {
			if !open {
				return
			}
			w.write(b)
			continue
		}

		// refuse new payloads, then flush what is already queued
		w.dataTx.Close()
		for b := range w.dataRx.Chan() {
			w.write(b)
		}
		return
	}
}

func (w *Writer) write(b *[]byte) {
	defer w.bufs.Put(b)

	if w.latch.get() != nil {
		return
	}

	n, err := w.dst.Write(*b)
	w.written.Add(int64(n))
	if err == nil && n < len(*b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.failed.Add(1)
		if w.latch.set(fmt.Errorf("%w: %w", ErrWriteFailed, err)) {
			w.log.Warn("offloaded write failed", "error", err)
		}
	}
}
