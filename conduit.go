package mainthread

import (
	"context"
	"sync"
)

// Sender is the send-only view of a conduit.
// Send and TrySend are safe for concurrent use; Close is idempotent.
type Sender[T any] interface {
	// Send blocks until the value is accepted, ctx is done, or the conduit is closed.
	// It returns ErrClosed once Close has been called.
	Send(ctx context.Context, v T) error
	// TrySend enqueues v only if that does not block.
	TrySend(v T) (bool, error)
	// Close marks the end of the stream. Values accepted before Close stay
	// readable by the receiver.
	Close()
}

// Receiver is the receive-only view of a conduit.
type Receiver[T any] interface {
	// Receive blocks until a value arrives or ctx is done.
	// It returns ErrClosed once the conduit is closed and drained.
	Receive(ctx context.Context) (T, error)
	// Chan exposes the underlying channel for use with Select or range.
	Chan() <-chan T
	// Len reports the number of buffered values.
	Len() int
}

// NewConduit creates a FIFO conduit with the given buffer size (0 means unbuffered)
// and returns its two capability views. Hand the Sender to producers and the
// Receiver to the consumer; neither view can be converted into the other.
func NewConduit[T any](size uint) (Sender[T], Receiver[T]) {
	c := &conduit[T]{
		ch:      make(chan T, size),
		closing: make(chan struct{}),
	}
	return sender[T]{c}, receiver[T]{c}
}

type conduit[T any] struct {
	ch chan T

	// closing is closed first so blocked senders give up their read lock
	// before ch itself gets closed.
	closing chan struct{}
	mu      sync.RWMutex
	once    sync.Once
}

func (c *conduit[T]) close() {
	c.once.Do(func() {
		close(c.closing)
		c.mu.Lock()
		close(c.ch)
		c.mu.Unlock()
	})
}

type sender[T any] struct{ c *conduit[T] }

func (s sender[T]) Send(ctx context.Context, v T) error {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()

	select {
	case <-s.c.closing:
		return ErrClosed
	default:
	}

	select {
	case s.c.ch <- v:
		return nil
	case <-s.c.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s sender[T]) TrySend(v T) (bool, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()

	select {
	case <-s.c.closing:
		return false, ErrClosed
	default:
	}

	select {
	case s.c.ch <- v:
		return true, nil
	default:
		return false, nil
	}
}

func (s sender[T]) Close() { s.c.close() }

type receiver[T any] struct{ c *conduit[T] }

func (r receiver[T]) Receive(ctx context.Context) (T, error) {
	select {
	case v, ok := <-r.c.ch:
		if !ok {
			var zero T
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (r receiver[T]) Chan() <-chan T { return r.c.ch }

func (r receiver[T]) Len() int { return len(r.c.ch) }
