package pool

import "context"

type fixed[T any] struct {
	available chan T
	// tokens counts elements created so far; its capacity is the pool size.
	tokens chan struct{}
	newFn  func() T
}

// NewFixed returns a pool that never holds more than capacity elements at once.
// Elements are created lazily. A zero capacity pool blocks every Get until ctx is done.
func NewFixed[T any](capacity uint, newFn func() T) Pool[T] {
	return &fixed[T]{
		available: make(chan T, capacity),
		tokens:    make(chan struct{}, capacity),
		newFn:     newFn,
	}
}

func (p *fixed[T]) Get(ctx context.Context) (T, error) {
	select {
	case el := <-p.available:
		return el, nil
	default:
	}

	select {
	case el := <-p.available:
		return el, nil
	case p.tokens <- struct{}{}:
		return p.newFn(), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (p *fixed[T]) Put(el T) {
	p.available <- el
}

func (p *fixed[T]) capacity() int { return cap(p.tokens) }
