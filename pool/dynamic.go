package pool

import (
	"context"
	"sync"
)

type dynamic[T any] struct {
	p sync.Pool
}

// NewDynamic returns an unbounded pool backed by sync.Pool. Get never blocks.
func NewDynamic[T any](newFn func() T) Pool[T] {
	return &dynamic[T]{p: sync.Pool{New: func() any { return newFn() }}}
}

func (d *dynamic[T]) Get(context.Context) (T, error) { return d.p.Get().(T), nil }

func (d *dynamic[T]) Put(el T) { d.p.Put(el) }
