// Package pool provides reusable-object pools used to bound the memory held by
// in-flight payloads.
package pool

import "context"

// Pool hands out reusable elements of type T.
type Pool[T any] interface {
	// Get returns an element from the pool. A bounded pool blocks while all
	// of its elements are in use, until one is Put back or ctx is done.
	Get(ctx context.Context) (T, error)

	// Put returns an element back to the pool.
	Put(T)
}
