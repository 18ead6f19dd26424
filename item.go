package mainthread

import "fmt"

// WorkItem is a deferred unit of work executed exactly once on the dispatcher's
// goroutine. A non-nil error marks the item as failed.
// Use Action / ActionErr to adapt plain functions.
type WorkItem func() error

// Action adapts a zero-argument, no-result function to WorkItem.
func Action(fn func()) WorkItem {
	return func() error { fn(); return nil }
}

// ActionErr adapts func() error to WorkItem.
func ActionErr(fn func() error) WorkItem { return WorkItem(fn) }

// runItem executes item in place and converts a panic into ErrItemPanicked.
// Unlike a pooled executor it never leaves the calling goroutine: thread-affine
// calls inside item must observe the same OS thread as the loop.
func runItem(item WorkItem) (err error) {
	if item == nil {
		return ErrNilItem
	}

	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrItemPanicked, ePanic)
		}
	}()

	return item()
}
