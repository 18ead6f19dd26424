package mainthread

import (
	"context"
	"sync"
)

// Producer is the body of a worker goroutine. It posts work items through w and
// returns when it has nothing more to post. Its return value is reported by Run;
// it never stops the loop on its own.
type Producer func(ctx context.Context, w *Worker) error

// Worker is the producer-side handle given to a Producer.
// Methods are safe for concurrent use by goroutines the producer spawns.
//
// Post, Do and Call must not be called from a work item: the loop would wait
// on itself. A work item may use TryPost.
type Worker struct {
	items      Sender[WorkItem]
	terminated <-chan struct{}
	onPost     func()

	// mu orders Complete after every Post that got past the completed check.
	mu         sync.RWMutex
	completed  bool
	once       sync.Once
	onComplete func()
}

func newWorker(items Sender[WorkItem], terminated <-chan struct{}, onPost, onComplete func()) *Worker {
	return &Worker{items: items, terminated: terminated, onPost: onPost, onComplete: onComplete}
}

// Post hands item over to the dispatcher. It blocks until the loop (or the items
// buffer) accepts the item, ctx is done, or the dispatcher terminates.
// Post returns ErrClosed after Complete or once the loop has terminated.
func (w *Worker) Post(ctx context.Context, item WorkItem) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.completed {
		return ErrClosed
	}
	if item == nil {
		return ErrNilItem
	}
	if err := w.items.Send(ctx, item); err != nil {
		return err
	}
	w.onPost()
	return nil
}

// Do posts fn as a work item.
func (w *Worker) Do(ctx context.Context, fn func()) error {
	return w.Post(ctx, Action(fn))
}

// TryPost posts item only if that does not block.
//
// Returns:
// - (true, nil) if the item was accepted.
// - (false, nil) if the items buffer is full, the loop is busy or Complete is in progress.
// - (false, ErrClosed) after Complete or loop termination.
func (w *Worker) TryPost(item WorkItem) (bool, error) {
	// a pending Complete waits for in-flight Posts, which may wait for the loop
	if !w.mu.TryRLock() {
		return false, nil
	}
	defer w.mu.RUnlock()

	if w.completed {
		return false, ErrClosed
	}
	if item == nil {
		return false, ErrNilItem
	}
	ok, err := w.items.TrySend(item)
	if ok {
		w.onPost()
	}
	return ok, err
}

// Call posts fn and waits for the loop to execute it, returning fn's error.
// Use it for thread-affine calls whose outcome the producer needs.
// Calling it from a work item blocks the loop until ctx is done.
// If the loop terminates before reaching the item, Call returns ErrClosed.
func (w *Worker) Call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	item := func() error {
		err := runItem(fn)
		res <- err
		return err
	}
	if err := w.Post(ctx, item); err != nil {
		return err
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.terminated:
		// the item may still have run right before termination
		select {
		case err := <-res:
			return err
		default:
			return ErrClosed
		}
	}
}

// Complete declares that this worker will post no more items. It waits for
// Posts already in flight, so every accepted item precedes completion.
// Only the first call has an effect; Run calls it after the Producer returns.
func (w *Worker) Complete() {
	w.once.Do(func() {
		w.mu.Lock()
		w.completed = true
		w.mu.Unlock()
		if w.onComplete != nil {
			w.onComplete()
		}
	})
}
