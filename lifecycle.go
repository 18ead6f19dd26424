package mainthread

import (
	"sync"
)

// lifecycleCoordinator encapsulates the shutdown sequence of a Run session.
// It doesn't own the loop; it releases producers once the loop has returned.
//
// Close() is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	closeItems   func()
	terminated   chan struct{}
	producersWG  *sync.WaitGroup
	completionWG *sync.WaitGroup

	once sync.Once
}

func newLifecycleCoordinator(
	closeItems func(),
	terminated chan struct{},
	producersWG *sync.WaitGroup,
	completionWG *sync.WaitGroup,
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		closeItems:   closeItems,
		terminated:   terminated,
		producersWG:  producersWG,
		completionWG: completionWG,
	}
}

// Close executes the shutdown sequence exactly once:
// 1) close the items conduit so blocked Posts return ErrClosed
// 2) close terminated to release pending Calls
// 3) wait for producer goroutines to return
// 4) wait for the completion emitter to exit
func (lc *lifecycleCoordinator) Close() {
	lc.once.Do(func() {
		if lc.closeItems != nil {
			lc.closeItems()
		}
		if lc.terminated != nil {
			close(lc.terminated)
		}
		if lc.producersWG != nil {
			lc.producersWG.Wait()
		}
		if lc.completionWG != nil {
			lc.completionWG.Wait()
		}
	})
}
