package offload

import "sync"

// errorLatch keeps the first error reported to it; later errors are dropped.
type errorLatch struct {
	mu  sync.Mutex
	err error
}

// set records err if no error was recorded yet and reports whether it did.
func (l *errorLatch) set(err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil || err == nil {
		return false
	}
	l.err = err
	return true
}

func (l *errorLatch) get() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
