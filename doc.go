// Package mainthread runs work items posted by any number of goroutines on one
// designated goroutine, usually the program's main goroutine locked to the
// first OS thread.
//
// Constructors
//   - New(opts ...Option): options-based constructor. A Dispatcher runs one
//     session; Run or Loop may be called once.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created instance:
//   - ItemsBuffer: 0 (every Post is a rendezvous with the loop)
//   - StopOnError: false (failures are collected and returned joined)
//   - LockOSThread: false
//   - Logger: discards everything
//   - Metrics: metrics.NoopProvider
//
// Conduits
// NewConduit returns the two ends of a typed FIFO channel with an optional
// buffer. Send blocks until a receiver (or the buffer) accepts the value and
// returns ErrClosed instead of panicking once the conduit has been closed. The
// receive side stays readable after Close until the buffer is empty.
//
// Select
// Select waits on several receive ends at once and runs the handler of the
// case that wins. Cases already ready on entry are taken in listing order, so
// the dispatcher lists its items source before its completion source: an item
// posted before completion is always executed before the loop stops.
//
// Run and Loop
// Run starts one goroutine per Producer, hands each a Worker, and executes the
// posted items on the calling goroutine in arrival order. Once every producer
// has returned, a single completion signal is emitted; the loop then executes
// the items still queued and returns. Loop is the same dispatch loop over
// caller-owned conduits.
//
// Errors
// Item failures and panics are tagged with the session and the execution index
// (see ExtractItemIndex, ExtractSessionID). By default the loop keeps going and
// Run returns all failures joined; WithStopOnError terminates on the first one.
// Cancelling ctx terminates without draining and the result wraps ErrCancelled.
//
// Worker goroutines
// Post, Do and Call block for backpressure; TryPost never blocks. After the
// loop terminates, blocked and later posts return ErrClosed. Complete waits for
// posts already in flight, so the loop never completes ahead of an accepted
// item. Work items run on the loop and must not use Post, Do or Call: only
// TryPost.
//
// Offloading
// Package offload provides an io.Writer that performs writes on its own
// goroutine so a thread-affine loop is never stalled by slow output.
package mainthread
