package mainthread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ygrebnov/mainthread/metrics"
)

// Instrument names recorded through the configured metrics.Provider.
const (
	MetricItemsPosted     = "mainthread_items_posted"
	MetricItemsExecuted   = "mainthread_items_executed"
	MetricItemsFailed     = "mainthread_items_failed"
	MetricProducersActive = "mainthread_producers_active"
	MetricItemExecSeconds = "mainthread_item_exec_seconds"
)

// State is the lifecycle state of a Dispatcher.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a point-in-time view of a Dispatcher.
type Stats struct {
	Session  uuid.UUID
	State    State
	Posted   uint64
	Executed uint64
	Failed   uint64
}

// Dispatcher executes work items on a single designated goroutine, in the
// order they arrive, until every producer has signalled completion.
// A Dispatcher runs one session: Run or Loop may be called once.
type Dispatcher struct {
	// noCopy prevents accidental copying of the controller.
	//go:nocopy
	nc noCopy

	config  *config
	session uuid.UUID
	log     *slog.Logger
	state   atomic.Int32

	// seq is touched by the loop goroutine only.
	seq uint64

	postedN   atomic.Uint64
	executedN atomic.Uint64
	failedN   atomic.Uint64

	posted      metrics.Counter
	executed    metrics.Counter
	failed      metrics.Counter
	producers   metrics.UpDownCounter
	execSeconds metrics.Histogram
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a Dispatcher using functional options.
func New(opts ...Option) (*Dispatcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		config:      &cfg,
		session:     uuid.New(),
		posted:      cfg.Metrics.Counter(MetricItemsPosted),
		executed:    cfg.Metrics.Counter(MetricItemsExecuted),
		failed:      cfg.Metrics.Counter(MetricItemsFailed),
		producers:   cfg.Metrics.UpDownCounter(MetricProducersActive),
		execSeconds: cfg.Metrics.Histogram(MetricItemExecSeconds),
	}
	d.log = cfg.Logger.With("session", d.session.String())
	return d, nil
}

// Session returns the identifier attached to this dispatcher's logs and item errors.
func (d *Dispatcher) Session() uuid.UUID { return d.session }

// State returns the current lifecycle state.
func (d *Dispatcher) State() State { return State(d.state.Load()) }

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Session:  d.session,
		State:    d.State(),
		Posted:   d.postedN.Load(),
		Executed: d.executedN.Load(),
		Failed:   d.failedN.Load(),
	}
}

// Run binds the dispatcher to the calling goroutine, starts one worker goroutine
// per producer and executes the items they post until all of them have completed.
//
// Semantics:
//   - Items are executed one at a time on the calling goroutine, in arrival order.
//     With WithLockOSThread the goroutine stays on its OS thread until Run returns.
//   - The completion signal is emitted once, after every producer returned, so
//     every item posted before completion is executed before Run returns.
//   - Item failures and panics are tagged with the session and execution index.
//     They are collected (or stop the loop with WithStopOnError) and returned
//     joined together with producer errors.
//   - Cancelling ctx terminates the loop without draining; the result wraps ErrCancelled.
//   - Producers blocked in Post after termination get ErrClosed. Run waits for
//     all producers to return, so producers must honour ctx or ErrClosed.
func (d *Dispatcher) Run(ctx context.Context, producers ...Producer) error {
	if !d.begin() {
		return ErrInvalidState
	}
	defer d.bind()()
	defer d.state.Store(int32(StateTerminated))

	itemsTx, itemsRx := NewConduit[WorkItem](d.config.ItemsBufferSize)
	doneTx, doneRx := NewConduit[struct{}](1)
	terminated := make(chan struct{})

	var producersWG, completionWG, pendingWG sync.WaitGroup
	errs := make([]error, len(producers))

	onPost := func() {
		d.postedN.Add(1)
		d.posted.Add(1)
	}

	for i, p := range producers {
		if p == nil {
			continue
		}
		pendingWG.Add(1)
		d.producers.Add(1)
		w := newWorker(itemsTx, terminated, onPost, func() {
			d.producers.Add(-1)
			pendingWG.Done()
		})

		producersWG.Add(1)
		go func(i int, p Producer, w *Worker) {
			defer producersWG.Done()
			defer w.Complete()
			errs[i] = produce(ctx, p, w)
		}(i, p, w)
	}

	completionWG.Add(1)
	go func() {
		defer completionWG.Done()
		pendingWG.Wait()
		// buffer of one: never blocks
		_, _ = doneTx.TrySend(struct{}{})
		d.log.Debug("completion signalled")
	}()

	loopErr := d.loop(ctx, itemsRx, doneRx)

	newLifecycleCoordinator(itemsTx.Close, terminated, &producersWG, &completionWG).Close()

	all := []error{loopErr}
	for _, err := range errs {
		if err == nil {
			continue
		}
		// consequences of an early termination, already reported by loopErr
		if loopErr != nil && (errors.Is(err, ErrClosed) || (ctx.Err() != nil && errors.Is(err, ctx.Err()))) {
			continue
		}
		all = append(all, err)
	}
	return errors.Join(all...)
}

// Loop runs the dispatch loop over caller-owned conduits: it executes every item
// received from items until a value (or close) arrives on done, then executes the
// items still buffered and returns. Closing items without signalling done first
// terminates the loop with ErrChannelClosed.
func (d *Dispatcher) Loop(ctx context.Context, items Receiver[WorkItem], done Receiver[struct{}]) error {
	if !d.begin() {
		return ErrInvalidState
	}
	defer d.bind()()
	defer d.state.Store(int32(StateTerminated))

	return d.loop(ctx, items, done)
}

func (d *Dispatcher) begin() bool {
	return d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
}

// bind pins the calling goroutine to its OS thread when configured and returns the release func.
func (d *Dispatcher) bind() func() {
	if !d.config.LockOSThread {
		return func() {}
	}
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}

func (d *Dispatcher) loop(ctx context.Context, items Receiver[WorkItem], done Receiver[struct{}]) error {
	d.log.Debug("dispatch loop running")

	var errs []error
	// fail records err and reports whether the loop must stop.
	fail := func(err error) bool {
		errs = append(errs, err)
		return d.config.StopOnError
	}

	for {
		if err := ctx.Err(); err != nil {
			d.log.Debug("dispatch loop cancelled", "error", err)
			return errors.Join(append(errs, fmt.Errorf("%w: %w", ErrCancelled, err))...)
		}

		var (
			item      WorkItem
			itemsOpen bool
		)
		// items are listed first: a ready item always wins over completion.
		chosen, err := Select(ctx,
			Recv(items.Chan(), func(v WorkItem, ok bool) { item, itemsOpen = v, ok }),
			Recv(done.Chan(), nil),
		)
		if err != nil {
			continue
		}

		switch {
		case chosen == 0 && itemsOpen:
			if err := d.execute(item); err != nil && fail(err) {
				d.log.Debug("dispatch loop stopped on failure")
				return errors.Join(errs...)
			}

		case chosen == 0:
			if signalled(done) {
				d.log.Debug("dispatch loop completed")
				return errors.Join(errs...)
			}
			d.log.Warn("items channel closed without completion signal")
			return errors.Join(append(errs, ErrChannelClosed)...)

		default:
			d.drain(items, fail)
			d.log.Debug("dispatch loop completed")
			return errors.Join(errs...)
		}
	}
}

// drain executes items that were queued before completion was observed.
func (d *Dispatcher) drain(items Receiver[WorkItem], fail func(error) bool) {
	for {
		select {
		case item, ok := <-items.Chan():
			if !ok {
				return
			}
			if err := d.execute(item); err != nil && fail(err) {
				return
			}
		default:
			return
		}
	}
}

func signalled(done Receiver[struct{}]) bool {
	select {
	case <-done.Chan():
		return true
	default:
		return false
	}
}

func (d *Dispatcher) execute(item WorkItem) error {
	idx := d.seq
	d.seq++

	start := time.Now()
	err := runItem(item)
	d.execSeconds.Record(time.Since(start).Seconds())
	d.executedN.Add(1)
	d.executed.Add(1)

	if err == nil {
		return nil
	}

	d.failedN.Add(1)
	d.failed.Add(1)
	err = newItemTaggedError(err, d.session, idx)
	d.log.Warn("work item failed", "index", idx, "error", err)
	return err
}

// produce runs p and converts a panic into ErrProducerPanicked.
func produce(ctx context.Context, p Producer, w *Worker) (err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrProducerPanicked, ePanic)
		}
	}()
	return p(ctx, w)
}
