package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// BasicProvider is a concurrency-safe in-memory Provider.
// Instruments are created on first use and reused for the same name.
type BasicProvider struct {
	mu         sync.RWMutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicCounter
	histograms map[string]*BasicHistogram
}

// NewBasicProvider constructs a new BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicCounter),
		histograms: make(map[string]*BasicHistogram),
	}
}

// lookup returns the instrument stored under name, creating it with newFn once.
func lookup[T any](mu *sync.RWMutex, m map[string]*T, name string, newFn func() *T) *T {
	mu.RLock()
	v, ok := m[name]
	mu.RUnlock()
	if ok {
		return v
	}

	mu.Lock()
	defer mu.Unlock()
	// re-check after acquiring write lock
	if v, ok = m[name]; ok {
		return v
	}
	v = newFn()
	m[name] = v
	return v
}

func (p *BasicProvider) Counter(name string) Counter {
	return lookup(&p.mu, p.counters, name, func() *BasicCounter { return &BasicCounter{} })
}

func (p *BasicProvider) UpDownCounter(name string) UpDownCounter {
	return lookup(&p.mu, p.updowns, name, func() *BasicCounter { return &BasicCounter{} })
}

func (p *BasicProvider) Histogram(name string) Histogram {
	return lookup(&p.mu, p.histograms, name, func() *BasicHistogram { return &BasicHistogram{} })
}

// Value returns the current value of the counter or up/down counter registered
// under name, and whether such an instrument exists.
func (p *BasicProvider) Value(name string) (int64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if c, ok := p.counters[name]; ok {
		return c.Snapshot(), true
	}
	if u, ok := p.updowns[name]; ok {
		return u.Snapshot(), true
	}
	return 0, false
}

// HistogramSnapshot returns the snapshot of the histogram registered under name.
func (p *BasicProvider) HistogramSnapshot(name string) (HistSnapshot, bool) {
	p.mu.RLock()
	h, ok := p.histograms[name]
	p.mu.RUnlock()
	if !ok {
		return HistSnapshot{}, false
	}
	return h.Snapshot(), true
}

// Names lists every registered instrument name in lexical order.
func (p *BasicProvider) Names() []string {
	p.mu.RLock()
	names := make([]string, 0, len(p.counters)+len(p.updowns)+len(p.histograms))
	for n := range p.counters {
		names = append(names, n)
	}
	for n := range p.updowns {
		names = append(names, n)
	}
	for n := range p.histograms {
		names = append(names, n)
	}
	p.mu.RUnlock()
	sort.Strings(names)
	return names
}

// BasicCounter is a thread-safe counter. It backs both Counter and UpDownCounter.
type BasicCounter struct {
	val atomic.Int64
}

// Add adds n to the current value.
func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Snapshot returns the current value.
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// Record adds a measurement to the histogram.
func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.count++
	h.sum += v
	h.mu.Unlock()
}

// HistSnapshot is an immutable snapshot of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Snapshot returns a copy of the histogram state at the time of call.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
