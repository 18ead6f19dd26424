package metrics

// NoopProvider returns no-op instruments. It is the default provider.
type NoopProvider struct{}

// NewNoopProvider constructs a Provider that discards all metrics.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(string) Counter             { return noop{} }
func (NoopProvider) UpDownCounter(string) UpDownCounter { return noop{} }
func (NoopProvider) Histogram(string) Histogram         { return noop{} }

type noop struct{}

func (noop) Add(int64)      {}
func (noop) Record(float64) {}
