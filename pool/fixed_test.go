package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type buf struct{ id int32 }

func newCounting(created *atomic.Int32) func() *buf {
	return func() *buf { return &buf{id: created.Add(1)} }
}

func TestFixedPool_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		capacity uint
		run      func(t *testing.T, p *fixed[*buf], created *atomic.Int32)
	}{
		{
			name:     "Get creates up to capacity; then blocks until Put",
			capacity: 2,
			run: func(t *testing.T, p *fixed[*buf], created *atomic.Int32) {
				b1, err := p.Get(context.Background())
				require.NoError(t, err)
				b2, err := p.Get(context.Background())
				require.NoError(t, err)
				require.NotSame(t, b1, b2)

				gotCh := make(chan *buf, 1)
				go func() {
					b, _ := p.Get(context.Background())
					gotCh <- b
				}()

				select {
				case <-gotCh:
					t.Fatalf("third Get should block until Put; returned early")
				case <-time.After(50 * time.Millisecond):
				}

				p.Put(b1)
				select {
				case got := <-gotCh:
					require.Same(t, b1, got)
				case <-time.After(time.Second):
					t.Fatalf("blocked Get did not resume after Put")
				}
				require.EqualValues(t, 2, created.Load())
			},
		},
		{
			name:     "Put then Get returns the same instance",
			capacity: 1,
			run: func(t *testing.T, p *fixed[*buf], created *atomic.Int32) {
				b, err := p.Get(context.Background())
				require.NoError(t, err)
				p.Put(b)
				b2, err := p.Get(context.Background())
				require.NoError(t, err)
				require.Same(t, b, b2)
				require.EqualValues(t, 1, created.Load())
			},
		},
		{
			name:     "Get honours ctx while exhausted",
			capacity: 1,
			run: func(t *testing.T, p *fixed[*buf], _ *atomic.Int32) {
				_, err := p.Get(context.Background())
				require.NoError(t, err)

				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()
				_, err = p.Get(ctx)
				require.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
		{
			name:     "capacity=0: Get blocks until ctx is done",
			capacity: 0,
			run: func(t *testing.T, p *fixed[*buf], created *atomic.Int32) {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()
				_, err := p.Get(ctx)
				require.ErrorIs(t, err, context.DeadlineExceeded)
				require.EqualValues(t, 0, created.Load())
			},
		},
		{
			name:     "Concurrent Get/Put never creates more than capacity elements",
			capacity: 5,
			run: func(t *testing.T, p *fixed[*buf], created *atomic.Int32) {
				const goroutines = 20
				var wg sync.WaitGroup
				wg.Add(goroutines)
				for i := 0; i < goroutines; i++ {
					go func() {
						defer wg.Done()
						b, err := p.Get(context.Background())
						if err != nil {
							return
						}
						time.Sleep(time.Millisecond)
						p.Put(b)
					}()
				}
				wg.Wait()
				require.LessOrEqual(t, int(created.Load()), p.capacity())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var created atomic.Int32
			p := NewFixed(tc.capacity, newCounting(&created)).(*fixed[*buf])
			tc.run(t, p, &created)
		})
	}
}

func TestDynamicPool_GetNeverBlocks(t *testing.T) {
	var created atomic.Int32
	p := NewDynamic(newCounting(&created))

	for i := 0; i < 10; i++ {
		b, err := p.Get(context.Background())
		require.NoError(t, err)
		require.NotNil(t, b)
	}
	require.EqualValues(t, 10, created.Load())
}
