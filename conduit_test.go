package mainthread

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConduit_FIFO(t *testing.T) {
	tx, rx := NewConduit[int](8)
	for i := 0; i < 8; i++ {
		require.NoError(t, tx.Send(context.Background(), i))
	}
	require.Equal(t, 8, rx.Len())

	for i := 0; i < 8; i++ {
		v, err := rx.Receive(context.Background())
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestConduit_Unbuffered_Rendezvous(t *testing.T) {
	tx, rx := NewConduit[string](0)

	sent := make(chan struct{})
	go func() {
		_ = tx.Send(context.Background(), "x")
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatalf("unbuffered send returned before a receiver arrived")
	case <-time.After(20 * time.Millisecond):
	}

	v, err := rx.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, "x", v)
	<-sent
}

func TestConduit_SendAfterClose_ReturnsErrClosed(t *testing.T) {
	tx, _ := NewConduit[int](1)
	tx.Close()
	tx.Close() // idempotent

	require.ErrorIs(t, tx.Send(context.Background(), 1), ErrClosed)
	ok, err := tx.TrySend(1)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrClosed)
}

func TestConduit_Close_UnblocksPendingSend(t *testing.T) {
	tx, _ := NewConduit[int](0)

	errCh := make(chan error, 1)
	go func() { errCh <- tx.Send(context.Background(), 1) }()

	time.Sleep(10 * time.Millisecond)
	tx.Close()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatalf("pending Send was not released by Close")
	}
}

func TestConduit_Close_KeepsBufferedValues(t *testing.T) {
	tx, rx := NewConduit[int](2)
	require.NoError(t, tx.Send(context.Background(), 1))
	require.NoError(t, tx.Send(context.Background(), 2))
	tx.Close()

	var got []int
	for v := range rx.Chan() {
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2}, got)

	_, err := rx.Receive(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestConduit_TrySend_Full(t *testing.T) {
	tx, _ := NewConduit[int](1)

	ok, err := tx.TrySend(1)
	require.True(t, ok)
	require.NoError(t, err)

	ok, err = tx.TrySend(2)
	require.False(t, ok)
	require.NoError(t, err)
}

func TestConduit_ContextBoundsSendAndReceive(t *testing.T) {
	tx, rx := NewConduit[int](0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, tx.Send(ctx, 1), context.DeadlineExceeded)

	_, err := rx.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConduit_ConcurrentSendAndClose_NeverPanics(t *testing.T) {
	tx, rx := NewConduit[int](4)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_ = tx.Send(context.Background(), v)
		}(i)
	}

	go func() {
		for range rx.Chan() {
		}
	}()

	require.NotPanics(t, func() {
		tx.Close()
		wg.Wait()
	})
}
