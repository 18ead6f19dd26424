package mainthread

import (
	"context"
	"reflect"
)

// Case is a single {source, handler} pair offered to Select.
// Build one with Recv.
type Case interface {
	selectCase() reflect.SelectCase
	handle(v reflect.Value, ok bool)
}

// Recv offers ch to Select. When ch wins, fn is called with the received value;
// ok is false when ch has been closed. A nil ch is never ready.
func Recv[T any](ch <-chan T, fn func(v T, ok bool)) Case {
	return recvCase[T]{ch: ch, fn: fn}
}

type recvCase[T any] struct {
	ch <-chan T
	fn func(T, bool)
}

func (c recvCase[T]) selectCase() reflect.SelectCase {
	return reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.ch)}
}

func (c recvCase[T]) handle(v reflect.Value, ok bool) {
	if c.fn == nil {
		return
	}
	var val T
	if ok {
		val, _ = v.Interface().(T)
	}
	c.fn(val, ok)
}

// Select waits until one of the cases is ready, invokes its handler and returns
// its position.
//
// Tie-break policy: cases that are already ready when Select is entered are
// polled in listing order, so the earliest-listed ready case always wins. When
// nothing is ready, Select blocks and the first case to become ready wins.
// ctx has the lowest priority; if it ends first Select returns -1 and ctx.Err().
func Select(ctx context.Context, cases ...Case) (int, error) {
	scs := make([]reflect.SelectCase, len(cases), len(cases)+1)
	for i, c := range cases {
		scs[i] = c.selectCase()
	}

	poll := []reflect.SelectCase{{}, {Dir: reflect.SelectDefault}}
	for i := range scs {
		poll[0] = scs[i]
		if chosen, v, ok := reflect.Select(poll); chosen == 0 {
			cases[i].handle(v, ok)
			return i, nil
		}
	}

	scs = append(scs, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	chosen, v, ok := reflect.Select(scs)
	if chosen == len(cases) {
		return -1, ctx.Err()
	}
	cases[chosen].handle(v, ok)
	return chosen, nil
}
