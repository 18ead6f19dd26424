package mainthread_test

import (
	"context"
	"fmt"

	"github.com/ygrebnov/mainthread"
)

func ExampleDispatcher_Run() {
	d, err := mainthread.New()
	if err != nil {
		panic(err)
	}

	counter := 0
	err = d.Run(context.Background(), func(ctx context.Context, w *mainthread.Worker) error {
		for i := 0; i < 3; i++ {
			if err := w.Do(ctx, func() {
				counter++
				fmt.Println(counter)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		panic(err)
	}

	// Output:
	// 1
	// 2
	// 3
}

func ExampleWorker_Call() {
	d, _ := mainthread.New()

	var answer int
	_ = d.Run(context.Background(), func(ctx context.Context, w *mainthread.Worker) error {
		return w.Call(ctx, func() error {
			answer = 42
			return nil
		})
	})
	fmt.Println(answer)

	// Output: 42
}

func ExampleSelect() {
	a := make(chan string, 1)
	b := make(chan string, 1)
	a <- "first"
	b <- "second"

	var got string
	chosen, _ := mainthread.Select(context.Background(),
		mainthread.Recv[string](a, func(v string, _ bool) { got = v }),
		mainthread.Recv[string](b, func(v string, _ bool) { got = v }),
	)
	fmt.Println(chosen, got)

	// Output: 0 first
}
