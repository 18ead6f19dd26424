package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ygrebnov/mainthread"
)

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count [n]",
	Short: "Print 1..n from items posted by a worker goroutine",
	Long: `A worker goroutine posts n items, each incrementing a counter owned by the
main thread and printing it. The output is always 1..n in order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 3
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return fmt.Errorf("invalid count %q", args[0])
			}
			n = v
		}
		return count(cmd, n)
	},
}

func init() {
	RootCmd.AddCommand(countCmd)
}

func count(cmd *cobra.Command, n int) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.cleanup()

	d, err := s.dispatcher()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	counter := 0 // owned by the dispatch loop
	return d.Run(contextOf(cmd), func(ctx context.Context, w *mainthread.Worker) error {
		for i := 0; i < n; i++ {
			if err := w.Do(ctx, func() {
				counter++
				fmt.Fprintln(out, counter)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
