package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ygrebnov/mainthread"
)

var (
	faninProducers int
	faninItems     int
)

// faninCmd represents the fanin command
var faninCmd = &cobra.Command{
	Use:   "fanin",
	Short: "Fan items from several worker goroutines into the main thread",
	Long: `Starts --producers worker goroutines posting --items items each, checks that
every producer's items ran in the order it posted them and prints the
dispatcher statistics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if faninProducers < 1 || faninItems < 0 {
			return fmt.Errorf("invalid fan-in shape: producers=%d items=%d", faninProducers, faninItems)
		}
		return fanin(cmd, faninProducers, faninItems)
	},
}

func init() {
	RootCmd.AddCommand(faninCmd)

	faninCmd.Flags().IntVarP(&faninProducers, "producers", "p", 4, "number of worker goroutines")
	faninCmd.Flags().IntVarP(&faninItems, "items", "n", 100, "items posted by each worker")
}

func fanin(cmd *cobra.Command, producers, items int) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.cleanup()

	d, err := s.dispatcher()
	if err != nil {
		return err
	}

	// owned by the dispatch loop
	next := make([]int, producers)
	outOfOrder := 0

	ps := make([]mainthread.Producer, producers)
	for p := range ps {
		ps[p] = func(ctx context.Context, w *mainthread.Worker) error {
			for i := 0; i < items; i++ {
				if err := w.Do(ctx, func() {
					if next[p] != i {
						outOfOrder++
					}
					next[p] = i + 1
				}); err != nil {
					return err
				}
			}
			return nil
		}
	}

	runErr := d.Run(contextOf(cmd), ps...)

	st := d.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session=%s state=%s\n", st.Session, st.State)
	fmt.Fprintf(out, "producers=%d posted=%d executed=%d failed=%d\n", producers, st.Posted, st.Executed, st.Failed)
	if h, ok := s.metrics.HistogramSnapshot(mainthread.MetricItemExecSeconds); ok && h.Count > 0 {
		fmt.Fprintf(out, "exec seconds: mean=%.9f max=%.9f\n", h.Mean, h.Max)
	}
	if outOfOrder == 0 {
		fmt.Fprintln(out, "order:", color.GreenString("ok"))
	} else {
		fmt.Fprintln(out, "order:", color.RedString("%d out of order", outOfOrder))
	}
	return runErr
}
