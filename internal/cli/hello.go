package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ygrebnov/mainthread"
	"github.com/ygrebnov/mainthread/offload"
)

var helloQueue uint

// helloCmd represents the hello command
var helloCmd = &cobra.Command{
	Use:   "hello [words...]",
	Short: "Write words through an offloaded writer",
	Long: `A worker goroutine posts one item per word. The main thread hands each word
to an offloaded writer and stops it once all items ran; the command returns only
after every word has reached the output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"Hello ", "World!\n"}
		}
		return hello(cmd, args)
	},
}

func init() {
	RootCmd.AddCommand(helloCmd)

	helloCmd.Flags().UintVar(&helloQueue, "queue", 0, "payload queue between the main thread and the writer")
}

func hello(cmd *cobra.Command, words []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.cleanup()

	ow, err := offload.New(cmd.OutOrStdout(),
		offload.WithQueue(helloQueue),
		offload.WithLogger(s.log),
		offload.WithMetrics(s.metrics),
	)
	if err != nil {
		return err
	}

	d, err := s.dispatcher()
	if err != nil {
		_ = ow.Stop(context.Background())
		return err
	}

	runErr := d.Run(contextOf(cmd), func(ctx context.Context, w *mainthread.Worker) error {
		for _, word := range words {
			if err := w.Post(ctx, func() error {
				_, err := ow.Write([]byte(word))
				return err
			}); err != nil {
				return err
			}
		}
		return nil
	})

	stopErr := ow.Stop(context.Background())
	s.log.Debug("offloaded writer stopped", "bytes", metricValue(s, offload.MetricBytesWritten))
	if runErr != nil {
		return runErr
	}
	return stopErr
}

func metricValue(s *session, name string) int64 {
	v, _ := s.metrics.Value(name)
	return v
}
