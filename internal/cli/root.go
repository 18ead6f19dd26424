// Package cli implements the mainthread demo command.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ygrebnov/mainthread"
	"github.com/ygrebnov/mainthread/internal/logwriter"
	"github.com/ygrebnov/mainthread/metrics"
)

// Config keys, also read from MAINTHREAD_<KEY> environment variables.
const (
	keyItemsBuffer  = "items_buffer"
	keyStopOnError  = "stop_on_error"
	keyLockOSThread = "lock_os_thread"
	keyLogLevel     = "log_level"
)

var (
	cfgFile   string // Path to config file
	logFile   string // Path to log file
	noLogging bool   // Turn off logging
	noColour  bool   // Turn off colour output
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mainthread",
	Short: "Run work posted by goroutines on the main thread",
	Long: `mainthread demonstrates a dispatcher that executes work items posted by
worker goroutines on the process's main thread, in arrival order.

Use "mainthread [command] --help" for the demos available.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mainthread.yaml)")
	flags.StringVar(&logFile, "log", "", "path to log file (default is stderr)")
	flags.BoolVar(&noLogging, "no-logging", false, "disable logging")
	flags.BoolVar(&noColour, "no-colour", false, "disable colour output")

	flags.Uint("items-buffer", 0, "size of the work items buffer (0 = rendezvous)")
	flags.Bool("stop-on-error", false, "terminate on the first failed work item")
	flags.Bool("lock-os-thread", true, "keep the dispatch loop on the main OS thread")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	_ = viper.BindPFlag(keyItemsBuffer, flags.Lookup("items-buffer"))
	_ = viper.BindPFlag(keyStopOnError, flags.Lookup("stop-on-error"))
	_ = viper.BindPFlag(keyLockOSThread, flags.Lookup("lock-os-thread"))
	_ = viper.BindPFlag(keyLogLevel, flags.Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".mainthread") // name of config file (without extension)
		viper.AddConfigPath("$HOME")       // adding home directory as first search path
	}
	viper.SetEnvPrefix("MAINTHREAD")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// session carries what every subcommand needs to build and observe a Dispatcher.
type session struct {
	log     *slog.Logger
	metrics *metrics.BasicProvider
	cleanup func()
}

func newSession() (*session, error) {
	l := logwriter.NewFile(logFile, !noLogging, !noColour)
	if err := l.Create(); err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString(keyLogLevel))); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return &session{
		log:     l.Logger(level),
		metrics: metrics.NewBasicProvider(),
		cleanup: l.Cleanup,
	}, nil
}

// dispatcher builds a Dispatcher from the resolved configuration plus extra.
func (s *session) dispatcher(extra ...mainthread.Option) (*mainthread.Dispatcher, error) {
	opts := []mainthread.Option{
		mainthread.WithItemsBuffer(viper.GetUint(keyItemsBuffer)),
		mainthread.WithLogger(s.log),
		mainthread.WithMetrics(s.metrics),
	}
	if viper.GetBool(keyStopOnError) {
		opts = append(opts, mainthread.WithStopOnError())
	}
	if viper.GetBool(keyLockOSThread) {
		opts = append(opts, mainthread.WithLockOSThread())
	}
	return mainthread.New(append(opts, extra...)...)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
