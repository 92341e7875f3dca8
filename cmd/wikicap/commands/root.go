package commands

import (
	"context"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wikicap/wikicap/pkg/runtime"
	"github.com/wikicap/wikicap/pkg/runtime/profiler"
)

// RootCommand wraps the root cobra command adding signal handling on top of
// command execution
type RootCommand struct {
	cmd *cobra.Command
	env runtime.Environment
}

// BuildRootCmd builds the root command with all the persistent flags and the
// given subcommands. It acquires the execution lock and initializes the
// profiler before any subcommand runs
func BuildRootCmd(env runtime.Environment, logger *logrus.Logger, subcommands []*cobra.Command) *RootCommand {
	profilerConfig := profiler.Config{}
	var profile io.Closer
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "wikicap",
		Short: "Correlate VPN traffic captures with synthetic Wikipedia browsing",
		Long: "A command for collecting encrypted VPN traffic while a browser visits\n" +
			"random Wikipedia articles, producing one pcap artifact per cycle",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}

			acquired, err := env.Lock().Acquire()
			if err != nil {
				return fmt.Errorf("could not acquire execution lock: %w", err)
			}

			if !acquired {
				return fmt.Errorf("another instance is already running with pid %d", env.Lock().Owner())
			}

			profile, err = env.Profiler().Start(cmd.Context(), profilerConfig)
			if err != nil {
				return fmt.Errorf("could not create profiler: %w", err)
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer func() {
				_ = env.Lock().Release()
			}()

			err := profile.Close()
			if err != nil {
				return fmt.Errorf("could not stop profiler: %w", err)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&profilerConfig.CPU.Enabled, "cpu-profile", false, "profile the run")
	rootCmd.PersistentFlags().StringVar(&profilerConfig.CPU.FileName, "cpu-profile-file", "cpu.pprof",
		"cpu profiling output file")
	rootCmd.PersistentFlags().BoolVar(&profilerConfig.Memory.Enabled, "mem-profile", false, "profile memory")
	rootCmd.PersistentFlags().StringVar(&profilerConfig.Memory.FileName, "mem-profile-file", "mem.pprof",
		"memory profiling output file")
	rootCmd.PersistentFlags().IntVar(&profilerConfig.Memory.Rate, "mem-profile-rate", 1, "memory profiling rate")
	rootCmd.PersistentFlags().BoolVar(&profilerConfig.Trace.Enabled, "trace", false, "trace the run")
	rootCmd.PersistentFlags().StringVar(&profilerConfig.Trace.FileName, "trace-file", "trace.out", "tracing output file")
	rootCmd.PersistentFlags().BoolVar(&profilerConfig.Metrics.Enabled, "metrics", false, "collect runtime metrics")
	rootCmd.PersistentFlags().StringVar(&profilerConfig.Metrics.FileName, "metrics-file", "metrics.out",
		"metrics output file")
	rootCmd.PersistentFlags().DurationVar(&profilerConfig.Metrics.Rate, "metrics-rate", time.Second,
		"metrics sampling rate")

	for _, subcommand := range subcommands {
		rootCmd.AddCommand(subcommand)
	}

	return &RootCommand{
		cmd: rootCmd,
		env: env,
	}
}

// Do executes the root command. The first termination signal cancels the
// command's context and waits for it to wind down, so captures in progress
// can be flushed. A second signal quits immediately
func (r *RootCommand) Do(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sc := r.env.Signal().Notify(syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer r.env.Signal().Reset()

	r.cmd.SetArgs(r.env.Args()[1:])

	cc := make(chan error, 1)
	go func() {
		cc <- r.cmd.ExecuteContext(ctx)
	}()

	select {
	case err := <-cc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-sc:
		cancel()
		select {
		case err := <-cc:
			return err
		case <-sc:
			return fmt.Errorf("interrupted again before winding down, quitting")
		}
	}
}
