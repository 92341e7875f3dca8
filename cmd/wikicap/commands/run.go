package commands

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wikicap/wikicap/pkg/browse"
	"github.com/wikicap/wikicap/pkg/browse/webdriver"
	"github.com/wikicap/wikicap/pkg/capture"
	"github.com/wikicap/wikicap/pkg/capture/pcap"
	"github.com/wikicap/wikicap/pkg/collector"
	"github.com/wikicap/wikicap/pkg/config"
	"github.com/wikicap/wikicap/pkg/netif"
	"github.com/wikicap/wikicap/pkg/runtime"
	"github.com/wikicap/wikicap/pkg/utils"
)

// BuildRunCmd returns a cobra command that runs collection cycles
func BuildRunCmd(env runtime.Environment, logger *logrus.Logger) *cobra.Command {
	flags := config.Default()
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run collection cycles",
		Long: "Runs the configured number of collection cycles. Each cycle captures the\n" +
			"traffic matching the filter while a browser visits random Wikipedia\n" +
			"articles, and writes one pcap file to the output directory.\n" +
			"Capturing packets requires elevated privileges.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}

				cfg = mergeConfig(loaded, flags, cmd.Flags().Changed)
			}

			return runCollection(cmd, env, logger, cfg.Clamped())
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "TOML configuration file")
	cmd.Flags().StringVarP(&flags.Capture.Interface, "interface", "i", flags.Capture.Interface,
		"network interface to capture from")
	cmd.Flags().StringVar(&flags.Capture.Filter, "filter", flags.Capture.Filter,
		"BPF filter selecting the traffic of interest")
	cmd.Flags().DurationVar(&flags.Capture.PollWindow.Duration, "poll-window", flags.Capture.PollWindow.Duration,
		"time a capture poll can block before rechecking for cancellation")
	cmd.Flags().StringVar(&flags.Capture.FlushPolicy, "flush-policy", flags.Capture.FlushPolicy,
		"what to do with accumulated packets when a poll fails (fail-fast|best-effort)")
	cmd.Flags().IntVarP(&flags.Run.Cycles, "cycles", "c", flags.Run.Cycles, "number of collection cycles")
	cmd.Flags().IntVarP(&flags.Run.Pages, "pages", "p", flags.Run.Pages, "pages visited per cycle")
	cmd.Flags().StringVarP(&flags.Run.OutputDir, "outdir", "o", flags.Run.OutputDir,
		"directory capture files are written to")
	cmd.Flags().StringVar(&flags.Run.Prefix, "prefix", flags.Run.Prefix, "capture file name prefix")
	cmd.Flags().Int64Var(&flags.Run.Seed, "seed", flags.Run.Seed,
		"seed for the behavior randomization, 0 derives one from the clock")
	cmd.Flags().BoolVar(&flags.Browser.Headless, "headless", flags.Browser.Headless,
		"run the browser without a visible window")
	cmd.Flags().StringVar(&flags.Browser.ChromeDriverPath, "chromedriver-path", flags.Browser.ChromeDriverPath,
		"location of the chromedriver binary")
	cmd.Flags().DurationVar(&flags.Behavior.ReadMin.Duration, "read-min", flags.Behavior.ReadMin.Duration,
		"minimum reading pause per page")
	cmd.Flags().DurationVar(&flags.Behavior.ReadMax.Duration, "read-max", flags.Behavior.ReadMax.Duration,
		"maximum reading pause per page")
	cmd.Flags().IntVar(&flags.Behavior.ScrollsMin, "scrolls-min", flags.Behavior.ScrollsMin,
		"minimum scroll gestures per page")
	cmd.Flags().IntVar(&flags.Behavior.ScrollsMax, "scrolls-max", flags.Behavior.ScrollsMax,
		"maximum scroll gestures per page")
	cmd.Flags().IntVar(&flags.Behavior.ScrollPixelsMin, "scroll-px-min", flags.Behavior.ScrollPixelsMin,
		"minimum pixels per scroll gesture")
	cmd.Flags().IntVar(&flags.Behavior.ScrollPixelsMax, "scroll-px-max", flags.Behavior.ScrollPixelsMax,
		"maximum pixels per scroll gesture")
	cmd.Flags().Float64Var(&flags.Behavior.ClickProbability, "click-prob", flags.Behavior.ClickProbability,
		"chance of clicking an internal link on each page")
	cmd.Flags().IntVar(&flags.Behavior.MaxClicksPerPage, "max-clicks", flags.Behavior.MaxClicksPerPage,
		"maximum link clicks per page")

	return cmd
}

// mergeConfig overlays the flags explicitly set on the command line on top
// of the base configuration
func mergeConfig(base config.Config, flags config.Config, changed func(string) bool) config.Config {
	overrides := map[string]func(){
		"interface":         func() { base.Capture.Interface = flags.Capture.Interface },
		"filter":            func() { base.Capture.Filter = flags.Capture.Filter },
		"poll-window":       func() { base.Capture.PollWindow = flags.Capture.PollWindow },
		"flush-policy":      func() { base.Capture.FlushPolicy = flags.Capture.FlushPolicy },
		"cycles":            func() { base.Run.Cycles = flags.Run.Cycles },
		"pages":             func() { base.Run.Pages = flags.Run.Pages },
		"outdir":            func() { base.Run.OutputDir = flags.Run.OutputDir },
		"prefix":            func() { base.Run.Prefix = flags.Run.Prefix },
		"seed":              func() { base.Run.Seed = flags.Run.Seed },
		"headless":          func() { base.Browser.Headless = flags.Browser.Headless },
		"chromedriver-path": func() { base.Browser.ChromeDriverPath = flags.Browser.ChromeDriverPath },
		"read-min":          func() { base.Behavior.ReadMin = flags.Behavior.ReadMin },
		"read-max":          func() { base.Behavior.ReadMax = flags.Behavior.ReadMax },
		"scrolls-min":       func() { base.Behavior.ScrollsMin = flags.Behavior.ScrollsMin },
		"scrolls-max":       func() { base.Behavior.ScrollsMax = flags.Behavior.ScrollsMax },
		"scroll-px-min":     func() { base.Behavior.ScrollPixelsMin = flags.Behavior.ScrollPixelsMin },
		"scroll-px-max":     func() { base.Behavior.ScrollPixelsMax = flags.Behavior.ScrollPixelsMax },
		"click-prob":        func() { base.Behavior.ClickProbability = flags.Behavior.ClickProbability },
		"max-clicks":        func() { base.Behavior.MaxClicksPerPage = flags.Behavior.MaxClicksPerPage },
	}

	for name, apply := range overrides {
		if changed(name) {
			apply()
		}
	}

	return base
}

func runCollection(cmd *cobra.Command, env runtime.Environment, logger *logrus.Logger, cfg config.Config) error {
	if err := pcap.CheckPrivileges(); err != nil {
		return err
	}

	state, err := netif.New(env.Executor()).State(cfg.Capture.Interface)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"iface": cfg.Capture.Interface,
		"state": state,
	}).Info("capture interface ready")

	flush, err := capture.ParseFlushPolicy(cfg.Capture.FlushPolicy)
	if err != nil {
		return err
	}

	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger.WithField("seed", seed).Info("behavior randomization seeded")

	sniffer := pcap.NewSniffer(pcap.Config{
		SnapshotLen: cfg.Capture.SnapshotLength,
		Promiscuous: cfg.Capture.Promiscuous,
	})
	defer sniffer.Close()

	loop, err := capture.NewLoop(sniffer, capture.Config{
		Interface:  cfg.Capture.Interface,
		Filter:     cfg.Capture.Filter,
		PollWindow: cfg.Capture.PollWindow.Duration,
		Flush:      flush,
	}, logger)
	if err != nil {
		return err
	}

	sim, err := browse.NewSimulator(cfg.BehaviorModel(), browse.Config{
		EntryURL:     cfg.Browser.EntryURL,
		LinkSelector: cfg.Browser.LinkSelector,
	}, rand.New(rand.NewSource(seed)), logger)
	if err != nil {
		return err
	}

	driver := webdriver.NewDriver(webdriver.Config{
		ChromeDriverPath: cfg.Browser.ChromeDriverPath,
		Headless:         cfg.Browser.Headless,
	}, logger)

	c, err := collector.New(loop, sim, driver.Factory(), collector.Config{
		Cycles:      cfg.Run.Cycles,
		Pages:       cfg.Run.Pages,
		OutputDir:   cfg.Run.OutputDir,
		Prefix:      cfg.Run.Prefix,
		WarmupDelay: cfg.Run.WarmupDelay.Duration,
		SettleDelay: cfg.Run.SettleDelay.Duration,
		JoinTimeout: cfg.Run.JoinTimeout.Duration,
	}, logger)
	if err != nil {
		return err
	}

	results, err := c.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		logger.Warn("run interrupted, keeping the cycles already collected")
		err = nil
	}

	if summaryErr := printSummary(cmd.OutOrStdout(), results); summaryErr != nil && err == nil {
		err = summaryErr
	}

	return err
}

// printSummary renders the table of cycle outcomes for the run
func printSummary(out io.Writer, results []collector.CycleResult) error {
	if len(results) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("CYCLE", "CAPTURE FILE", "PACKETS", "DURATION", "OUTCOME")
	for _, result := range results {
		path := result.Artifact.Path
		if path == "" {
			path = "-"
		}

		outcome := "ok"
		switch {
		case errors.Is(result.Err, context.Canceled):
			outcome = "interrupted"
		case result.Err != nil:
			outcome = "failed"
		}

		err := table.Append(
			strconv.Itoa(result.Cycle),
			path,
			strconv.Itoa(result.Artifact.Packets),
			utils.DurationSeconds(result.Duration),
			outcome,
		)
		if err != nil {
			return err
		}
	}

	return table.Render()
}
