// Package config defines the configuration of a collection run and its
// loading from an optional TOML file. Values not present in the file keep
// their defaults, which the command line can override afterwards.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wikicap/wikicap/pkg/behavior"
	"github.com/wikicap/wikicap/pkg/browse"
	"github.com/wikicap/wikicap/pkg/collector"
	"github.com/wikicap/wikicap/pkg/utils"
)

const (
	// EnvChromeDriver points at the chromedriver binary to use
	EnvChromeDriver = "WIKICAP_CHROMEDRIVER"

	// EnvHeadless runs the browser without a visible window
	EnvHeadless = "WIKICAP_HEADLESS"
)

// Duration wraps time.Duration so it can be given as a string such as "2.5s"
// in configuration files
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))

	return err
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Run holds the options that shape the collection run
type Run struct {
	Cycles      int      `toml:"cycles"`
	Pages       int      `toml:"pages"`
	OutputDir   string   `toml:"output_dir"`
	Prefix      string   `toml:"prefix"`
	Seed        int64    `toml:"seed"`
	WarmupDelay Duration `toml:"warmup_delay"`
	SettleDelay Duration `toml:"settle_delay"`
	JoinTimeout Duration `toml:"join_timeout"`
}

// Capture holds the options of the capture side. A zero snapshot length
// keeps the capture mechanism's default
type Capture struct {
	Interface      string   `toml:"interface"`
	Filter         string   `toml:"filter"`
	PollWindow     Duration `toml:"poll_window"`
	FlushPolicy    string   `toml:"flush_policy"`
	SnapshotLength int32    `toml:"snapshot_length"`
	Promiscuous    bool     `toml:"promiscuous"`
}

// Browser holds the options of the browsing side
type Browser struct {
	Headless         bool   `toml:"headless"`
	ChromeDriverPath string `toml:"chromedriver_path"`
	EntryURL         string `toml:"entry_url"`
	LinkSelector     string `toml:"link_selector"`
}

// Behavior holds the tunable knobs of the behavior profile
type Behavior struct {
	LoadMin          Duration `toml:"load_min"`
	LoadMax          Duration `toml:"load_max"`
	ReadMin          Duration `toml:"read_min"`
	ReadMax          Duration `toml:"read_max"`
	IdleProbability  float64  `toml:"idle_probability"`
	IdleMin          Duration `toml:"idle_min"`
	IdleMax          Duration `toml:"idle_max"`
	ScrollsMin       int      `toml:"scrolls_min"`
	ScrollsMax       int      `toml:"scrolls_max"`
	ScrollPixelsMin  int      `toml:"scroll_pixels_min"`
	ScrollPixelsMax  int      `toml:"scroll_pixels_max"`
	ScrollPauseMin   Duration `toml:"scroll_pause_min"`
	ScrollPauseMax   Duration `toml:"scroll_pause_max"`
	ClickProbability float64  `toml:"click_probability"`
	MaxClicksPerPage int      `toml:"max_clicks_per_page"`
}

// Config is the full configuration of a collection run
type Config struct {
	Run      Run      `toml:"run"`
	Capture  Capture  `toml:"capture"`
	Browser  Browser  `toml:"browser"`
	Behavior Behavior `toml:"behavior"`
}

// Default returns the configuration used when no file and no flags are given
func Default() Config {
	stock := behavior.Default()

	return Config{
		Run: Run{
			Cycles:      1,
			Pages:       10,
			OutputDir:   "captures",
			Prefix:      "wiki_traffic",
			WarmupDelay: Duration{collector.DefaultWarmupDelay},
			SettleDelay: Duration{collector.DefaultSettleDelay},
			JoinTimeout: Duration{collector.DefaultJoinTimeout},
		},
		Capture: Capture{
			Interface:   "enp0s8",
			Filter:      "udp port 1194",
			PollWindow:  Duration{time.Second},
			FlushPolicy: "fail-fast",
			Promiscuous: true,
		},
		Browser: Browser{
			Headless:         utils.BoolEnv(EnvHeadless, false),
			ChromeDriverPath: utils.StringEnv(EnvChromeDriver, ""),
			EntryURL:         browse.DefaultEntryURL,
			LinkSelector:     browse.DefaultLinkSelector,
		},
		Behavior: Behavior{
			LoadMin:          Duration{stock.PageLoadWait.Min},
			LoadMax:          Duration{stock.PageLoadWait.Max},
			ReadMin:          Duration{stock.ReadTime.Min},
			ReadMax:          Duration{stock.ReadTime.Max},
			IdleProbability:  stock.IdleProbability,
			IdleMin:          Duration{stock.IdleTime.Min},
			IdleMax:          Duration{stock.IdleTime.Max},
			ScrollsMin:       stock.ScrollsPerPage.Min,
			ScrollsMax:       stock.ScrollsPerPage.Max,
			ScrollPixelsMin:  stock.ScrollPixels.Min,
			ScrollPixelsMax:  stock.ScrollPixels.Max,
			ScrollPauseMin:   Duration{stock.ScrollPause.Min},
			ScrollPauseMax:   Duration{stock.ScrollPause.Max},
			ClickProbability: stock.ClickProbability,
			MaxClicksPerPage: stock.MaxClicksPerPage,
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
// Unknown keys are rejected to catch misspelled options
func Load(path string) (Config, error) {
	config := Default()

	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return Config{}, fmt.Errorf("reading configuration file %q: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown keys in configuration file %q: %v", path, undecoded)
	}

	return config, nil
}

// Clamped returns a copy of the configuration with the behavior knobs forced
// into their valid ranges
func (c Config) Clamped() Config {
	if c.Behavior.ClickProbability < 0.0 {
		c.Behavior.ClickProbability = 0.0
	}

	if c.Behavior.ClickProbability > 1.0 {
		c.Behavior.ClickProbability = 1.0
	}

	if c.Behavior.IdleProbability < 0.0 {
		c.Behavior.IdleProbability = 0.0
	}

	if c.Behavior.IdleProbability > 1.0 {
		c.Behavior.IdleProbability = 1.0
	}

	if c.Behavior.MaxClicksPerPage < 0 {
		c.Behavior.MaxClicksPerPage = 0
	}

	return c
}

// BehaviorModel builds the behavior profile from the configured knobs
func (c Config) BehaviorModel() behavior.Behavior {
	b := behavior.Default()
	b.PageLoadWait = behavior.Span{Min: c.Behavior.LoadMin.Duration, Max: c.Behavior.LoadMax.Duration}
	b.ReadTime = behavior.Span{Min: c.Behavior.ReadMin.Duration, Max: c.Behavior.ReadMax.Duration}
	b.IdleProbability = c.Behavior.IdleProbability
	b.IdleTime = behavior.Span{Min: c.Behavior.IdleMin.Duration, Max: c.Behavior.IdleMax.Duration}
	b.ScrollsPerPage = behavior.Steps{Min: c.Behavior.ScrollsMin, Max: c.Behavior.ScrollsMax}
	b.ScrollPixels = behavior.Steps{Min: c.Behavior.ScrollPixelsMin, Max: c.Behavior.ScrollPixelsMax}
	b.ScrollPause = behavior.Span{Min: c.Behavior.ScrollPauseMin.Duration, Max: c.Behavior.ScrollPauseMax.Duration}
	b.ClickProbability = c.Behavior.ClickProbability
	b.MaxClicksPerPage = c.Behavior.MaxClicksPerPage

	return b
}
