package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wikicap/wikicap/pkg/behavior"
	"github.com/wikicap/wikicap/pkg/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wikicap.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return path
}

func Test_DefaultMatchesStockBehavior(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(behavior.Default(), config.Default().BehaviorModel()); diff != "" {
		t.Errorf("defaults do not match the stock behavior profile:\n%s", diff)
	}
}

func Test_LoadOverlaysFileOnDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
[run]
cycles = 3
output_dir = "/data/captures"
settle_delay = "1s"

[capture]
interface = "tun0"
poll_window = "250ms"
promiscuous = false

[behavior]
click_probability = 0.5
read_min = "1s"
idle_probability = 0.0
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Run.Cycles != 3 {
		t.Errorf("expected 3 cycles got %d", cfg.Run.Cycles)
	}

	if cfg.Run.OutputDir != "/data/captures" {
		t.Errorf("unexpected output directory %q", cfg.Run.OutputDir)
	}

	if cfg.Run.SettleDelay.Duration != time.Second {
		t.Errorf("unexpected settle delay %s", cfg.Run.SettleDelay.Duration)
	}

	if cfg.Capture.Interface != "tun0" {
		t.Errorf("unexpected interface %q", cfg.Capture.Interface)
	}

	if cfg.Capture.PollWindow.Duration != 250*time.Millisecond {
		t.Errorf("unexpected poll window %s", cfg.Capture.PollWindow.Duration)
	}

	if cfg.Capture.Promiscuous {
		t.Errorf("expected promiscuous mode disabled")
	}

	if cfg.Behavior.ClickProbability != 0.5 {
		t.Errorf("unexpected click probability %f", cfg.Behavior.ClickProbability)
	}

	if cfg.Behavior.ReadMin.Duration != time.Second {
		t.Errorf("unexpected read minimum %s", cfg.Behavior.ReadMin.Duration)
	}

	if cfg.Behavior.IdleProbability != 0.0 {
		t.Errorf("unexpected idle probability %f", cfg.Behavior.IdleProbability)
	}

	// options absent from the file keep their defaults
	if cfg.Run.Pages != 10 {
		t.Errorf("expected default pages got %d", cfg.Run.Pages)
	}

	if cfg.Run.WarmupDelay.Duration != 2*time.Second {
		t.Errorf("expected default warmup delay got %s", cfg.Run.WarmupDelay.Duration)
	}

	if cfg.Capture.Filter != "udp port 1194" {
		t.Errorf("expected default filter got %q", cfg.Capture.Filter)
	}

	if cfg.Behavior.ReadMax.Duration != 6*time.Second {
		t.Errorf("expected default read maximum got %s", cfg.Behavior.ReadMax.Duration)
	}

	if cfg.Behavior.ScrollPauseMax.Duration != 3*time.Second {
		t.Errorf("expected default scroll pause maximum got %s", cfg.Behavior.ScrollPauseMax.Duration)
	}
}

func Test_LoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
[run]
cicles = 3
`)

	_, err := config.Load(path)
	if err == nil {
		t.Fatalf("should have failed")
	}
}

func Test_LoadRejectsMalformedFiles(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `[run`)

	_, err := config.Load(path)
	if err == nil {
		t.Fatalf("should have failed")
	}
}

func Test_LoadReportsMissingFiles(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatalf("should have failed")
	}
}

func Test_Clamped(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title        string
		mutate       func(config *config.Config)
		expectedProb float64
		expectedIdle float64
		expectedMax  int
	}{
		{
			title:        "values in range are untouched",
			mutate:       func(*config.Config) {},
			expectedProb: 0.25,
			expectedIdle: 0.15,
			expectedMax:  1,
		},
		{
			title:        "probability above one",
			mutate:       func(c *config.Config) { c.Behavior.ClickProbability = 1.5 },
			expectedProb: 1.0,
			expectedIdle: 0.15,
			expectedMax:  1,
		},
		{
			title:        "negative probability",
			mutate:       func(c *config.Config) { c.Behavior.ClickProbability = -0.5 },
			expectedProb: 0.0,
			expectedIdle: 0.15,
			expectedMax:  1,
		},
		{
			title:        "idle probability above one",
			mutate:       func(c *config.Config) { c.Behavior.IdleProbability = 2.0 },
			expectedProb: 0.25,
			expectedIdle: 1.0,
			expectedMax:  1,
		},
		{
			title:        "negative click limit",
			mutate:       func(c *config.Config) { c.Behavior.MaxClicksPerPage = -2 },
			expectedProb: 0.25,
			expectedIdle: 0.15,
			expectedMax:  0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tc.mutate(&cfg)

			clamped := cfg.Clamped()
			if clamped.Behavior.ClickProbability != tc.expectedProb {
				t.Errorf("expected probability %f got %f", tc.expectedProb, clamped.Behavior.ClickProbability)
			}

			if clamped.Behavior.IdleProbability != tc.expectedIdle {
				t.Errorf("expected idle probability %f got %f", tc.expectedIdle, clamped.Behavior.IdleProbability)
			}

			if clamped.Behavior.MaxClicksPerPage != tc.expectedMax {
				t.Errorf("expected click limit %d got %d", tc.expectedMax, clamped.Behavior.MaxClicksPerPage)
			}
		})
	}
}

func Test_DefaultReadsEnvironment(t *testing.T) {
	t.Setenv(config.EnvChromeDriver, "/opt/chromedriver")
	t.Setenv(config.EnvHeadless, "true")

	cfg := config.Default()
	if cfg.Browser.ChromeDriverPath != "/opt/chromedriver" {
		t.Errorf("unexpected chromedriver path %q", cfg.Browser.ChromeDriverPath)
	}

	if !cfg.Browser.Headless {
		t.Errorf("expected headless browsing")
	}
}
