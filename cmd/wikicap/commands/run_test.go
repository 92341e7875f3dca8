package commands

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wikicap/wikicap/pkg/config"
	"github.com/wikicap/wikicap/pkg/runtime"
)

func Test_MergeConfig(t *testing.T) {
	t.Parallel()

	base := config.Default()
	base.Run.Cycles = 5
	base.Capture.Interface = "tun0"
	base.Behavior.ClickProbability = 0.9

	flags := config.Default()
	flags.Run.Cycles = 2
	flags.Capture.Interface = "eth1"
	flags.Behavior.ClickProbability = 0.1

	testCases := []struct {
		title    string
		changed  []string
		expected func() config.Config
	}{
		{
			title:   "no flags set keeps the file configuration",
			changed: nil,
			expected: func() config.Config {
				return base
			},
		},
		{
			title:   "a set flag wins over the file",
			changed: []string{"cycles"},
			expected: func() config.Config {
				expected := base
				expected.Run.Cycles = 2
				return expected
			},
		},
		{
			title:   "every set flag is overlaid",
			changed: []string{"cycles", "interface", "click-prob"},
			expected: func() config.Config {
				expected := base
				expected.Run.Cycles = 2
				expected.Capture.Interface = "eth1"
				expected.Behavior.ClickProbability = 0.1
				return expected
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			changedSet := map[string]bool{}
			for _, name := range tc.changed {
				changedSet[name] = true
			}

			merged := mergeConfig(base, flags, func(name string) bool { return changedSet[name] })
			if diff := cmp.Diff(tc.expected(), merged); diff != "" {
				t.Errorf("merged configuration does not match expectations:\n%s", diff)
			}
		})
	}
}

func Test_RunCmdDefaults(t *testing.T) {
	t.Parallel()

	cmd := BuildRunCmd(runtime.NewFakeRuntime(nil, nil), testLogger())

	testCases := []struct {
		flag     string
		expected string
	}{
		{"interface", "enp0s8"},
		{"filter", "udp port 1194"},
		{"poll-window", time.Second.String()},
		{"flush-policy", "fail-fast"},
		{"cycles", "1"},
		{"pages", "10"},
		{"outdir", "captures"},
		{"prefix", "wiki_traffic"},
		{"click-prob", "0.25"},
		{"max-clicks", "1"},
	}

	for _, tc := range testCases {
		flag := cmd.Flags().Lookup(tc.flag)
		if flag == nil {
			t.Errorf("flag %q is not defined", tc.flag)
			continue
		}

		if flag.DefValue != tc.expected {
			t.Errorf("flag %q defaults to %q, expected %q", tc.flag, flag.DefValue, tc.expected)
		}
	}
}
