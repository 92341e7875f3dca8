package netif_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wikicap/wikicap/pkg/netif"
	"github.com/wikicap/wikicap/pkg/runtime"
)

func Test_InspectorState(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name          string
		output        string
		expectedState string
		expectedCmd   []string
	}{
		{
			name:          "Reads the state of a regular interface",
			output:        "enp0s8           UP             08:00:27:8f:55:04 <BROADCAST,MULTICAST,UP,LOWER_UP>\n",
			expectedState: "UP",
			expectedCmd:   []string{"ip -br link show dev enp0s8"},
		},
		{
			name:          "Reads the state of a tunnel interface",
			output:        "enp0s8           UNKNOWN        <POINTOPOINT,MULTICAST,NOARP,UP,LOWER_UP>\n",
			expectedState: "UNKNOWN",
			expectedCmd:   []string{"ip -br link show dev enp0s8"},
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fakeExec := runtime.NewFakeExecutor([]byte(tc.output), nil)
			inspector := netif.New(fakeExec)

			state, err := inspector.State("enp0s8")
			if err != nil {
				t.Fatalf("returned error: %v", err)
			}

			if state != tc.expectedState {
				t.Errorf("returned state %q, expected %q", state, tc.expectedState)
			}

			if diff := cmp.Diff(tc.expectedCmd, fakeExec.CmdHistory()); diff != "" {
				t.Errorf("commands ran do not match expectations:\n%s", diff)
			}
		})
	}
}

func Test_InspectorPropagatesErrors(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("propagated error")

	fakeExec := runtime.NewFakeExecutor([]byte(`Device "enp0s9" does not exist.`), expectedErr)
	inspector := netif.New(fakeExec)

	_, err := inspector.State("enp0s9")
	if !errors.Is(err, expectedErr) {
		t.Fatalf("returned error %q, expected %q", err, expectedErr)
	}
}

func Test_InspectorRejectsUnexpectedOutput(t *testing.T) {
	t.Parallel()

	fakeExec := runtime.NewFakeExecutor([]byte("enp0s8\n"), nil)
	inspector := netif.New(fakeExec)

	_, err := inspector.State("enp0s8")
	if err == nil {
		t.Fatalf("should have failed")
	}
}
