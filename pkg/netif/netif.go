// Package netif houses the Inspector object, which can be used to check the
// state of network interfaces by wrapping the ip(8) command.
package netif

import (
	"fmt"
	"strings"

	"github.com/wikicap/wikicap/pkg/runtime"
)

// Inspector implements querying network interfaces.
type Inspector struct {
	exec runtime.Executor
}

// New returns a new Inspector.
func New(executor runtime.Executor) Inspector {
	return Inspector{
		exec: executor,
	}
}

// State returns the operational state of the given device, such as UP, DOWN
// or UNKNOWN. It fails if the device does not exist.
func (in Inspector) State(dev string) (string, error) {
	out, err := in.exec.Exec("ip", "-br", "link", "show", "dev", dev)
	if err != nil {
		return "", fmt.Errorf("inspecting device %q: %q: %w", dev, string(out), err)
	}

	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return "", fmt.Errorf("unexpected output inspecting device %q: %q", dev, string(out))
	}

	return fields[1], nil
}
