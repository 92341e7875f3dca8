// Package runtime abstracts the execution environment of a process
package runtime

import (
	"os"
	"strings"

	"github.com/wikicap/wikicap/pkg/runtime/profiler"
)

// Environment abstracts the execution environment of a process.
// It allows introducing mocks for testing.
type Environment interface {
	// Executor returns a process executor that abstracts os/exec
	Executor() Executor
	// Lock returns the lock that guards against concurrent executions
	Lock() Lock
	// Profiler returns the profiler for the process
	Profiler() profiler.Profiler
	// Signal returns the signal handler for the process
	Signal() Signals
	// Vars returns the environment variables of the process
	Vars() map[string]string
	// Args returns the command line arguments of the process
	Args() []string
}

// environment keeps the state of the execution environment
type environment struct {
	executor Executor
	lock     Lock
	profiler profiler.Profiler
	signal   Signals
	vars     map[string]string
	args     []string
}

// DefaultEnvironment returns the default execution environment
func DefaultEnvironment() Environment {
	return environment{
		executor: DefaultExecutor(),
		lock:     DefaultLock(),
		profiler: profiler.NewProfiler(),
		signal:   DefaultSignals(),
		vars:     environFromOS(),
		args:     os.Args,
	}
}

func (e environment) Executor() Executor {
	return e.executor
}

func (e environment) Lock() Lock {
	return e.lock
}

func (e environment) Profiler() profiler.Profiler {
	return e.profiler
}

func (e environment) Signal() Signals {
	return e.signal
}

func (e environment) Vars() map[string]string {
	return e.vars
}

func (e environment) Args() []string {
	return e.args
}

// environFromOS converts the process environment into a map
func environFromOS() map[string]string {
	vars := map[string]string{}
	for _, v := range os.Environ() {
		k, value, found := strings.Cut(v, "=")
		if !found {
			continue
		}
		vars[k] = value
	}

	return vars
}
