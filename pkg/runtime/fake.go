package runtime

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/wikicap/wikicap/pkg/runtime/profiler"
)

// FakeExecutor is an Executor for testing. Every call returns the same
// scripted output and error, and the executed command lines are recorded
// for inspection
type FakeExecutor struct {
	output   []byte
	err      error
	commands []string
}

// NewFakeExecutor creates a FakeExecutor scripted to return the given
// output and error
func NewFakeExecutor(output []byte, err error) *FakeExecutor {
	return &FakeExecutor{
		output: output,
		err:    err,
	}
}

// Exec implements the Executor interface recording the command line
func (f *FakeExecutor) Exec(cmd string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{cmd}, args...), " ")
	f.commands = append(f.commands, line)

	return f.output, f.err
}

// CmdHistory returns the executed command lines, in order
func (f *FakeExecutor) CmdHistory() []string {
	return f.commands
}

// FakeProfiler is a noop Profiler for testing
type FakeProfiler struct{}

// NewFakeProfiler creates a FakeProfiler
func NewFakeProfiler() *FakeProfiler {
	return &FakeProfiler{}
}

// Start implements the Profiler interface without collecting anything
func (p *FakeProfiler) Start(context.Context, profiler.Config) (io.Closer, error) {
	return p, nil
}

// Close implements io.Closer as a noop
func (p *FakeProfiler) Close() error {
	return nil
}

// FakeLock is a Lock for testing
type FakeLock struct {
	// Held simulates the lock being owned by another process
	Held  bool
	owner int
}

// NewFakeLock creates a FakeLock that is free
func NewFakeLock() *FakeLock {
	return &FakeLock{
		owner: -1,
	}
}

// Acquire implements the Lock interface. It fails to acquire when Held is set
func (f *FakeLock) Acquire() (bool, error) {
	if f.Held {
		return false, nil
	}

	f.owner = os.Getpid()

	return true, nil
}

// Release implements the Lock interface
func (f *FakeLock) Release() error {
	f.owner = -1

	return nil
}

// Owner implements the Lock interface
func (f *FakeLock) Owner() int {
	return f.owner
}

// FakeSignal is a Signals implementation with a channel tests can deliver
// signals through
type FakeSignal struct {
	channel chan os.Signal
}

// NewFakeSignal creates a FakeSignal
func NewFakeSignal() *FakeSignal {
	return &FakeSignal{
		channel: make(chan os.Signal),
	}
}

// Notify implements the Signals interface. The requested signals are
// ignored, the channel receives whatever the test sends
func (f *FakeSignal) Notify(...os.Signal) <-chan os.Signal {
	return f.channel
}

// Reset implements the Signals interface as a noop
func (f *FakeSignal) Reset(...os.Signal) {
}

// Send delivers a signal, blocking until it is received
func (f *FakeSignal) Send(signal os.Signal) {
	f.channel <- signal
}

// FakeRuntime is an Environment assembled from fakes for testing
type FakeRuntime struct {
	FakeArgs     []string
	FakeVars     map[string]string
	FakeExecutor *FakeExecutor
	FakeProfiler *FakeProfiler
	FakeLock     *FakeLock
	FakeSignal   *FakeSignal
}

// NewFakeRuntime creates a FakeRuntime with the given arguments and
// environment variables
func NewFakeRuntime(args []string, vars map[string]string) *FakeRuntime {
	return &FakeRuntime{
		FakeArgs:     args,
		FakeVars:     vars,
		FakeExecutor: NewFakeExecutor(nil, nil),
		FakeProfiler: NewFakeProfiler(),
		FakeLock:     NewFakeLock(),
		FakeSignal:   NewFakeSignal(),
	}
}

// Executor implements the Environment interface
func (f *FakeRuntime) Executor() Executor {
	return f.FakeExecutor
}

// Profiler implements the Environment interface
func (f *FakeRuntime) Profiler() profiler.Profiler {
	return f.FakeProfiler
}

// Lock implements the Environment interface
func (f *FakeRuntime) Lock() Lock {
	return f.FakeLock
}

// Signal implements the Environment interface
func (f *FakeRuntime) Signal() Signals {
	return f.FakeSignal
}

// Vars implements the Environment interface
func (f *FakeRuntime) Vars() map[string]string {
	return f.FakeVars
}

// Args implements the Environment interface
func (f *FakeRuntime) Args() []string {
	return f.FakeArgs
}
