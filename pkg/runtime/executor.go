package runtime

import (
	"os/exec"
)

// Executor runs external commands
type Executor interface {
	// Exec runs a command to completion and returns its combined stdout
	// and stderr
	Exec(cmd string, args ...string) ([]byte, error)
}

// osExecutor runs commands through os/exec
type osExecutor struct{}

// DefaultExecutor returns an Executor backed by os/exec
func DefaultExecutor() Executor {
	return osExecutor{}
}

// Exec implements the Executor interface
func (osExecutor) Exec(cmd string, args ...string) ([]byte, error) {
	return exec.Command(cmd, args...).CombinedOutput()
}
