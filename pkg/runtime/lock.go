package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock guards against concurrent executions of the process
type Lock interface {
	// Acquire takes ownership of the lock. It returns false when another
	// running process owns it. Acquiring a lock already owned by this
	// process succeeds
	Acquire() (bool, error)
	// Release gives up ownership of the lock. It fails if this process is
	// not the owner
	Release() error
	// Owner returns the pid recorded in the lock, or -1 when the lock is
	// free or its content is not a pid
	Owner() int
}

// pidLock is a Lock backed by a file holding the owner's pid. Ownership is
// taken by hard-linking a process-private file into place, which is atomic
// on POSIX filesystems. A lock whose recorded owner is no longer running is
// considered stale and can be taken over
type pidLock struct {
	path string
}

// DefaultLock returns the Lock guarding the currently running program
func DefaultLock() Lock {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}

	name := filepath.Base(os.Args[0]) + ".lock"

	return &pidLock{
		path: filepath.Join(dir, name),
	}
}

// NewFileLock returns a Lock backed by the file at the given path
func NewFileLock(path string) Lock {
	return &pidLock{
		path: path,
	}
}

// Acquire implements the Lock interface
func (l *pidLock) Acquire() (bool, error) {
	temp, err := l.writeTemp()
	if err != nil {
		return false, err
	}

	defer func() {
		_ = os.Remove(temp)
	}()

	err = os.Link(temp, l.path)
	if err == nil {
		return true, nil
	}

	if !os.IsExist(err) {
		return false, err
	}

	owner, err := readOwner(l.path)
	if err != nil {
		return false, fmt.Errorf("could not read lock owner: %w", err)
	}

	if owner == os.Getpid() {
		return true, nil
	}

	if processRunning(owner) {
		return false, nil
	}

	// the recorded owner is gone, take the stale lock over
	err = os.Remove(l.path)
	if err != nil {
		return false, err
	}

	err = os.Link(temp, l.path)
	if os.IsExist(err) {
		// another process took the stale lock first
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Release implements the Lock interface
func (l *pidLock) Release() error {
	owner, err := readOwner(l.path)
	if err != nil {
		return err
	}

	if owner != os.Getpid() {
		return fmt.Errorf("lock is not owned by this process")
	}

	return os.Remove(l.path)
}

// Owner implements the Lock interface
func (l *pidLock) Owner() int {
	owner, err := readOwner(l.path)
	if err != nil {
		return -1
	}

	return owner
}

// writeTemp writes this process' pid to a file only it uses, so it can be
// linked into place without racing other processes
func (l *pidLock) writeTemp() (string, error) {
	pid := os.Getpid()
	temp := fmt.Sprintf("%s.%d", l.path, pid)

	err := os.WriteFile(temp, []byte(strconv.Itoa(pid)), 0o644)
	if err != nil {
		return "", err
	}

	return temp, nil
}

// readOwner returns the pid recorded in the lock file. Content that is not
// a pid is reported as owner -1, not as an error
func readOwner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return -1, nil //nolint:nilerr
	}

	return pid, nil
}

// processRunning reports whether a process with the given pid exists
func processRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	// FindProcess never fails on unix
	process, _ := os.FindProcess(pid)

	// signal 0 performs the permission checks without delivering anything
	return process.Signal(syscall.Signal(0)) == nil
}
