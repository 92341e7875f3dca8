package runtime

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// deadPid returns the pid of a process that has already exited
func deadPid(t *testing.T) string {
	t.Helper()

	output, err := exec.Command("sh", "-c", "echo $$").Output()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return strings.TrimSpace(string(output))
}

// writeLock creates a lock file recording the given owner
func writeLock(t *testing.T, path string, owner string) {
	t.Helper()

	err := os.WriteFile(path, []byte(owner), 0o600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_Acquire(t *testing.T) {
	t.Parallel()

	dead := deadPid(t)

	testCases := []struct {
		title    string
		held     bool
		owner    string
		acquired bool
	}{
		{
			title:    "free lock",
			held:     false,
			acquired: true,
		},
		{
			title:    "empty lock file",
			held:     true,
			owner:    "",
			acquired: true,
		},
		{
			title:    "lock already owned by this process",
			held:     true,
			owner:    strconv.Itoa(os.Getpid()),
			acquired: true,
		},
		{
			title:    "lock owned by a running process",
			held:     true,
			owner:    strconv.Itoa(os.Getppid()),
			acquired: false,
		},
		{
			title:    "stale lock owned by a dead process",
			held:     true,
			owner:    dead,
			acquired: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "wikicap.lock")
			if tc.held {
				writeLock(t, path, tc.owner)
			}

			acquired, err := NewFileLock(path).Acquire()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if acquired != tc.acquired {
				t.Errorf("expected acquired %t got %t", tc.acquired, acquired)
			}
		})
	}
}

func Test_Release(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title       string
		held        bool
		owner       string
		expectError bool
	}{
		{
			title:       "lock owned by this process",
			held:        true,
			owner:       strconv.Itoa(os.Getpid()),
			expectError: false,
		},
		{
			title:       "free lock",
			held:        false,
			expectError: true,
		},
		{
			title:       "empty lock file",
			held:        true,
			owner:       "",
			expectError: true,
		},
		{
			title:       "lock owned by another process",
			held:        true,
			owner:       strconv.Itoa(os.Getppid()),
			expectError: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "wikicap.lock")
			if tc.held {
				writeLock(t, path, tc.owner)
			}

			err := NewFileLock(path).Release()
			if tc.expectError && err == nil {
				t.Errorf("should have failed")
				return
			}

			if !tc.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if !tc.expectError {
				if _, err := os.Stat(path); !os.IsNotExist(err) {
					t.Errorf("lock file was not removed on release")
				}
			}
		})
	}
}

func Test_Owner(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title    string
		held     bool
		owner    string
		expected int
	}{
		{
			title:    "lock owned by this process",
			held:     true,
			owner:    strconv.Itoa(os.Getpid()),
			expected: os.Getpid(),
		},
		{
			title:    "free lock",
			held:     false,
			expected: -1,
		},
		{
			title:    "empty lock file",
			held:     true,
			owner:    "",
			expected: -1,
		},
		{
			title:    "lock owned by another process",
			held:     true,
			owner:    strconv.Itoa(os.Getppid()),
			expected: os.Getppid(),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "wikicap.lock")
			if tc.held {
				writeLock(t, path, tc.owner)
			}

			if owner := NewFileLock(path).Owner(); owner != tc.expected {
				t.Errorf("expected owner %d got %d", tc.expected, owner)
			}
		})
	}
}

func Test_LockLifecycle(t *testing.T) {
	t.Parallel()

	lock := NewFileLock(filepath.Join(t.TempDir(), "wikicap.lock"))

	acquired, err := lock.Acquire()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !acquired {
		t.Fatalf("a free lock must be acquired")
	}

	if owner := lock.Owner(); owner != os.Getpid() {
		t.Errorf("expected this process as owner got %d", owner)
	}

	err = lock.Release()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if owner := lock.Owner(); owner != -1 {
		t.Errorf("expected a free lock after release got owner %d", owner)
	}
}
