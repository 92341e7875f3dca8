package capture

import (
	"sync"
	"time"
)

// FakePoll is a scripted result for a single FakeCapturer poll
type FakePoll struct {
	Packets []Packet
	Err     error
}

// FakeCapturer is a Capturer for testing. Each Poll consumes the next
// scripted result; once the script is exhausted polls return empty results.
// Writes are recorded for inspection. All methods are safe for concurrent
// use, as the capture loop polls from its own goroutine.
type FakeCapturer struct {
	mutex    sync.Mutex
	script   []FakePoll
	polls    int
	writes   []Artifact
	written  [][]Packet
	writeErr error
}

// NewFakeCapturer creates a FakeCapturer that plays back the given polls
func NewFakeCapturer(script ...FakePoll) *FakeCapturer {
	return &FakeCapturer{
		script: script,
	}
}

// SetWriteError makes subsequent calls to WriteArtifact fail with the given error
func (f *FakeCapturer) SetWriteError(err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.writeErr = err
}

// Poll implements the Capturer interface returning the next scripted result
func (f *FakeCapturer) Poll(string, string, time.Duration) ([]Packet, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.polls >= len(f.script) {
		f.polls++
		return nil, nil
	}

	next := f.script[f.polls]
	f.polls++

	return next.Packets, next.Err
}

// WriteArtifact implements the Capturer interface recording the write
func (f *FakeCapturer) WriteArtifact(path string, packets []Packet) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}

	f.writes = append(f.writes, Artifact{Path: path, Packets: len(packets)})
	f.written = append(f.written, packets)

	return nil
}

// PollInvocations returns the number of calls to Poll
func (f *FakeCapturer) PollInvocations() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.polls
}

// WriteHistory returns the artifacts recorded by WriteArtifact
func (f *FakeCapturer) WriteHistory() []Artifact {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	history := make([]Artifact, len(f.writes))
	copy(history, f.writes)

	return history
}

// LastWritten returns the packets passed to the last WriteArtifact call
func (f *FakeCapturer) LastWritten() []Packet {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if len(f.written) == 0 {
		return nil
	}

	return f.written[len(f.written)-1]
}

// StalledCapturer is a Capturer whose polls never return. It exercises
// join timeouts in tests.
type StalledCapturer struct{}

// Poll implements the Capturer interface, blocking forever
func (StalledCapturer) Poll(string, string, time.Duration) ([]Packet, error) {
	select {}
}

// WriteArtifact implements the Capturer interface as a noop
func (StalledCapturer) WriteArtifact(string, []Packet) error {
	return nil
}
