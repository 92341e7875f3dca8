package runtime

import (
	"os"
	"os/signal"
)

// Signals notifies about operating system signals sent to the process
type Signals interface {
	// Notify returns a channel receiving the given signals
	Notify(...os.Signal) <-chan os.Signal
	// Reset stops the delivery of the given signals. Without arguments,
	// the delivery of all signals is stopped
	Reset(...os.Signal)
}

// osSignals delivers signals through the os/signal package
type osSignals struct {
	channel chan os.Signal
}

// DefaultSignals returns a Signals backed by os/signal
func DefaultSignals() Signals {
	// one signal is buffered so a signal arriving between receives,
	// such as a second interrupt during the wind down, is not dropped
	return &osSignals{
		channel: make(chan os.Signal, 1),
	}
}

// Notify implements the Signals interface
func (s *osSignals) Notify(signals ...os.Signal) <-chan os.Signal {
	signal.Notify(s.channel, signals...)

	return s.channel
}

// Reset implements the Signals interface
func (s *osSignals) Reset(signals ...os.Signal) {
	signal.Reset(signals...)
}
