// Package capture implements the background half of a collection cycle: a
// loop that polls a capture mechanism for packets until it is cancelled and
// then writes everything it accumulated as a single capture artifact.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/sirupsen/logrus"

	"github.com/wikicap/wikicap/pkg/utils"
)

// Packet is a single captured packet together with its capture metadata
type Packet struct {
	Data []byte
	Info gopacket.CaptureInfo
}

// Artifact describes a capture file written to disk
type Artifact struct {
	// Path is the location of the capture file
	Path string
	// Packets is the number of packets the file contains
	Packets int
}

// Capturer defines the interface to the underlying capture mechanism
type Capturer interface {
	// Poll blocks for at most one poll window and returns the packets
	// observed during it. An empty result with a nil error means the
	// window elapsed without matching traffic
	Poll(iface string, filter string, window time.Duration) ([]Packet, error)
	// WriteArtifact writes the given packets to a capture file at path
	WriteArtifact(path string, packets []Packet) error
}

// FlushPolicy defines what happens to the packets accumulated so far when
// a poll fails
type FlushPolicy int

const (
	// FlushFailFast discards the accumulated packets on a poll error
	FlushFailFast FlushPolicy = iota
	// FlushBestEffort writes the accumulated packets before reporting the
	// poll error, preserving a partial capture
	FlushBestEffort
)

// ParseFlushPolicy parses the string representation of a FlushPolicy
func ParseFlushPolicy(policy string) (FlushPolicy, error) {
	switch policy {
	case "fail-fast":
		return FlushFailFast, nil
	case "best-effort":
		return FlushBestEffort, nil
	default:
		return FlushFailFast, fmt.Errorf("invalid flush policy %q", policy)
	}
}

// String returns the string representation of a FlushPolicy
func (p FlushPolicy) String() string {
	switch p {
	case FlushBestEffort:
		return "best-effort"
	default:
		return "fail-fast"
	}
}

// Config defines the configuration of a capture Loop
type Config struct {
	// Interface is the network interface to capture from
	Interface string
	// Filter is the BPF expression selecting the traffic of interest
	Filter string
	// PollWindow bounds the time a single poll can block, and therefore
	// how long the loop takes to observe a cancellation
	PollWindow time.Duration
	// Flush selects the flush policy applied on poll errors
	Flush FlushPolicy
}

// Loop accumulates packets from a Capturer until its context is cancelled,
// then writes a single artifact with everything captured
type Loop struct {
	capturer Capturer
	config   Config
	logger   logrus.FieldLogger
}

// NewLoop creates a capture Loop with the given capturer and configuration
func NewLoop(capturer Capturer, config Config, logger logrus.FieldLogger) (*Loop, error) {
	if capturer == nil {
		return nil, fmt.Errorf("a capturer must be provided")
	}

	if config.Interface == "" {
		return nil, fmt.Errorf("capture interface must be provided")
	}

	if config.PollWindow <= 0 {
		return nil, fmt.Errorf("poll window must be positive: %s", config.PollWindow)
	}

	return &Loop{
		capturer: capturer,
		config:   config,
		logger:   logger.WithField("iface", config.Interface),
	}, nil
}

// Run polls the capturer until ctx is cancelled and then flushes the
// accumulated packets to outputPath. Cancellation is the normal way to stop
// the loop and is not reported as an error. The flush happens exactly once.
// On a poll error the loop stops and applies the configured flush policy.
func (l *Loop) Run(ctx context.Context, outputPath string) (Artifact, error) {
	l.logger.WithFields(logrus.Fields{
		"filter": l.config.Filter,
		"window": utils.DurationMillis(l.config.PollWindow),
	}).Info("capture started")

	packets := []Packet{}
	for {
		select {
		case <-ctx.Done():
			return l.flush(outputPath, packets)
		default:
		}

		polled, err := l.capturer.Poll(l.config.Interface, l.config.Filter, l.config.PollWindow)
		if err != nil {
			pollErr := fmt.Errorf("polling %q: %w", l.config.Interface, err)

			if l.config.Flush == FlushBestEffort {
				artifact, flushErr := l.flush(outputPath, packets)
				if flushErr == nil {
					return artifact, pollErr
				}
				l.logger.WithError(flushErr).Error("could not write partial capture")
			}

			return Artifact{}, pollErr
		}

		if len(polled) > 0 {
			packets = append(packets, polled...)
			l.logger.WithField("total", len(packets)).Debug("poll window elapsed")
		}
	}
}

func (l *Loop) flush(path string, packets []Packet) (Artifact, error) {
	err := l.capturer.WriteArtifact(path, packets)
	if err != nil {
		return Artifact{}, fmt.Errorf("writing capture file %q: %w", path, err)
	}

	l.logger.WithFields(logrus.Fields{
		"path":    path,
		"packets": len(packets),
	}).Info("capture written")

	return Artifact{Path: path, Packets: len(packets)}, nil
}
