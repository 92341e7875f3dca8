// Package collector implements the collection run: a sequence of cycles in
// which packets are recorded in the background while a browsing session
// generates traffic in the foreground, producing one capture artifact per
// cycle.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wikicap/wikicap/pkg/browse"
	"github.com/wikicap/wikicap/pkg/capture"
)

const (
	// DefaultWarmupDelay is the pause between starting the capture and the
	// first page visit, so the capture is already listening when traffic
	// starts flowing
	DefaultWarmupDelay = 2 * time.Second

	// DefaultSettleDelay is the pause after the last page visit before the
	// capture is stopped, giving trailing packets time to arrive
	DefaultSettleDelay = 3 * time.Second

	// DefaultJoinTimeout bounds how long to wait for the capture to flush
	// after it is cancelled
	DefaultJoinTimeout = 30 * time.Second
)

// Config defines the configuration of a collection run
type Config struct {
	// Cycles is the number of capture-browse cycles to run
	Cycles int
	// Pages is the number of pages visited on each cycle
	Pages int
	// OutputDir is the directory capture artifacts are written to
	OutputDir string
	// Prefix is the artifact file name prefix
	Prefix string
	// WarmupDelay is the pause between capture start and first page visit
	WarmupDelay time.Duration
	// SettleDelay is the pause after browsing before the capture is stopped
	SettleDelay time.Duration
	// JoinTimeout bounds the wait for the capture flush after cancellation
	JoinTimeout time.Duration
}

// ArtifactPath returns the location of the artifact for a cycle started at
// the given time
func ArtifactPath(dir string, prefix string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.pcap", prefix, start.Format("20060102_150405")))
}

// CaptureRunner is the capture side of a cycle
type CaptureRunner interface {
	// Run captures packets until ctx is cancelled, then flushes them to
	// outputPath
	Run(ctx context.Context, outputPath string) (capture.Artifact, error)
}

// Navigator is the browsing side of a cycle
type Navigator interface {
	// Run visits the given number of pages using a session obtained from
	// the factory
	Run(ctx context.Context, pages int, newSession browse.SessionFactory) error
}

// CycleResult is the recorded outcome of one collection cycle
type CycleResult struct {
	// Cycle is the cycle number, starting at 1
	Cycle int
	// Start is the time the cycle began
	Start time.Time
	// Duration is how long the cycle took, capture flush included
	Duration time.Duration
	// Artifact is the capture file the cycle produced. Zero value when the
	// cycle was forfeited without a flush
	Artifact capture.Artifact
	// Err reports why the cycle ended abnormally, nil otherwise
	Err error
}

// Collector runs collection cycles
type Collector struct {
	loop     CaptureRunner
	sim      Navigator
	sessions browse.SessionFactory
	config   Config
	logger   logrus.FieldLogger
}

// New creates a Collector from its two halves, a session factory for the
// browsing side and the run configuration
func New(
	loop CaptureRunner,
	sim Navigator,
	sessions browse.SessionFactory,
	config Config,
	logger logrus.FieldLogger,
) (*Collector, error) {
	if loop == nil {
		return nil, fmt.Errorf("a capture loop must be provided")
	}

	if sim == nil {
		return nil, fmt.Errorf("a navigation simulator must be provided")
	}

	if sessions == nil {
		return nil, fmt.Errorf("a session factory must be provided")
	}

	if config.Cycles <= 0 {
		return nil, fmt.Errorf("cycles must be positive: %d", config.Cycles)
	}

	if config.Pages <= 0 {
		return nil, fmt.Errorf("pages per cycle must be positive: %d", config.Pages)
	}

	if config.OutputDir == "" {
		return nil, fmt.Errorf("an output directory must be provided")
	}

	if config.Prefix == "" {
		return nil, fmt.Errorf("an artifact prefix must be provided")
	}

	if config.WarmupDelay < 0 || config.SettleDelay < 0 {
		return nil, fmt.Errorf("delays cannot be negative")
	}

	if config.JoinTimeout <= 0 {
		config.JoinTimeout = DefaultJoinTimeout
	}

	return &Collector{
		loop:     loop,
		sim:      sim,
		sessions: sessions,
		config:   config,
		logger:   logger,
	}, nil
}

// cycleResult collects the outcomes of the two halves of a cycle
type cycleResult struct {
	start      time.Time
	duration   time.Duration
	artifact   capture.Artifact
	captureErr error
	browseErr  error
	joinErr    error
}

// err returns the most significant of the cycle's errors. A browsing error
// induced by a capture failure is reported as the capture failure
func (r cycleResult) err() error {
	switch {
	case r.joinErr != nil:
		return r.joinErr
	case r.captureErr != nil:
		return r.captureErr
	default:
		return r.browseErr
	}
}

// Run executes the configured number of cycles sequentially and returns one
// result per started cycle. A capture failure forfeits the affected cycle
// and the run continues with the next one. A browsing failure aborts the
// run. Cancelling ctx stops the run after flushing the cycle in progress and
// is reported as the context's error
func (c *Collector) Run(ctx context.Context) ([]CycleResult, error) {
	err := os.MkdirAll(c.config.OutputDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating output directory %q: %w", c.config.OutputDir, err)
	}

	logger := c.logger.WithField("run", uuid.NewString())
	logger.WithFields(logrus.Fields{
		"cycles": c.config.Cycles,
		"pages":  c.config.Pages,
	}).Info("collection started")

	results := []CycleResult{}
	artifacts := 0
	for cycle := 1; cycle <= c.config.Cycles; cycle++ {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		result := c.runCycle(ctx, cycle, logger)

		results = append(results, CycleResult{
			Cycle:    cycle,
			Start:    result.start,
			Duration: result.duration,
			Artifact: result.artifact,
			Err:      result.err(),
		})
		if result.artifact.Path != "" {
			artifacts++
		}

		switch {
		case result.joinErr != nil:
			return results, result.joinErr
		case ctx.Err() != nil:
			return results, ctx.Err()
		case result.captureErr != nil:
			logger.WithError(result.captureErr).Errorf("cycle %d forfeited", cycle)
		case result.browseErr != nil:
			return results, fmt.Errorf("browsing failed on cycle %d: %w", cycle, result.browseErr)
		}
	}

	logger.WithField("artifacts", artifacts).Info("collection finished")

	return results, nil
}

// runCycle runs the capture in the background, browses in the foreground and
// then cancels the capture and waits for its flush. The capture cancels the
// whole cycle if it fails, as browsing without a capture is pointless
func (c *Collector) runCycle(ctx context.Context, cycle int, logger logrus.FieldLogger) cycleResult {
	start := time.Now()
	path := ArtifactPath(c.config.OutputDir, c.config.Prefix, start)

	logger = logger.WithField("cycle", fmt.Sprintf("%d/%d", cycle, c.config.Cycles))
	logger.WithField("path", path).Info("cycle started")

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cc := make(chan cycleResult, 1)
	go func() {
		artifact, err := c.loop.Run(cycleCtx, path)
		if err != nil {
			cancel()
		}
		cc <- cycleResult{artifact: artifact, captureErr: err}
	}()

	browseErr := sleep(cycleCtx, c.config.WarmupDelay)
	if browseErr == nil {
		browseErr = c.sim.Run(cycleCtx, c.config.Pages, c.sessions)
	}

	if browseErr == nil {
		logger.WithField("delay", c.config.SettleDelay).Debug("waiting for trailing packets")
		_ = sleep(cycleCtx, c.config.SettleDelay)
	}

	cancel()

	select {
	case result := <-cc:
		result.start = start
		result.duration = time.Since(start)
		result.browseErr = browseErr
		return result
	case <-time.After(c.config.JoinTimeout):
		return cycleResult{
			start:    start,
			duration: time.Since(start),
			joinErr:  fmt.Errorf("capture did not stop within %s", c.config.JoinTimeout),
		}
	}
}

func sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}

	select {
	case <-time.After(duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
