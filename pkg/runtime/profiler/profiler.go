// Package profiler collects profiling data of the running process using the
// go runtime's built-in facilities
package profiler

import (
	"context"
	"errors"
	"io"
)

// Config selects the probes to run and their output files
type Config struct {
	CPU     CPUConfig
	Memory  MemoryConfig
	Trace   TraceConfig
	Metrics MetricsConfig
}

// Profiler starts the collection of profiling data
type Profiler interface {
	// Start runs the probes enabled in the configuration. Closing the
	// returned Closer stops them and completes their output files
	Start(ctx context.Context, config Config) (io.Closer, error)
}

// Probe collects one kind of profiling data
type Probe interface {
	Start() (io.Closer, error)
}

// profiler tracks the probes it started
type profiler struct {
	closers []io.Closer
}

// NewProfiler creates a Profiler
func NewProfiler() Profiler {
	return &profiler{}
}

// Start implements the Profiler interface
func (p *profiler) Start(_ context.Context, config Config) (io.Closer, error) {
	probes, err := enabledProbes(config)
	if err != nil {
		return nil, err
	}

	for _, probe := range probes {
		closer, err := probe.Start()
		if err != nil {
			// stop whatever was already started
			_ = p.Close()
			return nil, err
		}

		p.closers = append(p.closers, closer)
	}

	return p, nil
}

// Close stops the started probes and completes their output files
func (p *profiler) Close() error {
	errs := []error{}
	for _, closer := range p.closers {
		errs = append(errs, closer.Close())
	}

	return errors.Join(errs...)
}

// enabledProbes builds the probes enabled in the configuration
func enabledProbes(config Config) ([]Probe, error) {
	probes := []Probe{}

	if config.CPU.Enabled {
		probe, err := NewCPUProbe(config.CPU)
		if err != nil {
			return nil, err
		}

		probes = append(probes, probe)
	}

	if config.Memory.Enabled {
		probe, err := NewMemoryProbe(config.Memory)
		if err != nil {
			return nil, err
		}

		probes = append(probes, probe)
	}

	if config.Trace.Enabled {
		probe, err := NewTraceProbe(config.Trace)
		if err != nil {
			return nil, err
		}

		probes = append(probes, probe)
	}

	if config.Metrics.Enabled {
		probe, err := NewMetricsProbe(config.Metrics)
		if err != nil {
			return nil, err
		}

		probes = append(probes, probe)
	}

	return probes, nil
}
