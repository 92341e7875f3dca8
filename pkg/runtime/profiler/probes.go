package profiler

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// CPUConfig configures CPU profiling
type CPUConfig struct {
	Enabled  bool
	FileName string
}

// cpuProbe profiles CPU usage between Start and Close
type cpuProbe struct {
	config CPUConfig
	file   *os.File
}

// NewCPUProbe creates a probe that profiles CPU usage
func NewCPUProbe(config CPUConfig) (Probe, error) {
	if config.FileName == "" {
		return nil, fmt.Errorf("a CPU profile file name must be provided")
	}

	return &cpuProbe{
		config: config,
	}, nil
}

func (c *cpuProbe) Start() (io.Closer, error) {
	file, err := os.Create(c.config.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating CPU profile %q: %w", c.config.FileName, err)
	}

	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}

	c.file = file

	return c, nil
}

func (c *cpuProbe) Close() error {
	pprof.StopCPUProfile()
	return c.file.Close()
}

// MemoryConfig configures heap profiling
type MemoryConfig struct {
	Enabled  bool
	FileName string
	Rate     int
}

// memoryProbe writes a heap profile when closed
type memoryProbe struct {
	config MemoryConfig
	file   *os.File
}

// NewMemoryProbe creates a probe that writes a heap profile on shutdown
func NewMemoryProbe(config MemoryConfig) (Probe, error) {
	if config.Rate < 0 {
		return nil, fmt.Errorf("memory profile rate cannot be negative: %d", config.Rate)
	}

	if config.FileName == "" {
		return nil, fmt.Errorf("a memory profile file name must be provided")
	}

	return &memoryProbe{
		config: config,
	}, nil
}

func (m *memoryProbe) Start() (io.Closer, error) {
	file, err := os.Create(m.config.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating memory profile %q: %w", m.config.FileName, err)
	}

	runtime.MemProfileRate = m.config.Rate
	m.file = file

	return m, nil
}

func (m *memoryProbe) Close() error {
	// an explicit GC gets the allocation statistics up to date
	runtime.GC()

	if err := pprof.Lookup("heap").WriteTo(m.file, 0); err != nil {
		_ = m.file.Close()
		return fmt.Errorf("writing memory profile %q: %w", m.config.FileName, err)
	}

	return m.file.Close()
}

// TraceConfig configures execution tracing
type TraceConfig struct {
	Enabled  bool
	FileName string
}

// traceProbe records a runtime execution trace between Start and Close
type traceProbe struct {
	config TraceConfig
	file   *os.File
}

// NewTraceProbe creates a probe that records a runtime execution trace
func NewTraceProbe(config TraceConfig) (Probe, error) {
	if config.FileName == "" {
		return nil, fmt.Errorf("a trace file name must be provided")
	}

	return &traceProbe{
		config: config,
	}, nil
}

func (t *traceProbe) Start() (io.Closer, error) {
	file, err := os.Create(t.config.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating trace file %q: %w", t.config.FileName, err)
	}

	if err := trace.Start(file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("starting trace: %w", err)
	}

	t.file = file

	return t, nil
}

func (t *traceProbe) Close() error {
	trace.Stop()
	return t.file.Close()
}
