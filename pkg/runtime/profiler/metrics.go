package profiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/metrics"
	"sort"
	"time"
)

// MetricsConfig configures the periodic sampling of the go runtime metrics
type MetricsConfig struct {
	Enabled  bool
	FileName string
	Rate     time.Duration
}

// metricsProbe samples the go runtime metrics periodically and summarizes
// them when stopped
type metricsProbe struct {
	config MetricsConfig
	stop   context.CancelFunc
}

// NewMetricsProbe creates a probe that samples the runtime metrics
func NewMetricsProbe(config MetricsConfig) (Probe, error) {
	if config.FileName == "" {
		return nil, fmt.Errorf("a metrics file name must be provided")
	}

	if config.Rate <= 0 {
		return nil, fmt.Errorf("metrics sampling rate must be positive: %s", config.Rate)
	}

	return &metricsProbe{
		config: config,
	}, nil
}

func (m *metricsProbe) Start() (io.Closer, error) {
	file, err := os.Create(m.config.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating metrics file %q: %w", m.config.FileName, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.stop = cancel

	sampler := newSampler(file)
	go sampler.run(ctx, m.config.Rate)

	return m, nil
}

func (m *metricsProbe) Close() error {
	m.stop()

	return nil
}

// aggregate accumulates the extremes and the average of a series of samples
type aggregate struct {
	count uint
	low   float64
	high  float64
	total float64
}

func (a *aggregate) add(value float64) {
	if a.count == 0 || value < a.low {
		a.low = value
	}

	if a.count == 0 || value > a.high {
		a.high = value
	}

	a.total += value
	a.count++
}

func (a *aggregate) average() float64 {
	if a.count == 0 {
		return 0
	}

	return a.total / float64(a.count)
}

// sampler reads the runtime metrics and keeps an aggregate per metric
type sampler struct {
	output     *os.File
	samples    []metrics.Sample
	aggregates map[string]*aggregate
}

func newSampler(output *os.File) *sampler {
	s := &sampler{
		output:     output,
		aggregates: map[string]*aggregate{},
	}

	// histogram metrics have no scalar value to aggregate
	for _, metric := range metrics.All() {
		if metric.Kind != metrics.KindUint64 && metric.Kind != metrics.KindFloat64 {
			continue
		}

		s.samples = append(s.samples, metrics.Sample{Name: metric.Name})
		s.aggregates[metric.Name] = &aggregate{}
	}

	return s
}

// run samples at the given rate until the context is cancelled and then
// writes the summary
func (s *sampler) run(ctx context.Context, rate time.Duration) {
	s.sample()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sample()
		case <-ctx.Done():
			s.summarize()
			return
		}
	}
}

func (s *sampler) sample() {
	metrics.Read(s.samples)

	for _, sample := range s.samples {
		var value float64
		switch sample.Value.Kind() {
		case metrics.KindFloat64:
			value = sample.Value.Float64()
		case metrics.KindUint64:
			value = float64(sample.Value.Uint64())
		default:
			continue
		}

		s.aggregates[sample.Name].add(value)
	}
}

// summarize writes one line per metric, sorted by name, and closes the
// output file
func (s *sampler) summarize() {
	names := make([]string, 0, len(s.aggregates))
	for name := range s.aggregates {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(s.output, "metric,min,max,average")
	for _, name := range names {
		a := s.aggregates[name]
		fmt.Fprintf(s.output, "%s,%.2f,%.2f,%.2f\n", name, a.low, a.high, a.average())
	}

	_ = s.output.Close()
}
