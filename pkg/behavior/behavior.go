// Package behavior defines the randomized profile that drives a synthetic
// browsing session. A Behavior holds the ranges from which pauses, scroll
// gestures and click decisions are sampled, so that no two page visits look
// alike while staying within human-plausible bounds.
package behavior

import (
	"fmt"
	"math/rand"
	"time"
)

// Span defines an inclusive range of durations to sample from
type Span struct {
	Min time.Duration
	Max time.Duration
}

// Sample returns a duration drawn uniformly from the span
func (s Span) Sample(rng *rand.Rand) time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}

	return s.Min + time.Duration(rng.Int63n(int64(s.Max-s.Min)+1))
}

// Steps defines an inclusive range of integer counts to sample from
type Steps struct {
	Min int
	Max int
}

// Sample returns an integer drawn uniformly from the range, both ends included
func (s Steps) Sample(rng *rand.Rand) int {
	if s.Max <= s.Min {
		return s.Min
	}

	return s.Min + rng.Intn(s.Max-s.Min+1)
}

// Behavior describes how a synthetic visitor behaves on each page.
// A Behavior is immutable once built and performs no self-repair:
// out-of-range values are rejected by Validate
type Behavior struct {
	// PageLoadWait is the pause after navigating, waiting for the page to render
	PageLoadWait Span
	// ReadTime is the pause simulating reading before scrolling starts
	ReadTime Span
	// ScrollsPerPage is the number of scroll gestures per page
	ScrollsPerPage Steps
	// ScrollPixels is the vertical delta of a single scroll gesture, in pixels
	ScrollPixels Steps
	// ScrollPause is the pause between consecutive scroll gestures
	ScrollPause Span
	// ClickProbability is the chance in [0, 1] of attempting a link click on a page
	ClickProbability float64
	// MaxClicksPerPage bounds the number of link clicks on a single page
	MaxClicksPerPage int
	// IdleProbability is the chance in [0, 1] of inserting an idle pause on a page
	IdleProbability float64
	// IdleTime is the length of an idle pause
	IdleTime Span
}

// Default returns the stock behavior profile
func Default() Behavior {
	return Behavior{
		PageLoadWait:     Span{Min: 2500 * time.Millisecond, Max: 5500 * time.Millisecond},
		ReadTime:         Span{Min: 2 * time.Second, Max: 6 * time.Second},
		ScrollsPerPage:   Steps{Min: 2, Max: 4},
		ScrollPixels:     Steps{Min: 400, Max: 900},
		ScrollPause:      Span{Min: 1500 * time.Millisecond, Max: 3 * time.Second},
		ClickProbability: 0.25,
		MaxClicksPerPage: 1,
		IdleProbability:  0.15,
		IdleTime:         Span{Min: 2 * time.Second, Max: 6 * time.Second},
	}
}

// Validate checks the behavior is well formed
func (b Behavior) Validate() error {
	spans := []struct {
		name string
		span Span
	}{
		{"page load wait", b.PageLoadWait},
		{"read time", b.ReadTime},
		{"scroll pause", b.ScrollPause},
		{"idle time", b.IdleTime},
	}

	for _, s := range spans {
		if s.span.Min < 0 {
			return fmt.Errorf("%s minimum cannot be negative", s.name)
		}

		if s.span.Max < s.span.Min {
			return fmt.Errorf("%s maximum cannot be less than minimum", s.name)
		}
	}

	steps := []struct {
		name  string
		steps Steps
	}{
		{"scrolls per page", b.ScrollsPerPage},
		{"scroll pixels", b.ScrollPixels},
	}

	for _, s := range steps {
		if s.steps.Min < 0 {
			return fmt.Errorf("%s minimum cannot be negative", s.name)
		}

		if s.steps.Max < s.steps.Min {
			return fmt.Errorf("%s maximum cannot be less than minimum", s.name)
		}
	}

	if b.ClickProbability < 0.0 || b.ClickProbability > 1.0 {
		return fmt.Errorf("click probability must be in the range [0.0, 1.0]")
	}

	if b.IdleProbability < 0.0 || b.IdleProbability > 1.0 {
		return fmt.Errorf("idle probability must be in the range [0.0, 1.0]")
	}

	if b.MaxClicksPerPage < 0 {
		return fmt.Errorf("max clicks per page cannot be negative")
	}

	return nil
}

// ShouldClick reports whether a link click should be attempted on the current page
func (b Behavior) ShouldClick(rng *rand.Rand) bool {
	return b.ClickProbability > 0 && rng.Float64() <= b.ClickProbability
}

// ShouldIdle reports whether an idle pause should be inserted on the current page
func (b Behavior) ShouldIdle(rng *rand.Rand) bool {
	return b.IdleProbability > 0 && rng.Float64() <= b.IdleProbability
}
