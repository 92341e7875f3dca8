package behavior_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/wikicap/wikicap/pkg/behavior"
)

func Test_SpanSample(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title string
		span  behavior.Span
	}{
		{
			title: "regular range",
			span:  behavior.Span{Min: 100 * time.Millisecond, Max: 500 * time.Millisecond},
		},
		{
			title: "degenerate range",
			span:  behavior.Span{Min: 250 * time.Millisecond, Max: 250 * time.Millisecond},
		},
		{
			title: "zero range",
			span:  behavior.Span{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewSource(42))
			for i := 0; i < 1000; i++ {
				sample := tc.span.Sample(rng)
				if sample < tc.span.Min || sample > tc.span.Max {
					t.Fatalf("sample %s out of range [%s, %s]", sample, tc.span.Min, tc.span.Max)
				}
			}
		})
	}
}

func Test_SpanSampleInvertedRangeReturnsMin(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	span := behavior.Span{Min: time.Second, Max: time.Millisecond}

	sample := span.Sample(rng)
	if sample != time.Second {
		t.Errorf("expected %s got %s", time.Second, sample)
	}
}

func Test_StepsSampleCoversRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	steps := behavior.Steps{Min: 2, Max: 4}

	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		sample := steps.Sample(rng)
		if sample < 2 || sample > 4 {
			t.Fatalf("sample %d out of range [2, 4]", sample)
		}
		seen[sample] = true
	}

	for _, expected := range []int{2, 3, 4} {
		if !seen[expected] {
			t.Errorf("value %d never sampled", expected)
		}
	}
}

func Test_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title       string
		mutate      func(b *behavior.Behavior)
		expectError bool
	}{
		{
			title:       "default is valid",
			mutate:      func(*behavior.Behavior) {},
			expectError: false,
		},
		{
			title: "negative span minimum",
			mutate: func(b *behavior.Behavior) {
				b.ReadTime.Min = -time.Second
			},
			expectError: true,
		},
		{
			title: "span maximum below minimum",
			mutate: func(b *behavior.Behavior) {
				b.PageLoadWait = behavior.Span{Min: 5 * time.Second, Max: time.Second}
			},
			expectError: true,
		},
		{
			title: "negative scroll count",
			mutate: func(b *behavior.Behavior) {
				b.ScrollsPerPage = behavior.Steps{Min: -1, Max: 2}
			},
			expectError: true,
		},
		{
			title: "scroll pixels maximum below minimum",
			mutate: func(b *behavior.Behavior) {
				b.ScrollPixels = behavior.Steps{Min: 900, Max: 400}
			},
			expectError: true,
		},
		{
			title: "click probability above one",
			mutate: func(b *behavior.Behavior) {
				b.ClickProbability = 1.5
			},
			expectError: true,
		},
		{
			title: "negative idle probability",
			mutate: func(b *behavior.Behavior) {
				b.IdleProbability = -0.1
			},
			expectError: true,
		},
		{
			title: "negative max clicks",
			mutate: func(b *behavior.Behavior) {
				b.MaxClicksPerPage = -1
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			b := behavior.Default()
			tc.mutate(&b)

			err := b.Validate()
			if tc.expectError && err == nil {
				t.Errorf("should have failed")
				return
			}

			if !tc.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
		})
	}
}

func Test_ShouldClick(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		title       string
		probability float64
		expected    bool
	}{
		{
			title:       "zero probability never clicks",
			probability: 0.0,
			expected:    false,
		},
		{
			title:       "full probability always clicks",
			probability: 1.0,
			expected:    true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewSource(42))
			b := behavior.Default()
			b.ClickProbability = tc.probability

			for i := 0; i < 1000; i++ {
				if b.ShouldClick(rng) != tc.expected {
					t.Fatalf("expected ShouldClick to always return %t", tc.expected)
				}
			}
		})
	}
}
