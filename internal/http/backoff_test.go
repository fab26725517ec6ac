package http_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	fronthttp "github.com/fivetwenty-io/front-go/internal/http"
)

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func TestBackoffPolicy_Center(t *testing.T) {
	t.Parallel()

	policy := fronthttp.DefaultBackoffPolicy()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{2000, 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, policy.Center(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestBackoffPolicy_DelayWithinJitterBounds(t *testing.T) {
	t.Parallel()

	policy := fronthttp.DefaultBackoffPolicy()

	for attempt := range 8 {
		center := policy.Center(attempt)
		low := time.Duration(float64(center) * (1 - policy.JitterFactor))
		high := time.Duration(float64(center) * (1 + policy.JitterFactor))

		for range 200 {
			delay := policy.Delay(attempt, 0, false)
			assert.GreaterOrEqual(t, delay, low-1)
			assert.LessOrEqual(t, delay, high+1)
		}

		assert.InDelta(t, float64(low), float64(policy.WithRand(fixedRand(0)).Delay(attempt, 0, false)), 1)
		assert.Equal(t, center, policy.WithRand(fixedRand(0.5)).Delay(attempt, 0, false))
	}
}

func TestBackoffPolicy_DelayNeverNegative(t *testing.T) {
	t.Parallel()

	policy := fronthttp.BackoffPolicy{
		BaseDelay:    time.Second,
		MaxDelay:     time.Second,
		JitterFactor: 2,
	}.WithRand(fixedRand(0))

	assert.Equal(t, time.Duration(0), policy.Delay(0, 0, false))
}

func TestBackoffPolicy_RetryAfterIsFloor(t *testing.T) {
	t.Parallel()

	policy := fronthttp.DefaultBackoffPolicy().WithRand(fixedRand(0.999))

	tests := []struct {
		name     string
		attempt  int
		hint     time.Duration
		hasHint  bool
		expected time.Duration
	}{
		{
			name:     "hint above computed delay",
			attempt:  0,
			hint:     10 * time.Second,
			hasHint:  true,
			expected: 10 * time.Second,
		},
		{
			name:     "hint above the cap",
			attempt:  6,
			hint:     90 * time.Second,
			hasHint:  true,
			expected: 90 * time.Second,
		},
		{
			name:     "hint below computed delay",
			attempt:  3,
			hint:     time.Second,
			hasHint:  true,
			expected: policy.Delay(3, 0, false),
		},
		{
			name:     "zero hint",
			attempt:  1,
			hint:     0,
			hasHint:  true,
			expected: policy.Delay(1, 0, false),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			delay := policy.Delay(tt.attempt, tt.hint, tt.hasHint)
			assert.Equal(t, tt.expected, delay)
			assert.GreaterOrEqual(t, delay, tt.hint)
		})
	}
}

func TestBackoffPolicy_HugeRetryAfterStillFloors(t *testing.T) {
	t.Parallel()

	hint, ok := fronthttp.ParseRetryAfter("9300000000", time.Now())
	assert.True(t, ok)
	assert.Positive(t, hint)

	policy := fronthttp.DefaultBackoffPolicy().WithRand(fixedRand(0))
	assert.GreaterOrEqual(t, policy.Delay(0, hint, true), hint)
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    string
		expected time.Duration
		ok       bool
	}{
		{name: "seconds", value: "5", expected: 5 * time.Second, ok: true},
		{name: "seconds with spaces", value: " 12 ", expected: 12 * time.Second, ok: true},
		{name: "zero", value: "0", expected: 0, ok: true},
		{name: "negative clamps to zero", value: "-3", expected: 0, ok: true},
		{name: "http date", value: "Fri, 01 Mar 2024 12:00:30 GMT", expected: 30 * time.Second, ok: true},
		{name: "past http date", value: "Fri, 01 Mar 2024 11:59:00 GMT", expected: 0, ok: true},
		{name: "empty", value: "", ok: false},
		{name: "garbage", value: "soon", ok: false},
		{name: "fractional", value: "1.5", ok: false},
		{name: "huge seconds saturate", value: "9300000000", expected: time.Duration(math.MaxInt64 / int64(time.Second)) * time.Second, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wait, ok := fronthttp.ParseRetryAfter(tt.value, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, wait)
		})
	}
}
