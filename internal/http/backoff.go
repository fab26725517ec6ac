package http

import (
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/front-go/internal/constants"
)

// BackoffPolicy computes the wait before a retry attempt.
type BackoffPolicy struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
	MaxRetries   int

	// rand returns a value in [0, 1). Nil uses math/rand/v2.
	rand func() float64
}

// DefaultBackoffPolicy returns 1s base, 30s cap, 20% jitter and 3 retries.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:    constants.DefaultRetryWaitMin,
		MaxDelay:     constants.DefaultRetryWaitMax,
		JitterFactor: constants.DefaultRetryJitter,
		MaxRetries:   constants.DefaultRetryMax,
	}
}

// Center returns the capped exponential delay for attempt, before jitter.
func (p BackoffPolicy) Center(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.MaxDelay) || math.IsInf(delay, 1) {
		return p.MaxDelay
	}

	return time.Duration(delay)
}

// Delay returns the wait before retry number attempt (0-based). The capped
// exponential delay is jittered by ±JitterFactor and floored at zero. A
// server hint, when present, is a lower bound on the result.
func (p BackoffPolicy) Delay(attempt int, hint time.Duration, hasHint bool) time.Duration {
	center := p.Center(attempt)

	random := p.rand
	if random == nil {
		random = rand.Float64
	}

	jitter := (random()*2 - 1) * p.JitterFactor * float64(center)

	delay := time.Duration(float64(center) + jitter)
	if delay < 0 {
		delay = 0
	}

	if hasHint && hint > delay {
		return hint
	}

	return delay
}

// WithRand returns a copy of p using fn as its random source.
func (p BackoffPolicy) WithRand(fn func() float64) BackoffPolicy {
	p.rand = fn

	return p
}

// maxRetryAfterSeconds keeps the seconds-to-Duration conversion from overflowing.
const maxRetryAfterSeconds = int64(math.MaxInt64 / int64(time.Second))

// ParseRetryAfter reads a Retry-After value given as integer seconds or an
// HTTP date. Dates in the past yield zero. ok is false when value is empty
// or unparseable.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		if seconds < 0 {
			return 0, true
		}

		if seconds > maxRetryAfterSeconds {
			seconds = maxRetryAfterSeconds
		}

		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	wait := at.Sub(now)
	if wait < 0 {
		wait = 0
	}

	return wait, true
}
