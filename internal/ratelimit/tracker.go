package ratelimit

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/curately/curately/internal/apperr"
)

// Limit is the kind of provider rate limit a failed call ran into.
type Limit int

const (
	// LimitNone means the error was not a rate limit at all.
	LimitNone Limit = iota
	// LimitDaily is a token/day quota breach; it clears at local midnight.
	LimitDaily
	// LimitPerMinute is a short-lived throttle recoverable by waiting.
	LimitPerMinute
)

const (
	// DefaultWait is used when the provider gives no retry hint.
	DefaultWait = 3 * time.Second
	// waitMargin is added on top of the provider's suggested wait.
	waitMargin = 500 * time.Millisecond
)

var retryHintRe = regexp.MustCompile(`(?i)try again in (\d+(?:\.\d+)?)s`)

// Classification is the tracker's verdict on a failed provider call.
type Classification struct {
	Limit Limit
	// Wait is the recommended backoff before retrying. Only set for
	// LimitPerMinute.
	Wait time.Duration
}

type Option func(*Tracker)

// WithClock replaces the wall clock, so tests can cross the daily reset
// boundary without sleeping.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker holds the process-wide daily-exhaustion state for the AI provider.
// One instance is shared by everything that issues provider calls; all access
// goes through the mutex.
type Tracker struct {
	now func() time.Time

	mu            sync.Mutex
	dailyExceeded bool
	dailyResetAt  time.Time
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Exhausted reports whether the daily quota is spent, clearing the state
// first if the reset time has passed.
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dailyExceeded && t.now().After(t.dailyResetAt) {
		t.dailyExceeded = false
		t.dailyResetAt = time.Time{}
	}
	return t.dailyExceeded
}

// ResetAt returns the time the daily limit clears, if one is in effect.
func (t *Tracker) ResetAt() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dailyResetAt, t.dailyExceeded
}

// RetryAfter returns how long until the daily limit clears, if one is in
// effect, measured against the tracker's own clock.
func (t *Tracker) RetryAfter() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dailyExceeded {
		return 0, false
	}
	return t.dailyResetAt.Sub(t.now()), true
}

// Classify inspects a failed provider call. A daily quota breach flips the
// shared exhausted flag as a side effect; everything else leaves the tracker
// untouched.
func (t *Tracker) Classify(err error) Classification {
	if err == nil {
		return Classification{Limit: LimitNone}
	}

	msg := err.Error()
	var pe *apperr.ProviderError
	rateLimited := strings.Contains(msg, "rate_limit")
	if errors.As(err, &pe) && pe.StatusCode == 429 {
		rateLimited = true
	}
	if !rateLimited {
		return Classification{Limit: LimitNone}
	}

	if strings.Contains(msg, "tokens per day") || strings.Contains(msg, "daily") {
		t.mu.Lock()
		t.dailyExceeded = true
		t.dailyResetAt = nextMidnight(t.now())
		t.mu.Unlock()
		return Classification{Limit: LimitDaily}
	}

	return Classification{Limit: LimitPerMinute, Wait: parseWait(msg)}
}

// parseWait extracts the provider's "try again in Ns" hint plus a safety
// margin, falling back to DefaultWait.
func parseWait(msg string) time.Duration {
	m := retryHintRe.FindStringSubmatch(msg)
	if m == nil {
		return DefaultWait
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return DefaultWait
	}
	return time.Duration(secs*float64(time.Second)) + waitMargin
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
