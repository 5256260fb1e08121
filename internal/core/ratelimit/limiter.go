// Package ratelimit provides per-scope admission control for outbound actions.
package ratelimit

import (
	"sync"
	"time"
)

// Default per-minute ceilings by action type. Callers pass the ceiling for
// the action they are about to perform.
const (
	DefaultRespondPerMinute = 30
	DefaultDeletePerMinute  = 15
	DefaultFlagPerMinute    = 60
)

// Limiter decides whether an action for a given scope key may proceed.
// This is advisory backpressure, not a distributed quota: a multi-process
// deployment needs an implementation backed by a shared store.
type Limiter interface {
	// Allow reports whether another action is admitted for the key within
	// the current one-minute window, incrementing the counter when it is.
	Allow(key string, perMinute int) bool
}

// windowCounter tracks one key's count within its current minute window.
type windowCounter struct {
	window int64
	count  int
}

// MinuteWindow is an in-memory fixed one-minute-window Limiter. The counter
// for a key resets whenever the current minute differs from the stored one.
// Safe for concurrent use by per-channel workers in one process.
type MinuteWindow struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

// NewMinuteWindow creates an in-memory limiter. now is injectable for tests;
// nil means time.Now.
func NewMinuteWindow(now func() time.Time) *MinuteWindow {
	if now == nil {
		now = time.Now
	}
	return &MinuteWindow{
		counters: make(map[string]*windowCounter),
		now:      now,
	}
}

// Allow implements Limiter.
func (l *MinuteWindow) Allow(key string, perMinute int) bool {
	if perMinute <= 0 {
		return false
	}

	window := l.now().Unix() / 60

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || c.window != window {
		c = &windowCounter{window: window}
		l.counters[key] = c
	}

	if c.count >= perMinute {
		return false
	}
	c.count++
	return true
}

var _ Limiter = (*MinuteWindow)(nil)
