// Package ratelimit tracks per-session request counts in memory.
// Counters live only as long as the process; a restart resets them.
package ratelimit

import (
	"sync"
	"time"
)

type record struct {
	count     int
	createdAt time.Time
}

// SessionLimiter caps the number of requests a single session may make
// within the eviction window. Eviction is swept on every access rather
// than on a background timer, and is keyed on the record's creation
// time, not last activity.
type SessionLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	records map[string]*record
}

// NewSessionLimiter creates a limiter allowing max requests per session
// within the given window.
func NewSessionLimiter(max int, window time.Duration) *SessionLimiter {
	return &SessionLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		records: make(map[string]*record),
	}
}

// Check reports whether the session's next request would stay within the
// limit. It does not count the request; rejection happens before any
// increment. An empty session id always passes: anonymous sessions are
// untracked by policy.
func (l *SessionLimiter) Check(sessionID string) bool {
	if sessionID == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())
	r, ok := l.records[sessionID]
	if !ok {
		return l.max > 0
	}
	return r.count+1 <= l.max
}

// Record counts one request for the session and returns the session's
// current count. Empty session ids are not tracked.
func (l *SessionLimiter) Record(sessionID string) int {
	if sessionID == "" {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	r, ok := l.records[sessionID]
	if !ok {
		r = &record{createdAt: now}
		l.records[sessionID] = r
	}
	r.count++
	return r.count
}

// Remaining returns how many requests the session has left.
func (l *SessionLimiter) Remaining(sessionID string) int {
	if sessionID == "" {
		return l.max
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())
	r, ok := l.records[sessionID]
	if !ok {
		return l.max
	}
	if r.count >= l.max {
		return 0
	}
	return l.max - r.count
}

// Limit returns the configured per-session maximum.
func (l *SessionLimiter) Limit() int {
	return l.max
}

// Len returns the number of tracked sessions after a sweep.
func (l *SessionLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())
	return len(l.records)
}

// evict drops records older than the window. Callers must hold mu.
func (l *SessionLimiter) evict(now time.Time) {
	for id, r := range l.records {
		if now.Sub(r.createdAt) > l.window {
			delete(l.records, id)
		}
	}
}
