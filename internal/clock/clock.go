// Package clock provides the time source used by the attendance code.
// Production code injects Real; tests inject a Fixed clock and move it
// explicitly.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in the configured timezone.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

// Real returns a clock reading the system time in loc. A nil loc means time.Local.
func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time {
	// Round(0) drops the monotonic reading so stored and in-memory values compare equal.
	return time.Now().In(c.loc).Round(0)
}

// Fixed is a manually driven clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a Fixed clock stopped at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
