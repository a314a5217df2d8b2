// Package clock abstracts wall-clock access so deadline and cooldown
// math can be tested by advancing a fake clock instead of sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time to the governance core.
type Clock interface {
	Now() time.Time
}

// wall is the default clock.
type wall struct{}

func (wall) Now() time.Time { return time.Now() }

// Wall returns the real wall clock.
func Wall() Clock { return wall{} }

// Fake is a manually advanced clock for tests. Safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock frozen at the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the frozen instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set jumps the clock to the given instant.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
