// Package testutil provides deterministic clocks and id generators so
// tests produce byte-identical event logs run after run.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the fixed starting instant for deterministic clocks. An
// arbitrary but memorable UTC midnight.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock is a deterministic wall clock for tests. Each call to Now
// advances by a fixed step, so timestamps are strictly increasing and
// reproducible.
//
// All methods are safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at Epoch, stepping one second per
// call.
func NewClock() *Clock {
	return NewClockAt(Epoch, time.Second)
}

// NewClockAt creates a clock with a custom start and step.
func NewClockAt(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Now returns the current instant and advances the clock. Pass as the
// now function to an event builder.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will report, without
// advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
