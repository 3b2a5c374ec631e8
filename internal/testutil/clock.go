package testutil

import (
	"sync/atomic"
	"time"
)

// Epoch is the first instant a LogicalClock reports by default.
var Epoch = time.Date(2024, 4, 4, 20, 49, 2, 0, time.UTC)

// LogicalClock stamps records with reproducible creation dates.
// Every call to Now returns the previous instant plus the step, so two
// runs of the same scenario produce identical timestamps. Safe for
// concurrent use.
type LogicalClock struct {
	start time.Time
	step  time.Duration
	ticks atomic.Int64
}

// NewLogicalClock returns a clock whose first reading is Epoch, advancing
// one second per reading.
func NewLogicalClock() *LogicalClock {
	return NewLogicalClockAt(Epoch, time.Second)
}

// NewLogicalClockAt returns a clock whose first reading is start. A
// non-positive step is replaced by one second.
func NewLogicalClockAt(start time.Time, step time.Duration) *LogicalClock {
	if step <= 0 {
		step = time.Second
	}
	return &LogicalClock{start: start.UTC(), step: step}
}

// Now returns the next instant. It has the func() time.Time shape of
// record.WithClock.
func (c *LogicalClock) Now() time.Time {
	n := c.ticks.Add(1) - 1
	return c.start.Add(time.Duration(n) * c.step)
}

// Ticks reports how many readings have been taken.
func (c *LogicalClock) Ticks() int64 {
	return c.ticks.Load()
}
