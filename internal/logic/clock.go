package logic

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic millisecond counter that wraps at 2^32.
// Elapsed time must always be computed as now - then in uint32 arithmetic.
type Clock interface {
	Millis() uint32
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock that reads 0 now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Millis truncates to 32 bits, so it wraps roughly every 49.7 days.
func (c *SystemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// ManualClock is a test clock that only moves when told to.
type ManualClock struct {
	now atomic.Uint32
}

// NewManualClock returns a clock reading start.
func NewManualClock(start uint32) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

// Millis returns the current reading.
func (c *ManualClock) Millis() uint32 {
	return c.now.Load()
}

// Set moves the clock to ms.
func (c *ManualClock) Set(ms uint32) {
	c.now.Store(ms)
}

// Advance moves the clock forward by d milliseconds, wrapping as needed.
func (c *ManualClock) Advance(d uint32) {
	c.now.Add(d)
}

// elapsed returns now - then, correct across a single wraparound.
func elapsed(now, then uint32) uint32 {
	return now - then
}
