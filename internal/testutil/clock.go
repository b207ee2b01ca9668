package testutil

import (
	"math"
	"sync"
)

// FrameClock yields the frame times a fixed-rate player visits:
// start + n/fps, snapped to whole microseconds.
//
// Tests use it to sweep a track at the same instants playback would,
// without accumulating float error.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FrameClock struct {
	mu    sync.Mutex
	start float64
	step  float64
	n     int64
}

// NewFrameClock creates a clock at start ticking fps times per second.
// fps must be positive.
func NewFrameClock(start, fps float32) *FrameClock {
	if fps <= 0 {
		panic("testutil: fps must be positive")
	}
	return &FrameClock{start: float64(start), step: 1 / float64(fps)}
}

// Next returns the current frame time and advances one frame.
// The first call returns the start time.
func (c *FrameClock) Next() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start + float64(c.n)*c.step
	c.n++
	return float32(math.Round(t*1e6) / 1e6)
}

// Frame returns the number of frames handed out.
func (c *FrameClock) Frame() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds to the start time.
func (c *FrameClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
