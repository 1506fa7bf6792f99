package logic

import "sync/atomic"

// PulseCounter is the only value shared between the tick goroutine and the
// main loop. The tick side only increments; the main loop reads with Peek or
// takes the whole value with Drain. Drain is a single atomic swap, so an
// increment lands either in the drained value or in the counter afterwards,
// never in neither.
type PulseCounter struct {
	n atomic.Uint32
}

// Add records one pulse.
func (c *PulseCounter) Add() {
	c.n.Add(1)
}

// Peek returns the pending count without clearing it.
func (c *PulseCounter) Peek() uint32 {
	return c.n.Load()
}

// Drain returns the pending count and resets it to zero.
func (c *PulseCounter) Drain() uint32 {
	return c.n.Swap(0)
}
