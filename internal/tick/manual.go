package tick

import "sync/atomic"

// Manual is a Source for tests. Time only moves when Tick, Wait or
// SetMillis is called; every Wait delivers exactly one tick.
type Manual struct {
	rate    int
	handler func()
	millis  atomic.Uint32
	ticks   atomic.Uint64
	stopped atomic.Bool
}

// NewManual creates a Manual source at rate Hz starting at millis start.
func NewManual(rate int, start uint32) *Manual {
	if rate <= 0 {
		rate = DefaultRate
	}
	m := &Manual{rate: rate}
	m.millis.Store(start)
	return m
}

// SetHandler sets the per-tick handler.
func (m *Manual) SetHandler(h func()) {
	m.handler = h
}

// Tick advances time by one tick period and runs the handler.
func (m *Manual) Tick() {
	m.millis.Add(uint32(1000 / m.rate))
	m.ticks.Add(1)
	if m.handler != nil {
		m.handler()
	}
}

// SetMillis jumps the millisecond counter without running the handler.
func (m *Manual) SetMillis(ms uint32) {
	m.millis.Store(ms)
}

// AddMillis advances the millisecond counter without running the handler.
func (m *Manual) AddMillis(ms uint32) {
	m.millis.Add(ms)
}

// Ticks returns the number of ticks delivered.
func (m *Manual) Ticks() uint64 {
	return m.ticks.Load()
}

// Stop makes every later Wait return false.
func (m *Manual) Stop() {
	m.stopped.Store(true)
}

// Millis implements Source.
func (m *Manual) Millis() uint32 {
	return m.millis.Load()
}

// Rate implements Source.
func (m *Manual) Rate() int {
	return m.rate
}

// Wait implements Source by delivering one tick synchronously.
func (m *Manual) Wait() bool {
	if m.stopped.Load() {
		return false
	}
	m.Tick()
	return true
}
