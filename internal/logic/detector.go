package logic

import "sync/atomic"

// PulseDetector is the per-tick handler: it debounces the contact and counts
// accepted open->closed transitions. Tick must only be driven from one
// goroutine (the tick source) and never re-entered. Closed and Ticks may be
// read from any goroutine.
type PulseDetector struct {
	debouncer *Debouncer
	counter   *PulseCounter
	mirror    func(closed bool)

	closed atomic.Bool
	ticks  atomic.Uint64
}

// NewPulseDetector creates a detector feeding counter. mirror, if non-nil,
// receives every raw sample (diagnostic output only).
func NewPulseDetector(samples int, counter *PulseCounter, mirror func(closed bool)) *PulseDetector {
	return &PulseDetector{
		debouncer: NewDebouncer(samples),
		counter:   counter,
		mirror:    mirror,
	}
}

// Tick processes one raw sample of the contact line.
func (p *PulseDetector) Tick(closed bool) {
	p.ticks.Add(1)
	if p.mirror != nil {
		p.mirror(closed)
	}
	if p.debouncer.Tick(closed) {
		p.closed.Store(p.debouncer.Closed())
		if p.debouncer.Closed() {
			p.counter.Add()
		}
	}
}

// Closed returns the debounced contact state.
func (p *PulseDetector) Closed() bool {
	return p.closed.Load()
}

// Ticks returns the number of samples processed.
func (p *PulseDetector) Ticks() uint64 {
	return p.ticks.Load()
}
