package logic

// Debouncer filters a raw contact signal. A state change is accepted only
// after the new level has been seen on Samples consecutive ticks; any sample
// matching the stable state restarts the run.
type Debouncer struct {
	samples int
	run     int
	closed  bool
}

// NewDebouncer creates a Debouncer starting in the open state.
// samples < 1 is treated as 1 (no filtering).
func NewDebouncer(samples int) *Debouncer {
	if samples < 1 {
		samples = 1
	}
	return &Debouncer{samples: samples}
}

// Tick feeds one raw sample and reports whether the stable state changed.
func (d *Debouncer) Tick(closed bool) bool {
	if closed == d.closed {
		d.run = 0
		return false
	}
	d.run++
	if d.run < d.samples {
		return false
	}
	d.closed = closed
	d.run = 0
	return true
}

// Closed returns the debounced contact state.
func (d *Debouncer) Closed() bool {
	return d.closed
}
