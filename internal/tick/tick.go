// Package tick provides the node's monotonic tick source: a fixed-rate
// periodic tick that runs the pulse handler, plus a wrapping millisecond
// counter readable from the main loop.
//
// The tick handler runs on the source's own goroutine, which plays the role
// of interrupt context: ticks are delivered strictly in order and the
// handler is never re-entered.
package tick

// DefaultRate is the nominal tick frequency in Hz.
const DefaultRate = 100

// Source is a monotonic tick source.
type Source interface {
	// Millis returns the running millisecond counter. It wraps at 2^32;
	// only differences between two readings are meaningful.
	Millis() uint32

	// Rate returns the tick frequency in Hz.
	Rate() int

	// Wait blocks until the next tick has been handled. A tick that fired
	// after the previous Wait returned and before this call is not lost:
	// Wait returns for it immediately. Returns false once the source is
	// stopped.
	Wait() bool
}
