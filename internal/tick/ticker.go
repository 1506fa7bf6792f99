package tick

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker is a Source driven by a time.Ticker.
type Ticker struct {
	rate    int
	period  time.Duration
	handler func()
	start   time.Time

	millis atomic.Uint32
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewTicker creates a Ticker at rate Hz calling handler on every tick.
// handler may be nil. The ticker does not run until Start.
func NewTicker(rate int, handler func()) *Ticker {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Ticker{
		rate:    rate,
		period:  time.Second / time.Duration(rate),
		handler: handler,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the tick goroutine.
func (t *Ticker) Start() {
	t.start = time.Now()
	tk := time.NewTicker(t.period)
	go func() {
		defer close(t.done)
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case now := <-tk.C:
				t.millis.Store(uint32(now.Sub(t.start) / time.Millisecond))
				if t.handler != nil {
					t.handler()
				}
				// Wake the main loop; a pending wake is kept, never dropped.
				select {
				case t.wake <- struct{}{}:
				default:
				}
			}
		}
	}()
}

// Stop halts the tick goroutine and releases any Wait. Safe to call more than once.
func (t *Ticker) Stop() {
	t.once.Do(func() {
		close(t.stop)
		<-t.done
		close(t.wake)
	})
}

// Millis implements Source.
func (t *Ticker) Millis() uint32 {
	return t.millis.Load()
}

// Rate implements Source.
func (t *Ticker) Rate() int {
	return t.rate
}

// Period returns the time between ticks.
func (t *Ticker) Period() time.Duration {
	return t.period
}

// Wait implements Source.
func (t *Ticker) Wait() bool {
	_, ok := <-t.wake
	return ok
}
