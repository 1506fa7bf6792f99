// Package power implements the node's sleep/wake cycle: it idles the node
// tick by tick until the next service boundary and decides when the
// transport may be powered down.
package power

import (
	"log"
	"time"

	"github.com/sweeney/gas-meter/internal/tick"
)

// Idler is the platform's "enter lowest-power idle, wake on next tick"
// primitive.
//
// Contract for implementations on real hardware: select the deepest sleep
// mode that keeps the tick timer running, disable interrupts, arm the sleep
// enable latch, re-enable interrupts, execute the sleep instruction, then
// clear the latch on wake. Interrupts must be re-enabled only after the
// latch is armed and immediately before the sleep instruction, otherwise a
// tick landing in between is missed and the cycle runs one tick long.
// Host implementations must give the same guarantee: a tick that fires
// between two Idle calls satisfies the next Idle instead of being lost.
//
// Idle returns false when the tick source has stopped.
type Idler interface {
	Idle() bool
}

// TickIdler idles by blocking on a tick.Source.
type TickIdler struct {
	Source tick.Source
}

// Idle implements Idler.
func (i TickIdler) Idle() bool {
	return i.Source.Wait()
}

// Transport is the part of the transport the cycle manager controls.
type Transport interface {
	// IsReady reports whether the transport has nothing in flight.
	IsReady() bool
	// Disable powers the transport down. Sending wakes it again.
	Disable() error
}

// Indicator mirrors the awake state on an output, e.g. a pin.
type Indicator interface {
	Set(on bool) error
}

// Config controls the cycle.
type Config struct {
	TickRate     int           // Hz
	ServiceRate  int           // Hz, the rate Snooze returns at
	ReadyTimeout time.Duration // max wait for transport readiness per cycle
	ReadyPoll    time.Duration // poll interval while waiting
}

// Manager runs the sleep/wake cycle. It is owned by the main loop.
type Manager struct {
	cfg       Config
	transport Transport
	idler     Idler
	indicator Indicator

	ticksPerCycle    int
	sleeping         bool
	indicatorFailing bool

	now   func() time.Time
	sleep func(time.Duration)
}

// NewManager creates a Manager. indicator may be nil.
func NewManager(cfg Config, transport Transport, idler Idler, indicator Indicator) *Manager {
	if cfg.TickRate <= 0 {
		cfg.TickRate = tick.DefaultRate
	}
	if cfg.ServiceRate <= 0 || cfg.ServiceRate > cfg.TickRate {
		cfg.ServiceRate = 1
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 10 * time.Second
	}
	if cfg.ReadyPoll <= 0 {
		cfg.ReadyPoll = 10 * time.Millisecond
	}
	return &Manager{
		cfg:           cfg,
		transport:     transport,
		idler:         idler,
		indicator:     indicator,
		ticksPerCycle: cfg.TickRate / cfg.ServiceRate,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// TicksPerCycle returns the number of tick wakeups per Snooze.
func (m *Manager) TicksPerCycle() int {
	return m.ticksPerCycle
}

// TransportSleeping reports whether the transport has been powered down
// and not woken since.
func (m *Manager) TransportSleeping() bool {
	return m.sleeping
}

// MarkActive records that the transport was woken by a send, so the next
// permitted Snooze powers it down again.
func (m *Manager) MarkActive() {
	m.sleeping = false
}

// Snooze blocks until the next service boundary. If allowTransportDisable
// is set and the transport is awake it is powered down exactly once.
// It returns the number of ticks slept; fewer than TicksPerCycle only if
// the tick source stopped.
func (m *Manager) Snooze(allowTransportDisable bool) int {
	m.waitReady()

	if allowTransportDisable && !m.sleeping {
		if err := m.transport.Disable(); err != nil {
			log.Printf("power: transport disable failed: %v", err)
		} else {
			m.sleeping = true
		}
	}

	slept := 0
	for slept < m.ticksPerCycle {
		m.indicate(false)
		ok := m.idler.Idle()
		m.indicate(true)
		if !ok {
			break
		}
		slept++
	}
	return slept
}

// waitReady polls the transport until it is ready. Not being ready is
// never an error; after ReadyTimeout the cycle just goes ahead.
func (m *Manager) waitReady() {
	if m.transport.IsReady() {
		return
	}
	deadline := m.now().Add(m.cfg.ReadyTimeout)
	for !m.transport.IsReady() {
		if !m.now().Before(deadline) {
			log.Printf("power: transport not ready after %v, continuing", m.cfg.ReadyTimeout)
			return
		}
		m.sleep(m.cfg.ReadyPoll)
	}
}

func (m *Manager) indicate(on bool) {
	if m.indicator == nil {
		return
	}
	if err := m.indicator.Set(on); err != nil {
		if !m.indicatorFailing {
			log.Printf("power: awake indicator: %v", err)
			m.indicatorFailing = true
		}
		return
	}
	if m.indicatorFailing {
		log.Printf("power: awake indicator recovered")
		m.indicatorFailing = false
	}
}
