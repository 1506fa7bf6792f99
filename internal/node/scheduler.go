package node

import (
	"log"
	"math"

	"github.com/sweeney/gas-meter/internal/logic"
	"github.com/sweeney/gas-meter/internal/report"
)

// Scheduler decides, once per service cycle, what to measure and report.
type Scheduler struct {
	cfg       Config
	clock     Clock
	counter   *logic.PulseCounter
	transport Transport
	activity  Activity
	sensors   Sensors

	state  State
	active bool

	minReport logic.Entry
	hourly    logic.Entry
	light     logic.Entry
	battery   logic.Entry
	climate   logic.Entry
	settle    uint32

	last       map[report.Kind]report.Report
	sends      uint64
	sendErrors uint64
	rebases    uint64
}

// NewScheduler creates a Scheduler. activity may be nil. All schedule
// entries are armed from the clock's current reading.
func NewScheduler(cfg Config, clock Clock, counter *logic.PulseCounter, transport Transport, activity Activity, sensors Sensors) *Scheduler {
	now := clock.Millis()
	return &Scheduler{
		cfg:       cfg,
		clock:     clock,
		counter:   counter,
		transport: transport,
		activity:  activity,
		sensors:   sensors,
		minReport: logic.NewEntry(cfg.MinReportInterval, now),
		hourly:    logic.NewEntry(cfg.HourlyInterval, now),
		light:     logic.NewEntry(cfg.LightInterval, now),
		battery:   logic.NewEntry(cfg.BatteryInterval, now),
		climate:   logic.NewEntry(cfg.ClimateInterval, now),
		settle:    logic.Millis(cfg.ClimateSettle),
		last:      make(map[report.Kind]report.Report),
	}
}

// Startup runs the boot sequence: probe the climate sensor, report the
// battery, then ask the controller for the baseline.
func (s *Scheduler) Startup() {
	if s.sensors.Climate != nil && !s.sensors.Climate.Init() {
		log.Printf("climate: sensor not found, climate reports disabled")
		s.sensors.Climate = nil
	}
	s.reportBattery()
	s.request(report.Baseline)
	// Controllers answer a zero absolute count with the stored value.
	s.submit(report.Count(report.AbsCount, 0))

	now := s.clock.Millis()
	s.battery.Fire(now)
}

// State returns a copy of the node state.
func (s *Scheduler) State() State {
	return s.state
}

// Snapshot returns the state plus bookkeeping for observers.
func (s *Scheduler) Snapshot() Snapshot {
	last := make(map[report.Kind]report.Report, len(s.last))
	for k, v := range s.last {
		last[k] = v
	}
	return Snapshot{
		State:          s.state,
		Pending:        s.counter.Peek(),
		ClimateEnabled: s.sensors.Climate != nil,
		LastSent:       last,
		Sends:          s.sends,
		SendErrors:     s.sendErrors,
		Rebases:        s.rebases,
	}
}

// Service runs one service cycle. It returns whether the transport may be
// powered down during the following Snooze: only with an established
// baseline and when nothing was sent this cycle.
func (s *Scheduler) Service() (allowSleep bool) {
	s.active = false
	now := s.clock.Millis()

	s.serviceCount(now)
	s.serviceHourly(now)

	if s.sensors.Light != nil && s.light.Due(now) {
		s.light.Fire(now)
		s.reportLight()
	}
	if s.sensors.Battery != nil && s.battery.Due(now) {
		s.battery.Fire(now)
		s.reportBattery()
	}

	// Read back a conversion triggered in an earlier cycle before deciding
	// whether to start a new one.
	if s.state.ClimatePending && logic.Elapsed(now, s.state.ClimateTriggeredAt) > s.settle {
		s.state.ClimatePending = false
		s.reportClimate()
	}
	if s.sensors.Climate != nil && s.climate.Due(now) {
		s.climate.Fire(now)
		s.triggerClimate(now)
	}

	return s.state.BaselineValid() && !s.active
}

func (s *Scheduler) serviceCount(now uint32) {
	if !s.minReport.Due(now) {
		return
	}
	// Equal consecutive counts hold back one cycle; a zero after a non-zero
	// report goes out once so the controller sees the flow stop.
	if s.counter.Peek() == s.state.LastRelative {
		return
	}
	drained := s.counter.Drain()

	s.submit(report.Count(report.RelCount, drained))
	if s.state.BaselineValid() {
		s.state.Absolute += drained
		s.submit(report.Count(report.AbsCount, s.state.Absolute))
	} else {
		s.request(report.Baseline)
	}
	s.state.Hourly += drained
	s.state.LastRelative = drained
	s.minReport.Fire(now)
}

func (s *Scheduler) serviceHourly(now uint32) {
	if !s.hourly.Due(now) {
		return
	}
	s.hourly.Fire(now)
	s.submit(report.Float(report.Flow, float64(s.state.Hourly)*s.cfg.LitersPerPulse, 0))
	if s.state.BaselineValid() {
		s.submit(report.Float(report.Volume, float64(s.state.Absolute)*s.cfg.LitersPerPulse, 0))
	}
	s.state.Hourly = 0
}

func (s *Scheduler) reportLight() {
	pct, err := s.sensors.Light.Measure()
	if err != nil {
		log.Printf("light: measure failed: %v", err)
		return
	}
	s.submit(report.Count(report.Light, uint32(pct)))
}

func (s *Scheduler) reportBattery() {
	if s.sensors.Battery == nil {
		return
	}
	mv, err := s.sensors.Battery.MeasureVoltage()
	if err != nil {
		log.Printf("battery: measure failed: %v", err)
		return
	}
	s.submit(report.Count(report.BatteryVoltage, uint32(mv)))
	s.submit(report.Count(report.BatteryLevel, uint32(s.sensors.Battery.VoltageToPercent(mv))))
}

func (s *Scheduler) triggerClimate(now uint32) {
	if s.state.ClimatePending {
		return
	}
	if err := s.sensors.Climate.Trigger(); err != nil {
		log.Printf("climate: trigger failed: %v", err)
		return
	}
	s.state.ClimatePending = true
	s.state.ClimateTriggeredAt = now
}

func (s *Scheduler) reportClimate() {
	if s.sensors.Climate == nil {
		return
	}
	if t, err := s.sensors.Climate.ReadTemperature(); err != nil {
		log.Printf("climate: temperature read failed: %v", err)
	} else if !math.IsNaN(t) {
		s.submit(report.Float(report.Temperature, t, 1))
	}
	if h, err := s.sensors.Climate.ReadHumidity(); err != nil {
		log.Printf("climate: humidity read failed: %v", err)
	} else if !math.IsNaN(h) {
		s.submit(report.Float(report.Humidity, h, 0))
	}
}

func (s *Scheduler) submit(r report.Report) {
	s.markActive()
	s.sends++
	s.last[r.Kind] = r
	if err := s.transport.Submit(r); err != nil {
		s.sendErrors++
		log.Printf("scheduler: submit %v failed: %v", r, err)
	}
}

func (s *Scheduler) request(p report.Param) {
	s.markActive()
	if err := s.transport.Request(p); err != nil {
		log.Printf("scheduler: request %d/%d failed: %v", p.Child, p.Type, err)
	}
}

func (s *Scheduler) markActive() {
	s.active = true
	if s.activity != nil {
		s.activity.MarkActive()
	}
}
