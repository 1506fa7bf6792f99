package main

import (
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/gas-meter/internal/logic"
	"github.com/sweeney/gas-meter/internal/mqtt"
	"github.com/sweeney/gas-meter/internal/node"
	"github.com/sweeney/gas-meter/internal/power"
	"github.com/sweeney/gas-meter/internal/status"
)

var timeNow = time.Now

// daemon is everything the main loop drives.
type daemon struct {
	power     *power.Manager
	scheduler *node.Scheduler
	detector  *logic.PulseDetector
	transport transport
	tracker   *status.Tracker
	heartbeat time.Duration // 0 disables
	now       func() time.Time
}

// runLoop runs service cycles until a signal arrives or the tick source
// stops. Each cycle: snooze to the next boundary, apply inbound messages,
// service the schedule, publish status.
func runLoop(d daemon, sig <-chan os.Signal) error {
	msgs := d.transport.Messages()
	lastHeartbeat := d.now()
	allowSleep := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			d.update()
			publishSystem(d.transport, d.tracker, "SHUTDOWN", signalName(s))
			return nil
		default:
		}

		if slept := d.power.Snooze(allowSleep); slept < d.power.TicksPerCycle() {
			log.Printf("tick source stopped, exiting")
			return nil
		}

		// Inbound messages are applied between cycles so the scheduler
		// state is only ever touched from this goroutine.
	drain:
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					msgs = nil
					break drain
				}
				d.scheduler.HandleMessage(msg)
			default:
				break drain
			}
		}

		allowSleep = d.scheduler.Service()
		d.update()

		if d.heartbeat > 0 {
			if t := d.now(); t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				snap := d.tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v mode=%s pending=%d sends=%d errors=%d",
					snap.Uptime().Truncate(time.Second), snap.Node.Mode, snap.Node.Pending, snap.Node.Sends, snap.Node.SendErrors)
				if net := readNetworkInfo(); net != nil {
					d.tracker.SetNetwork(net)
				}
				if publishSystem(d.transport, d.tracker, "HEARTBEAT", "") {
					// Publishing woke the transport.
					d.power.MarkActive()
				}
			}
		}
	}
}

// update refreshes the status tracker for HTTP and system-event consumers.
func (d daemon) update() {
	d.tracker.Update(d.scheduler.Snapshot(), d.detector.Closed(), d.detector.Ticks(), d.power.TransportSleeping())
	d.tracker.SetConnected(d.transport.IsConnected())
}

// publishSystem sends a lifecycle event with a status snapshot if the
// transport carries system events. Failure is logged, never fatal.
// It reports whether anything was sent.
func publishSystem(t transport, tracker *status.Tracker, event, reason string) bool {
	pub, ok := t.(systemPublisher)
	if !ok {
		return false
	}
	snap := tracker.Snapshot()
	err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		BootID:     snap.BootID,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return false
	}
	log.Printf("published %s event", event)
	return true
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
