package node

import (
	"log"

	"github.com/sweeney/gas-meter/internal/report"
)

// HandleMessage applies an inbound controller message. Acknowledgements and
// anything other than the baseline are ignored. A baseline re-bases the
// absolute count (last write wins) and immediately reports it together with
// the pulses not yet drained. It returns whether the message was applied.
func (s *Scheduler) HandleMessage(msg report.Message) bool {
	if msg.Ack || !msg.Is(report.Baseline) {
		return false
	}
	// Controllers answer a request either as SET or by echoing REQ.
	if msg.Command != report.CmdSet && msg.Command != report.CmdReq {
		return false
	}
	v, err := msg.Int32()
	if err != nil {
		log.Printf("scheduler: ignoring baseline: %v", err)
		return false
	}

	if s.state.Mode == RelativeOnly {
		log.Printf("scheduler: baseline %d received, absolute counting established", v)
	} else {
		log.Printf("scheduler: baseline %d received, re-basing from %d", v, s.state.Absolute)
	}
	s.state.Absolute = uint32(v)
	s.state.Mode = AbsoluteEstablished
	s.rebases++

	s.submit(report.Count(report.AbsCount, s.state.Absolute+s.counter.Peek()))
	return true
}
