package mqtt

import (
	"github.com/sweeney/gas-meter/internal/report"
)

// FakeTransport records traffic for test assertions.
type FakeTransport struct {
	// Submitted contains every report passed to Submit.
	Submitted []report.Report

	// Requested contains every parameter passed to Request.
	Requested []report.Param

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// SubmitError, if set, is returned by Submit and Request.
	SubmitError error

	// PublishSystemError, if set, is returned by PublishSystem.
	PublishSystemError error

	// NotReady makes IsReady return false this many times.
	NotReady int

	// Enables and Disables count effective state changes.
	Enables  int
	Disables int

	// Disabled is the current power state.
	Disabled bool

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	msgs chan report.Message
}

// NewFakeTransport creates a FakeTransport for testing.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{msgs: make(chan report.Message, 16)}
}

func (f *FakeTransport) wake() {
	if f.Disabled {
		f.Disabled = false
		f.Enables++
	}
}

// Submit records the report and wakes the transport.
func (f *FakeTransport) Submit(r report.Report) error {
	f.wake()
	if f.SubmitError != nil {
		return f.SubmitError
	}
	f.Submitted = append(f.Submitted, r)
	return nil
}

// Request records the parameter and wakes the transport.
func (f *FakeTransport) Request(p report.Param) error {
	f.wake()
	if f.SubmitError != nil {
		return f.SubmitError
	}
	f.Requested = append(f.Requested, p)
	return nil
}

// IsReady returns false NotReady times, then true.
func (f *FakeTransport) IsReady() bool {
	if f.NotReady > 0 {
		f.NotReady--
		return false
	}
	return true
}

// Enable wakes the transport.
func (f *FakeTransport) Enable() error {
	f.wake()
	return nil
}

// Disable puts the transport to sleep.
func (f *FakeTransport) Disable() error {
	if !f.Disabled {
		f.Disabled = true
		f.Disables++
	}
	return nil
}

// Messages returns the inbound channel fed by Inject.
func (f *FakeTransport) Messages() <-chan report.Message {
	return f.msgs
}

// Inject queues an inbound controller message.
func (f *FakeTransport) Inject(msg report.Message) {
	f.msgs <- msg
}

// PublishSystem records the system event, waking the transport like the
// real one does.
func (f *FakeTransport) PublishSystem(event SystemEvent) error {
	f.wake()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// IsConnected reports whether the fake transport is "connected".
func (f *FakeTransport) IsConnected() bool {
	return f.Connected
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded traffic and errors.
func (f *FakeTransport) Reset() {
	f.Submitted = nil
	f.Requested = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.SubmitError = nil
	f.PublishSystemError = nil
	f.NotReady = 0
	f.Enables = 0
	f.Disables = 0
	f.Closed = false
}
