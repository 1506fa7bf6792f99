// Package logic contains the pure pulse-acquisition logic of the gas meter node.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable as a wrapping millisecond counter.
package logic

// DefaultDebounceSamples is the number of identical consecutive samples needed
// before a contact state change is accepted. At 100 Hz this is a 40 ms minimum
// pulse width; the meter clicks at most every few seconds.
const DefaultDebounceSamples = 4
