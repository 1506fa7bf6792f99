package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted contact samples.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted values (true = closed). Each call to
	// Read consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Pulses builds a sample script of n clean pulses, each closed for width
// samples and open for gap samples.
func Pulses(n, width, gap int) []bool {
	var s []bool
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			s = append(s, true)
		}
		for j := 0; j < gap; j++ {
			s = append(s, false)
		}
	}
	return s
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Consumed returns the number of samples read so far, capped at the script
// length minus one.
func (f *FakeReader) Consumed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.Closed = false
}

// FakeWriter records output levels.
type FakeWriter struct {
	mu sync.Mutex

	// States contains every level set, in order.
	States []bool

	// SetError, if set, will be returned by Set()
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// Set records the level.
func (f *FakeWriter) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// Last returns the most recent level and whether any was set.
func (f *FakeWriter) Last() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.States) == 0 {
		return false, false
	}
	return f.States[len(f.States)-1], true
}

// Count returns the number of levels set.
func (f *FakeWriter) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.States)
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
