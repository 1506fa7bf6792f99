package logic

import (
	"math"
	"time"
)

// MaxInterval is the longest interval representable in the wrapping
// millisecond space.
const MaxInterval = time.Duration(math.MaxUint32) * time.Millisecond

// Elapsed returns the milliseconds from last to now. The subtraction wraps,
// so the result is correct across a counter overflow as long as the real
// elapsed time is below MaxInterval.
func Elapsed(now, last uint32) uint32 {
	return now - last
}

// Due reports whether at least interval ms have passed since last.
func Due(now, last, interval uint32) bool {
	return Elapsed(now, last) >= interval
}

// Millis converts d to milliseconds, saturating at the uint32 range.
func Millis(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}

// Entry is one periodic report: an interval and the time it last fired.
type Entry struct {
	Interval uint32
	Last     uint32
}

// NewEntry creates an Entry that first becomes due interval after now.
func NewEntry(interval time.Duration, now uint32) Entry {
	return Entry{Interval: Millis(interval), Last: now}
}

// Due reports whether the entry should fire at now.
func (e *Entry) Due(now uint32) bool {
	return Due(now, e.Last, e.Interval)
}

// Fire re-arms the entry from now.
func (e *Entry) Fire(now uint32) {
	e.Last = now
}

// Remaining returns the ms until the entry is due, 0 if already due.
func (e *Entry) Remaining(now uint32) uint32 {
	el := Elapsed(now, e.Last)
	if el >= e.Interval {
		return 0
	}
	return e.Interval - el
}
