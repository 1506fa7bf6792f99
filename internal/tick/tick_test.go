package tick

import (
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualTick(t *testing.T) {
	m := NewManual(100, 0)
	var calls int
	m.SetHandler(func() { calls++ })

	for i := 0; i < 5; i++ {
		if !m.Wait() {
			t.Fatal("Wait returned false before Stop")
		}
	}

	if calls != 5 {
		t.Errorf("handler calls: got %d, want 5", calls)
	}
	if m.Millis() != 50 {
		t.Errorf("Millis: got %d, want 50", m.Millis())
	}
	if m.Ticks() != 5 {
		t.Errorf("Ticks: got %d, want 5", m.Ticks())
	}
}

func TestManualWraps(t *testing.T) {
	m := NewManual(100, math.MaxUint32-5)
	m.Tick()
	if m.Millis() != 4 {
		t.Errorf("Millis after wrap: got %d, want 4", m.Millis())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(100, 0)
	m.Stop()
	if m.Wait() {
		t.Error("Wait should return false after Stop")
	}
}

func TestNewTickerDefaults(t *testing.T) {
	tk := NewTicker(0, nil)
	if tk.Rate() != DefaultRate {
		t.Errorf("Rate: got %d, want %d", tk.Rate(), DefaultRate)
	}
	if tk.Period() != 10*time.Millisecond {
		t.Errorf("Period: got %v, want 10ms", tk.Period())
	}
}

func TestTickerRunsHandlerAndWakes(t *testing.T) {
	var calls atomic.Int32
	tk := NewTicker(200, func() { calls.Add(1) })
	tk.Start()
	defer tk.Stop()

	for i := 0; i < 5; i++ {
		if !tk.Wait() {
			t.Fatal("Wait returned false while running")
		}
	}

	if got := calls.Load(); got < 5 {
		t.Errorf("handler calls: got %d, want >= 5", got)
	}
	if tk.Millis() == 0 {
		t.Error("Millis should advance while running")
	}
}

func TestTickerStopReleasesWait(t *testing.T) {
	tk := NewTicker(100, nil)
	tk.Start()
	tk.Stop()
	tk.Stop() // idempotent

	// Drain a possibly pending wake, then Wait must report stopped.
	for tk.Wait() {
	}
}
