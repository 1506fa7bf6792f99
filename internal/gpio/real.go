//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the contact from actual hardware.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader requests pin as an input with pull-up; the contact closes
// to ground.
func NewRealReader(pin int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request contact pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, line: line}, nil
}

// Read returns true while the contact is closed (raw 0).
func (r *RealReader) Read() (bool, error) {
	raw, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read contact pin: %w", err)
	}
	return raw == 0, nil
}

// Close returns the pin to input with pull-down (the Pi boot default) and
// releases it.
func (r *RealReader) Close() error {
	return closeLine(r.chip, r.line, "contact")
}

// RealWriter drives an output line.
type RealWriter struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	name string
}

// NewRealWriter requests pin as an output at the initial level.
func NewRealWriter(pin int, name string, initial bool) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(level(initial)))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request %s pin %d: %w", name, pin, err)
	}

	return &RealWriter{chip: chip, line: line, name: name}, nil
}

// Set drives the line high (true) or low.
func (w *RealWriter) Set(on bool) error {
	if err := w.line.SetValue(level(on)); err != nil {
		return fmt.Errorf("set %s pin: %w", w.name, err)
	}
	return nil
}

// Close releases the line.
func (w *RealWriter) Close() error {
	return closeLine(w.chip, w.line, w.name)
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}

func closeLine(chip *gpiocdev.Chip, line *gpiocdev.Line, name string) error {
	var errs []error

	if line != nil {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if chip != nil {
		if err := chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
