// Package hw defines the peripherals the unit drives. Implementations
// live in hw/board (linux boards) and hw/sim (bench and tests).
package hw

import (
	"errors"
	"time"
)

// AnalogInput reads a voltage.
type AnalogInput interface {
	ReadVolts() (float64, error)
}

// DigitalInput reads a logic level, true is high.
type DigitalInput interface {
	Read() (bool, error)
}

// DigitalOutput drives a logic level, true is high.
type DigitalOutput interface {
	Write(high bool) error
}

// EdgeInput reports falling edges. The callback runs in the watcher's
// goroutine and must not block.
type EdgeInput interface {
	WatchFalling(fn func()) error
	StopWatching() error
}

// PWMOutput is a pulse-width modulated output.
type PWMOutput interface {
	SetPeriod(time.Duration) error
	SetPulseWidth(time.Duration) error
}

// ErrNotSupported is returned when a platform lacks a peripheral.
var ErrNotSupported = errors.New("peripheral not supported on this platform")

// Nop is a DigitalOutput and PWMOutput discarding everything. Used
// for optional outputs (indicator LED, debug signal) left unwired.
type Nop struct{}

// Write implements DigitalOutput.
func (Nop) Write(bool) error { return nil }

// SetPeriod implements PWMOutput.
func (Nop) SetPeriod(time.Duration) error { return nil }

// SetPulseWidth implements PWMOutput.
func (Nop) SetPulseWidth(time.Duration) error { return nil }
