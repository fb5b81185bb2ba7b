//go:build !linux

package board

import (
	"time"

	"github.com/robotalks/rear.go/pkg/hw"
)

// Board is unavailable outside linux.
type Board struct{}

// Open always fails outside linux.
func Open() (*Board, error) {
	return nil, hw.ErrNotSupported
}

// Close implements io.Closer.
func (b *Board) Close() error { return nil }

// Analog is unavailable outside linux.
type Analog struct{}

// Analog always fails outside linux.
func (b *Board) Analog(string, float64, int) (*Analog, error) { return nil, hw.ErrNotSupported }

// ReadVolts implements hw.AnalogInput.
func (a *Analog) ReadVolts() (float64, error) { return 0, hw.ErrNotSupported }

// Digital is unavailable outside linux.
type Digital struct{}

// Input always fails outside linux.
func (b *Board) Input(string) (*Digital, error) { return nil, hw.ErrNotSupported }

// Output always fails outside linux.
func (b *Board) Output(string) (*Digital, error) { return nil, hw.ErrNotSupported }

// Read implements hw.DigitalInput.
func (d *Digital) Read() (bool, error) { return false, hw.ErrNotSupported }

// Write implements hw.DigitalOutput.
func (d *Digital) Write(bool) error { return hw.ErrNotSupported }

// WatchFalling implements hw.EdgeInput.
func (d *Digital) WatchFalling(func()) error { return hw.ErrNotSupported }

// StopWatching implements hw.EdgeInput.
func (d *Digital) StopWatching() error { return nil }

// PWM is unavailable outside linux.
type PWM struct{}

// PWM always fails outside linux.
func (b *Board) PWM(string) (*PWM, error) { return nil, hw.ErrNotSupported }

// SetPeriod implements hw.PWMOutput.
func (p *PWM) SetPeriod(time.Duration) error { return hw.ErrNotSupported }

// SetPulseWidth implements hw.PWMOutput.
func (p *PWM) SetPulseWidth(time.Duration) error { return hw.ErrNotSupported }
