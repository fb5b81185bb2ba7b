// Package sim provides simulated peripherals for the bench shell and
// tests.
package sim

import (
	"errors"
	"sync"
	"time"
)

// Analog is a settable analog input.
type Analog struct {
	lock  sync.Mutex
	volts float64
	err   error
}

// NewAnalog creates an Analog reading volts.
func NewAnalog(volts float64) *Analog {
	return &Analog{volts: volts}
}

// Set changes the voltage read.
func (a *Analog) Set(volts float64) {
	a.lock.Lock()
	a.volts, a.err = volts, nil
	a.lock.Unlock()
}

// Fail makes subsequent reads return err.
func (a *Analog) Fail(err error) {
	a.lock.Lock()
	a.err = err
	a.lock.Unlock()
}

// ReadVolts implements hw.AnalogInput.
func (a *Analog) ReadVolts() (float64, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.volts, a.err
}

// Pin is a digital pin usable as input or output.
type Pin struct {
	lock sync.Mutex
	high bool
}

// NewPin creates a Pin at the given level.
func NewPin(high bool) *Pin {
	return &Pin{high: high}
}

// Set changes the level read.
func (p *Pin) Set(high bool) {
	p.lock.Lock()
	p.high = high
	p.lock.Unlock()
}

// Read implements hw.DigitalInput.
func (p *Pin) Read() (bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.high, nil
}

// Write implements hw.DigitalOutput.
func (p *Pin) Write(high bool) error {
	p.lock.Lock()
	p.high = high
	p.lock.Unlock()
	return nil
}

// Level returns the current level.
func (p *Pin) Level() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.high
}

// Edge is a falling-edge source fired by hand.
type Edge struct {
	lock sync.Mutex
	fn   func()
}

// ErrNotWatching is returned by Fire when nobody watches the edge.
var ErrNotWatching = errors.New("edge not watched")

// WatchFalling implements hw.EdgeInput.
func (e *Edge) WatchFalling(fn func()) error {
	e.lock.Lock()
	e.fn = fn
	e.lock.Unlock()
	return nil
}

// StopWatching implements hw.EdgeInput.
func (e *Edge) StopWatching() error {
	e.lock.Lock()
	e.fn = nil
	e.lock.Unlock()
	return nil
}

// Fire delivers n falling edges.
func (e *Edge) Fire(n int) error {
	e.lock.Lock()
	fn := e.fn
	e.lock.Unlock()
	if fn == nil {
		return ErrNotWatching
	}
	for i := 0; i < n; i++ {
		fn()
	}
	return nil
}

// PWM records what is applied to a PWM channel.
type PWM struct {
	lock    sync.Mutex
	period  time.Duration
	widths  []time.Duration
	failing error
}

// SetPeriod implements hw.PWMOutput.
func (p *PWM) SetPeriod(d time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failing != nil {
		return p.failing
	}
	p.period = d
	return nil
}

// SetPulseWidth implements hw.PWMOutput.
func (p *PWM) SetPulseWidth(d time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failing != nil {
		return p.failing
	}
	p.widths = append(p.widths, d)
	return nil
}

// Fail makes subsequent calls return err, nil restores.
func (p *PWM) Fail(err error) {
	p.lock.Lock()
	p.failing = err
	p.lock.Unlock()
}

// Period returns the last period applied.
func (p *PWM) Period() time.Duration {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.period
}

// PulseWidths returns all pulse widths applied so far.
func (p *PWM) PulseWidths() []time.Duration {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]time.Duration(nil), p.widths...)
}

// PulseWidth returns the last pulse width applied, 0 if none.
func (p *PWM) PulseWidth() time.Duration {
	p.lock.Lock()
	defer p.lock.Unlock()
	if len(p.widths) == 0 {
		return 0
	}
	return p.widths[len(p.widths)-1]
}
