// Package fuel accumulates the fuel sensor level over a fixed window
// of ticks.
package fuel

import "sync"

// DefaultWindow is the number of 100 Hz ticks in one window (1 s).
const DefaultWindow = 100

// Window is the outcome of one accumulation window.
type Window struct {
	Ticks  uint8
	Active uint8
}

// Accumulator counts ticks and the ticks the sensor was active.
// Tick is called by the windowed producer, Take by the fuel phase.
type Accumulator struct {
	size uint8

	lock   sync.Mutex
	ticks  uint8
	active uint8
}

// NewAccumulator creates an Accumulator of size ticks.
func NewAccumulator(size uint8) *Accumulator {
	if size == 0 {
		size = DefaultWindow
	}
	return &Accumulator{size: size}
}

// Size returns the window size in ticks.
func (a *Accumulator) Size() uint8 {
	return a.size
}

// Tick accounts one tick and returns true once the window is complete.
// Ticks past a complete window are ignored until Take.
func (a *Accumulator) Tick(active bool) (complete bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.ticks < a.size {
		a.ticks++
		if active {
			a.active++
		}
	}
	return a.ticks >= a.size
}

// Take returns the window and resets the accumulator.
func (a *Accumulator) Take() (w Window) {
	a.lock.Lock()
	w.Ticks, w.Active = a.ticks, a.active
	a.ticks, a.active = 0, 0
	a.lock.Unlock()
	return
}
