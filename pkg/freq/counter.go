// Package freq measures the engine speed by counting falling edges
// of the RPM pickup against a microsecond clock.
package freq

import (
	"math"
	"sync"

	"github.com/robotalks/rear.go/pkg/hw"
)

// Reading is the result of one measurement window.
type Reading struct {
	Pulses   uint32
	PeriodUS uint64
	Hz       float64
}

// Running reports whether the engine turned during the window.
func (r Reading) Running() bool {
	return r.PeriodUS != 0
}

// Counter accumulates edges. Edge is called from the edge watcher,
// ReadReset from the rpm phase; both hold the lock, which stands for
// the interrupt-disable bracket of the read-reset sequence.
type Counter struct {
	lock     sync.Mutex
	pulses   uint32
	periodUS uint64
	lastEdge uint64
}

// NewCounter creates a Counter whose first window starts at now.
func NewCounter(now uint64) *Counter {
	return &Counter{lastEdge: now}
}

// Edge records one falling edge seen at now.
func (c *Counter) Edge(now uint64) {
	c.lock.Lock()
	c.pulses++
	c.periodUS += now - c.lastEdge
	c.lastEdge = now
	c.lock.Unlock()
}

// ReadReset returns the current window and starts a new one at now.
func (c *Counter) ReadReset(now uint64) (r Reading) {
	c.lock.Lock()
	r.Pulses, r.PeriodUS = c.pulses, c.periodUS
	c.pulses, c.periodUS, c.lastEdge = 0, 0, now
	c.lock.Unlock()
	r.Hz = Hz(r.Pulses, r.PeriodUS)
	return
}

// Watch feeds falling edges of in to the counter, stamped by clock.
func (c *Counter) Watch(in hw.EdgeInput, clock Clock) error {
	return in.WatchFalling(func() { c.Edge(clock.Micros()) })
}

// Hz converts pulses over a period in microseconds to a frequency.
// A zero period yields zero.
func Hz(pulses uint32, periodUS uint64) float64 {
	if periodUS == 0 {
		return 0
	}
	return float64(pulses) / float64(periodUS) * 1e6
}

// EncodeRPM maps a frequency in Hz to the fixed-point RPM unit used in
// telemetry records: 5000 rpm full scale over 16 bits.
func EncodeRPM(hz float64) uint16 {
	v := math.Round(hz * 60 * 65535 / 5000)
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}
