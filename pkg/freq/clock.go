package freq

import (
	"sync"
	"time"
)

// Clock is a free-running microsecond counter.
type Clock interface {
	Micros() uint64
}

// SystemClock counts microseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock starts a SystemClock.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Micros implements Clock.
func (c *SystemClock) Micros() uint64 {
	return uint64(time.Since(c.start) / time.Microsecond)
}

// ManualClock is a Clock advanced by hand.
type ManualClock struct {
	lock sync.Mutex
	now  uint64
}

// Micros implements Clock.
func (c *ManualClock) Micros() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(us uint64) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += us
	return c.now
}
