package sched

import "time"

// Ticker delivers periodic ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates Tickers, replaced by tests to drive ticks by hand.
type TickerFactory func(time.Duration) Ticker

type systemTicker struct {
	*time.Ticker
}

func (t systemTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// SystemTicker creates a Ticker backed by time.Ticker.
func SystemTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}
