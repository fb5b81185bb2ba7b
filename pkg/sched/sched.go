// Package sched produces phases from periodic tick sources.
package sched

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rear.go/pkg/framework"
	"github.com/robotalks/rear.go/pkg/fuel"
	"github.com/robotalks/rear.go/pkg/hw"
	"github.com/robotalks/rear.go/pkg/phase"
)

// Tick periods.
const (
	Period5Hz   = 200 * time.Millisecond
	Period10Hz  = 100 * time.Millisecond
	Period100Hz = 10 * time.Millisecond
)

// Pusher accepts phases without blocking.
type Pusher interface {
	Push(phase.Phase) bool
}

// Scheduler owns the three tick sources:
//   - 5 Hz requests the temperature phase;
//   - 10 Hz requests the rpm phase;
//   - 100 Hz samples the fuel sensor while a fuel window is armed,
//     requests the fuel phase when the window completes and disarms
//     until Rearm.
type Scheduler struct {
	Queue      Pusher
	Fuel       *fuel.Accumulator
	FuelSensor hw.DigitalInput // active low
	NewTicker  TickerFactory

	rearmCh chan struct{}
}

// New creates a Scheduler using system tickers.
func New(q Pusher, acc *fuel.Accumulator, sensor hw.DigitalInput) *Scheduler {
	return &Scheduler{
		Queue:      q,
		Fuel:       acc,
		FuelSensor: sensor,
		NewTicker:  SystemTicker,
		rearmCh:    make(chan struct{}, 1),
	}
}

// AddToRunner implements framework.RunnableAdder.
func (s *Scheduler) AddToRunner(r *fx.Runner) {
	r.Go(
		fx.NamedRun("tick-5hz", s.Periodic(Period5Hz, phase.Temperature)),
		fx.NamedRun("tick-10hz", s.Periodic(Period10Hz, phase.RPM)),
		fx.NamedRun("tick-100hz", fx.RunFunc(s.RunFuelWindow)),
	)
}

// Periodic creates a source pushing p every period.
func (s *Scheduler) Periodic(period time.Duration, p phase.Phase) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		ticker := s.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C():
				s.push(p)
			}
		}
	})
}

// Rearm starts a new fuel window if none is running.
func (s *Scheduler) Rearm() {
	select {
	case s.rearmCh <- struct{}{}:
	default:
	}
}

// RunFuelWindow runs the windowed 100 Hz source. It starts armed.
func (s *Scheduler) RunFuelWindow(ctx context.Context) error {
	ticker := s.NewTicker(Period100Hz)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	for {
		var tickCh <-chan time.Time
		if ticker != nil {
			tickCh = ticker.C()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tickCh:
			if s.FuelTick() {
				ticker.Stop()
				ticker = nil
				glog.V(3).Info("fuel window disarmed")
			}
		case <-s.rearmCh:
			if ticker == nil {
				ticker = s.NewTicker(Period100Hz)
				glog.V(3).Info("fuel window armed")
			}
		}
	}
}

// FuelTick samples the fuel sensor once. It returns true when the
// window is complete and the fuel phase was queued. If the queue
// rejects the phase the window stays armed and the push is retried on
// the next tick. Once queued, the fuel phase is never evicted (see
// phase.Phase.Latched), so its handler always gets to call Rearm.
func (s *Scheduler) FuelTick() bool {
	var active bool
	if high, err := s.FuelSensor.Read(); err != nil {
		glog.Warningf("fuel sensor read: %v", err)
	} else {
		active = !high
	}
	if !s.Fuel.Tick(active) {
		return false
	}
	return s.push(phase.Fuel)
}

func (s *Scheduler) push(p phase.Phase) bool {
	if s.Queue.Push(p) {
		return true
	}
	glog.V(2).Infof("phase %s dropped", p)
	return false
}
