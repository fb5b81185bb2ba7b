package unit

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/rear.go/pkg/framework"
	"github.com/robotalks/rear.go/pkg/phase"
)

var handlers = [phase.Count]func(*Unit){
	phase.Idle:        func(*Unit) {},
	phase.Temperature: (*Unit).temperaturePhase,
	phase.Fuel:        (*Unit).fuelPhase,
	phase.RPM:         (*Unit).rpmPhase,
	phase.Throttle:    (*Unit).throttlePhase,
	phase.Radio:       (*Unit).radioPhase,
	phase.Debug:       (*Unit).debugPhase,
}

// Step executes exactly one phase taken from the queue. It returns
// false when the queue was empty.
func (u *Unit) Step(ctx context.Context) (phase.Phase, bool) {
	p, ok := u.Queue.Next()
	u.indicate(!u.Queue.Saturated())
	if !ok {
		return phase.Idle, false
	}

	u.lock.Lock()
	if p.IsValid() {
		u.stats.Phases[p]++
		handlers[p](u)
	} else {
		glog.Warningf("dispatch: invalid %s", p)
	}
	pkt := u.outbox
	u.outbox = nil
	u.lock.Unlock()

	// the radio send blocks, bus frames keep being classified meanwhile
	if pkt != nil {
		err := u.Radio.Transmit(ctx, *pkt)
		u.lock.Lock()
		if err != nil {
			u.stats.RadioFailed++
		} else {
			u.stats.RadioSent++
		}
		u.lock.Unlock()
	}
	return p, true
}

// Run dispatches phases until ctx is done. It sleeps on the queue
// while there is nothing to do.
func (u *Unit) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := u.Step(ctx); ok {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-u.Queue.Ready():
		}
	}
}

func (u *Unit) indicate(high bool) {
	var level int8
	if high {
		level = 1
	}
	if level == u.indicator {
		return
	}
	if err := u.Indicator.Write(high); err != nil {
		glog.V(2).Infof("indicator: %v", err)
		return
	}
	u.indicator = level
}

// AddToRunner implements framework.RunnableAdder.
func (u *Unit) AddToRunner(r *fx.Runner) {
	r.Go(fx.NamedRun("dispatch", fx.RunFunc(u.Run)))
}
