// Package bench wires a complete unit to simulated peripherals and an
// in-process base station, so the firmware loop can be driven by hand
// from the shell or from tests.
package bench

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	fx "github.com/robotalks/rear.go/pkg/framework"
	"github.com/robotalks/rear.go/pkg/freq"
	"github.com/robotalks/rear.go/pkg/hw/sim"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/radio"
	"github.com/robotalks/rear.go/pkg/sched"
	"github.com/robotalks/rear.go/pkg/telemetry"
	"github.com/robotalks/rear.go/pkg/unit"
)

// Radio addressing used between the unit and the base station.
const (
	Network  uint8 = 100
	UnitNode uint8 = 2
	BaseNode uint8 = 1
)

// Bench is a simulated unit.
type Bench struct {
	Clock   *freq.ManualClock
	Bus     *bus.Loopback
	Temp    *sim.Analog
	FuelPin *sim.Pin // active low
	Pickup  *sim.Edge
	Servo   *sim.PWM
	LED     *sim.Pin
	Signal  *sim.PWM

	Unit        *unit.Unit
	Sched       *sched.Scheduler
	Link        *radio.Link
	Base        *radio.Link
	Transmitter *radio.Transmitter

	ctx    context.Context
	cancel func()
	conns  []net.Conn

	lock    sync.Mutex
	packets []telemetry.Packet

	autoLock sync.Mutex
	auto     *fx.Runner
}

// New creates a Bench and starts both ends of the radio link.
func New(cfg unit.Config) (*Bench, error) {
	b := &Bench{
		Clock:   &freq.ManualClock{},
		Bus:     bus.NewLoopback(),
		Temp:    sim.NewAnalog(cfg.Divider.VCC / 2),
		FuelPin: sim.NewPin(true),
		Pickup:  &sim.Edge{},
		Servo:   &sim.PWM{},
		LED:     sim.NewPin(true),
		Signal:  &sim.PWM{},
	}
	u := unit.New(cfg, b.Clock)
	u.Bus, u.Temperature = b.Bus, b.Temp
	u.Servo = actuator.New(b.Servo, cfg.Servo)
	u.Indicator, u.Signal = b.LED, b.Signal
	if err := u.Counter.Watch(b.Pickup, b.Clock); err != nil {
		return nil, err
	}
	b.Sched = sched.New(u.Queue, u.Fuel, b.FuelPin)
	u.Window = b.Sched

	ca, cb := net.Pipe()
	b.conns = []net.Conn{ca, cb}
	b.Link = radio.NewLink(ca, Network, UnitNode)
	b.Base = radio.NewLink(cb, Network, BaseNode)
	b.Base.Handler = radio.HandleFrameFunc(b.receivePacket)
	b.Transmitter = radio.NewTransmitter(b.Link, BaseNode)
	u.Radio = b.Transmitter
	b.Unit = u

	if err := u.Init(); err != nil {
		return nil, err
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	go b.Link.Run(b.ctx)
	go b.Base.Run(b.ctx)
	return b, nil
}

// Close stops the bench.
func (b *Bench) Close() error {
	b.Auto(false)
	b.cancel()
	for _, c := range b.conns {
		c.Close()
	}
	return nil
}

func (b *Bench) receivePacket(ctx context.Context, f *radio.Frame) {
	var p telemetry.Packet
	if err := p.UnmarshalBinary(f.Payload); err != nil {
		glog.Warningf("base: frame %d from %d: %v", f.Seq, f.Src, err)
		return
	}
	b.lock.Lock()
	b.packets = append(b.packets, p)
	b.lock.Unlock()
}

// Packets returns the packets the base station received so far.
func (b *Bench) Packets() []telemetry.Packet {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]telemetry.Packet(nil), b.packets...)
}

// Edges fires n pickup edges, advancing the clock by gapUS before each.
func (b *Bench) Edges(n int, gapUS uint64) error {
	for i := 0; i < n; i++ {
		b.Clock.Advance(gapUS)
		if err := b.Pickup.Fire(1); err != nil {
			return err
		}
	}
	return nil
}

// Frame classifies f as if it arrived from the bus.
func (b *Bench) Frame(f bus.Frame) {
	b.Unit.HandleFrame(f)
}

// Throttle sends a throttle request.
func (b *Bench) Throttle(m actuator.Mode) {
	b.Frame(bus.Uint8Frame(b.Unit.IDs.Throttle, uint8(m)))
}

// IMU sends an accelerometer frame followed by a gyroscope frame.
func (b *Bench) IMU(accel, gyro [3]int16) {
	b.Frame(bus.TriadFrame(b.Unit.IDs.IMUAccel, accel))
	b.Frame(bus.TriadFrame(b.Unit.IDs.IMUGyro, gyro))
}

// Speed sends a speed frame.
func (b *Bench) Speed(v uint16) {
	b.Frame(bus.Uint16Frame(b.Unit.IDs.Speed, v))
}

// FuelTicks samples the fuel sensor n times. It returns true if the
// window completed and the fuel phase was queued.
func (b *Bench) FuelTicks(n int) bool {
	var queued bool
	for i := 0; i < n; i++ {
		if b.Sched.FuelTick() {
			queued = true
		}
	}
	return queued
}

// Push queues phases by hand.
func (b *Bench) Push(phases ...phase.Phase) error {
	for _, p := range phases {
		if !b.Unit.Queue.Push(p) {
			return fmt.Errorf("%s rejected by the queue", p)
		}
	}
	return nil
}

// Step executes one phase.
func (b *Bench) Step() (phase.Phase, bool) {
	return b.Unit.Step(b.ctx)
}

// Drain executes phases until the queue is empty.
func (b *Bench) Drain() []phase.Phase {
	var done []phase.Phase
	for {
		p, ok := b.Step()
		if !ok {
			return done
		}
		done = append(done, p)
	}
}

// Auto runs the scheduler and dispatcher in the background with
// real tickers while the simulated clock follows wall time.
func (b *Bench) Auto(on bool) bool {
	b.autoLock.Lock()
	defer b.autoLock.Unlock()
	if on == (b.auto != nil) {
		return false
	}
	if !on {
		b.auto.Stop()
		b.auto.Wait()
		b.auto = nil
		return true
	}
	r := fx.NewRunnerWith(b.ctx)
	r.Go(fx.NamedRun("clock", fx.RunFunc(b.followWallClock)))
	r.Add(b.Sched, b.Unit)
	b.auto = r
	return true
}

// Running reports whether Auto is on.
func (b *Bench) Running() bool {
	b.autoLock.Lock()
	defer b.autoLock.Unlock()
	return b.auto != nil
}

func (b *Bench) followWallClock(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			b.Clock.Advance(uint64(now.Sub(last) / time.Microsecond))
			last = now
		}
	}
}
