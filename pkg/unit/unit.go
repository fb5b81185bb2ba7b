// Package unit is the rear unit itself: it classifies bus frames into
// partial records, dispatches phases one at a time and assembles the
// telemetry packets relayed over the radio.
package unit

import (
	"context"
	"fmt"
	"sync"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/freq"
	"github.com/robotalks/rear.go/pkg/fuel"
	"github.com/robotalks/rear.go/pkg/hw"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/ring"
	"github.com/robotalks/rear.go/pkg/telemetry"
	"github.com/robotalks/rear.go/pkg/thermistor"
)

// Assembler queue capacities.
const (
	IMUQueueSize         = 20
	RecordQueueSize      = 10
	TemperatureQueueSize = 10
)

// Transmitter relays a composed packet, blocking until done.
type Transmitter interface {
	Transmit(context.Context, telemetry.Packet) error
}

// Rearmer re-arms the fuel sampling window.
type Rearmer interface {
	Rearm()
}

// Config holds the tunables of a Unit.
type Config struct {
	IDs             bus.IDs
	PhaseBufferSize int
	QueuePolicy     phase.Policy
	FuelWindow      uint8
	FuelThreshold   uint8
	Divider         thermistor.Divider
	Servo           actuator.Presets
}

// DefaultConfig returns the configuration of the fitted hardware.
func DefaultConfig() Config {
	return Config{
		IDs:             bus.DefaultIDs,
		PhaseBufferSize: 16,
		QueuePolicy:     phase.DropNewest,
		FuelWindow:      fuel.DefaultWindow,
		FuelThreshold:   50,
		Divider:         thermistor.Default,
		Servo:           actuator.DefaultPresets,
	}
}

// Stats counts what the unit did and what it had to give up on.
type Stats struct {
	Frames       uint64
	Unknown      uint64
	Malformed    uint64
	Phases       [phase.Count]uint64
	Rejected     uint64 // phases the unit could not enqueue
	RadioSent    uint64
	RadioFailed  uint64
	RadioSkipped uint64
	BusErrors    uint64
	SensorErrors uint64
}

// Unit is the state shared by the classifier and the dispatcher. The
// lock plays the role of the receive interrupt mask: classification
// and phase handlers never interleave.
type Unit struct {
	Queue   *phase.Queue
	Counter *freq.Counter
	Clock   freq.Clock
	Fuel    *fuel.Accumulator
	Window  Rearmer

	Bus         bus.Writer
	Servo       *actuator.Controller
	Radio       Transmitter
	Temperature hw.AnalogInput
	Indicator   hw.DigitalOutput
	Signal      hw.PWMOutput

	IDs           bus.IDs
	Divider       thermistor.Divider
	FuelThreshold uint8

	lock sync.Mutex

	records telemetry.RecordPair
	slot    int
	imu     telemetry.IMUBlock
	imuSlot int

	imuQueue    *ring.Ring[telemetry.IMUBlock]
	recordQueue *ring.Ring[telemetry.RecordPair]
	tempQueue   *ring.Ring[telemetry.Temperature]

	requested actuator.Mode
	pending   bool

	running     bool
	engineSince uint64
	engineUS    uint64

	indicator int8 // -1 unknown, 0 low, 1 high
	outbox    *telemetry.Packet
	stats     Stats
}

// New creates a Unit with no-op servo and indicator outputs. Callers
// set Bus, Radio, Temperature and Window before running it.
func New(cfg Config, clock freq.Clock) *Unit {
	if clock == nil {
		clock = freq.NewSystemClock()
	}
	if cfg.PhaseBufferSize <= 0 {
		cfg.PhaseBufferSize = DefaultConfig().PhaseBufferSize
	}
	u := &Unit{
		Queue:         phase.NewQueue(2*cfg.PhaseBufferSize, cfg.QueuePolicy),
		Counter:       freq.NewCounter(clock.Micros()),
		Clock:         clock,
		Fuel:          fuel.NewAccumulator(cfg.FuelWindow),
		Servo:         actuator.New(hw.Nop{}, cfg.Servo),
		Indicator:     hw.Nop{},
		IDs:           cfg.IDs,
		Divider:       cfg.Divider,
		FuelThreshold: cfg.FuelThreshold,
		imuQueue:      ring.New[telemetry.IMUBlock](IMUQueueSize),
		recordQueue:   ring.New[telemetry.RecordPair](RecordQueueSize),
		tempQueue:     ring.New[telemetry.Temperature](TemperatureQueueSize),
		indicator:     -1,
	}
	return u
}

// Init prepares the outputs: servo period and the optional signal.
func (u *Unit) Init() error {
	if err := u.Servo.Init(); err != nil {
		return err
	}
	if u.Signal != nil {
		if err := u.Signal.SetPeriod(SignalPeriod); err != nil {
			return fmt.Errorf("signal period: %w", err)
		}
		if err := u.Signal.SetPulseWidth(SignalPeriod / 2); err != nil {
			return fmt.Errorf("signal duty: %w", err)
		}
	}
	return nil
}

// Stats returns a copy of the counters.
func (u *Unit) Stats() Stats {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.stats
}

// push requests a phase on behalf of the unit, lock held.
func (u *Unit) push(p phase.Phase) {
	if !u.Queue.Push(p) {
		u.stats.Rejected++
	}
}

// send transmits a bus frame, lock held.
func (u *Unit) send(f bus.Frame) {
	if u.Bus == nil {
		return
	}
	if err := u.Bus.WriteFrame(f); err != nil {
		u.stats.BusErrors++
		logBusError(f, err)
	}
}
