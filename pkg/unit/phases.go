package unit

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/freq"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

// SignalPeriod is the period of the optional square wave output.
const SignalPeriod = 32 * time.Millisecond

// All handlers run with the lock held.

func (u *Unit) temperaturePhase() {
	if u.Temperature == nil {
		return
	}
	v, err := u.Temperature.ReadVolts()
	if err == nil {
		var c float64
		if c, err = u.Divider.Celsius(v); err == nil {
			t := telemetry.Temperature{Motor: float32(c)}
			u.tempQueue.Push(t)
			u.send(bus.Float32Frame(u.IDs.Temperature, t.Motor))
			u.push(phase.Radio)
			return
		}
	}
	u.stats.SensorErrors++
	glog.Warningf("temperature: %v", err)
}

func (u *Unit) fuelPhase() {
	w := u.Fuel.Take()
	low := w.Active > u.FuelThreshold
	for n := range u.records {
		u.records[n].Flags &^= telemetry.FlagFuelLow
		if low {
			u.records[n].Flags |= telemetry.FlagFuelLow
		}
	}
	glog.V(3).Infof("fuel: %d/%d active", w.Active, w.Ticks)
	u.send(bus.Uint8Frame(u.IDs.Flags, u.records[u.slot].Flags))
	if u.Window != nil {
		u.Window.Rearm()
	}
}

func (u *Unit) rpmPhase() {
	now := u.Clock.Micros()
	r := u.Counter.ReadReset(now)
	rec := &u.records[u.slot]
	if r.Running() {
		if !u.running {
			u.running, u.engineSince = true, now
			glog.Info("engine running")
		}
		if mode, ok := u.Servo.Applied(); !ok || mode != actuator.Run {
			u.Servo.Apply(actuator.Run, &rec.Flags)
		}
	} else if u.running {
		u.running = false
		u.engineUS += now - u.engineSince
		glog.Info("engine stopped")
		u.Servo.Apply(actuator.Neutral, &rec.Flags)
	}
	rec.RPM = freq.EncodeRPM(r.Hz)
	u.send(bus.Uint16Frame(u.IDs.RPM, uint16(r.Hz)))

	u.slot = (u.slot + 1) % telemetry.RecordSlots
	if u.slot == 0 {
		u.recordQueue.Push(u.records)
	}
}

func (u *Unit) throttlePhase() {
	if !u.pending {
		return
	}
	u.pending = false
	u.Servo.Apply(u.requested, &u.records[u.slot].Flags)
}

// radioPhase leaves the queues untouched unless a packet is sent, so
// with the radio disabled they fill up and count overruns.
func (u *Unit) radioPhase() {
	if u.Radio == nil || u.imuQueue.Empty() || u.recordQueue.Empty() || u.tempQueue.Empty() {
		u.stats.RadioSkipped++
		return
	}
	var pkt telemetry.Packet
	pkt.IMU, _ = u.imuQueue.Pop()
	pkt.Records, _ = u.recordQueue.Pop()
	pkt.Temp, _ = u.tempQueue.Pop()
	u.outbox = &pkt
}

func (u *Unit) debugPhase() {
	if glog.V(1) {
		glog.Info(u.statusLocked())
	}
}

func logBusError(f bus.Frame, err error) {
	glog.Warningf("bus: write %s: %v", f, err)
}
