package unit

import (
	"github.com/golang/glog"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

// HandleFrame implements bus.Handler. It stores fields of inbound
// frames into the live slots and requests the throttle phase.
func (u *Unit) HandleFrame(f bus.Frame) {
	u.lock.Lock()
	defer u.lock.Unlock()
	u.stats.Frames++
	var err error
	switch f.ID {
	case u.IDs.Throttle:
		var mode uint8
		if mode, err = f.Uint8(); err == nil {
			u.requested, u.pending = actuator.Mode(mode), true
			u.push(phase.Throttle)
		}
	case u.IDs.IMUAccel:
		var v [3]int16
		if v, err = f.Triad(); err == nil {
			u.imu[u.imuSlot].Accel = v
		}
	case u.IDs.IMUGyro:
		var v [3]int16
		if v, err = f.Triad(); err == nil {
			u.imu[u.imuSlot].Gyro = v
			u.imuSlot = (u.imuSlot + 1) % telemetry.IMUSlots
			if u.imuSlot == 0 {
				u.imuQueue.Push(u.imu)
			}
		}
	case u.IDs.Speed:
		var v uint16
		if v, err = f.Uint16(); err == nil {
			u.records[u.slot].Speed = v
		}
	default:
		u.stats.Unknown++
		glog.V(4).Infof("bus: ignored %s", f)
		return
	}
	if err != nil {
		u.stats.Malformed++
		glog.Warningf("bus: %v", err)
	}
}
