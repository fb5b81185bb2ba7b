package unit

import (
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

// Status is a snapshot of the unit.
type Status struct {
	Records telemetry.RecordPair
	Slot    int
	IMU     telemetry.IMUBlock
	IMUSlot int

	QueuedIMU     int
	QueuedRecords int
	QueuedTemps   int
	Overruns      uint64

	Mode      actuator.Mode
	ModeValid bool
	Requested actuator.Mode
	Pending   bool

	Running    bool
	EngineTime time.Duration

	Phases    phase.Stats
	QueueLen  int
	Saturated bool
	Stats     Stats
}

// Status takes a snapshot.
func (u *Unit) Status() Status {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.statusLocked()
}

// EngineTime returns the accumulated engine running time.
func (u *Unit) EngineTime() time.Duration {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.engineTimeLocked()
}

// RequestDebug asks the dispatcher to log a status snapshot.
func (u *Unit) RequestDebug() bool {
	return u.Queue.Push(phase.Debug)
}

func (u *Unit) engineTimeLocked() time.Duration {
	us := u.engineUS
	if u.running {
		us += u.Clock.Micros() - u.engineSince
	}
	return time.Duration(us) * time.Microsecond
}

func (u *Unit) statusLocked() Status {
	s := Status{
		Records:       u.records,
		Slot:          u.slot,
		IMU:           u.imu,
		IMUSlot:       u.imuSlot,
		QueuedIMU:     u.imuQueue.Len(),
		QueuedRecords: u.recordQueue.Len(),
		QueuedTemps:   u.tempQueue.Len(),
		Overruns:      u.imuQueue.Overruns() + u.recordQueue.Overruns() + u.tempQueue.Overruns(),
		Requested:     u.requested,
		Pending:       u.pending,
		Running:       u.running,
		EngineTime:    u.engineTimeLocked(),
		Phases:        u.Queue.Stats(),
		QueueLen:      u.Queue.Len(),
		Saturated:     u.Queue.Saturated(),
		Stats:         u.stats,
	}
	s.Mode, s.ModeValid = u.Servo.Applied()
	return s
}

// String implements fmt.Stringer.
func (s Status) String() string {
	var sb strings.Builder
	mode := "-"
	if s.ModeValid {
		mode = s.Mode.String()
	}
	fmt.Fprintf(&sb, "queue=%d/sat=%v servo=%s", s.QueueLen, s.Saturated, mode)
	if s.Pending {
		fmt.Fprintf(&sb, " pending=%s", s.Requested)
	}
	fmt.Fprintf(&sb, " engine=%v/%v", s.Running, s.EngineTime)
	for n, r := range s.Records {
		cur := ' '
		if n == s.Slot {
			cur = '*'
		}
		fmt.Fprintf(&sb, " %c[rpm=%d speed=%d flags=%s]", cur, r.RPM, r.Speed, telemetry.FlagString(r.Flags))
	}
	imu := s.IMU[s.IMUSlot]
	fmt.Fprintf(&sb, " imu[%d]=acc%v gyro%v", s.IMUSlot, imu.Accel, imu.Gyro)
	fmt.Fprintf(&sb, " assembled=%d/%d/%d radio=%d/%d/%d",
		s.QueuedIMU, s.QueuedRecords, s.QueuedTemps,
		s.Stats.RadioSent, s.Stats.RadioFailed, s.Stats.RadioSkipped)
	return sb.String()
}
