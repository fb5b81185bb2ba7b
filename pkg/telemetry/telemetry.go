// Package telemetry defines the records assembled by the unit and the
// packed binary layout of the packet relayed over the radio link.
package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Status flag bits of a 10 Hz record.
const (
	FlagRun        uint8 = 0x01
	FlagChoke      uint8 = 0x02
	FlagServoError uint8 = 0x04
	FlagFuelLow    uint8 = 0x08

	// FlagsServo are the bits owned by the actuator.
	FlagsServo = FlagRun | FlagChoke | FlagServoError
)

// Slot counts.
const (
	IMUSlots    = 4
	RecordSlots = 2
)

// Sizes of the packed layout.
const (
	IMUSampleSize   = 12
	RecordSize      = 5
	TemperatureSize = 4
	PacketSize      = IMUSlots*IMUSampleSize + RecordSlots*RecordSize + TemperatureSize
)

// IMUSample is one accelerometer and gyroscope triad.
type IMUSample struct {
	Accel [3]int16
	Gyro  [3]int16
}

// IMUBlock is the four rotating IMU slots.
type IMUBlock [IMUSlots]IMUSample

// Record is a 10 Hz record.
type Record struct {
	RPM   uint16
	Speed uint16
	Flags uint8
}

// RecordPair is the two live 10 Hz slots.
type RecordPair [RecordSlots]Record

// Temperature is a motor temperature sample in degrees Celsius.
type Temperature struct {
	Motor float32
}

// Packet is the composite relayed over the radio link.
type Packet struct {
	IMU     IMUBlock
	Records RecordPair
	Temp    Temperature
}

// ErrShortPacket is returned when decoding fewer than PacketSize bytes.
var ErrShortPacket = errors.New("short packet")

// AppendBinary appends the packed little-endian layout of p to b:
// 4 IMU samples, 2 records, 1 temperature, no padding.
func (p *Packet) AppendBinary(b []byte) []byte {
	for _, s := range p.IMU {
		for _, v := range s.Accel {
			b = binary.LittleEndian.AppendUint16(b, uint16(v))
		}
		for _, v := range s.Gyro {
			b = binary.LittleEndian.AppendUint16(b, uint16(v))
		}
	}
	for _, r := range p.Records {
		b = binary.LittleEndian.AppendUint16(b, r.RPM)
		b = binary.LittleEndian.AppendUint16(b, r.Speed)
		b = append(b, r.Flags)
	}
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(p.Temp.Motor))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Packet) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, PacketSize)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) < PacketSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrShortPacket, len(b), PacketSize)
	}
	u16 := func() uint16 {
		v := binary.LittleEndian.Uint16(b)
		b = b[2:]
		return v
	}
	for n := range p.IMU {
		s := &p.IMU[n]
		for i := range s.Accel {
			s.Accel[i] = int16(u16())
		}
		for i := range s.Gyro {
			s.Gyro[i] = int16(u16())
		}
	}
	for n := range p.Records {
		r := &p.Records[n]
		r.RPM, r.Speed = u16(), u16()
		r.Flags, b = b[0], b[1:]
	}
	p.Temp.Motor = math.Float32frombits(binary.LittleEndian.Uint32(b))
	return nil
}

// FlagString renders status flags for logs, e.g. "run|fuel".
func FlagString(flags uint8) string {
	if flags == 0 {
		return "-"
	}
	var s string
	for _, f := range []struct {
		bit  uint8
		name string
	}{
		{FlagRun, "run"},
		{FlagChoke, "choke"},
		{FlagServoError, "servo-err"},
		{FlagFuelLow, "fuel"},
	} {
		if flags&f.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += f.name
		}
	}
	if rest := flags &^ (FlagsServo | FlagFuelLow); rest != 0 {
		if s != "" {
			s += "|"
		}
		s += fmt.Sprintf("0x%02x", rest)
	}
	return s
}
