// Package bus carries vehicle bus frames between the unit and the
// CAN transceiver.
package bus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// MaxDataLength is the payload limit of a classic CAN frame.
const MaxDataLength = 8

// Frame is a bus frame.
type Frame struct {
	ID   uint32
	Data []byte
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return fmt.Sprintf("%03x#% x", f.ID, f.Data)
}

// IDs are the bus identifiers the unit speaks.
type IDs struct {
	Throttle uint32 `yaml:"throttle"`
	IMUAccel uint32 `yaml:"imu_accel"`
	IMUGyro  uint32 `yaml:"imu_gyro"`
	Speed    uint32 `yaml:"speed"`

	Temperature uint32 `yaml:"temperature"`
	Flags       uint32 `yaml:"flags"`
	RPM         uint32 `yaml:"rpm"`
}

// DefaultIDs are used when no identifiers are configured.
var DefaultIDs = IDs{
	Throttle: 0x100,
	IMUAccel: 0x101,
	IMUGyro:  0x102,
	Speed:    0x103,

	Temperature: 0x200,
	Flags:       0x201,
	RPM:         0x202,
}

// Validate checks identifiers are unique and within 29 bits.
func (ids IDs) Validate() error {
	seen := make(map[uint32]string)
	for _, id := range []struct {
		name string
		id   uint32
	}{
		{"throttle", ids.Throttle},
		{"imu_accel", ids.IMUAccel},
		{"imu_gyro", ids.IMUGyro},
		{"speed", ids.Speed},
		{"temperature", ids.Temperature},
		{"flags", ids.Flags},
		{"rpm", ids.RPM},
	} {
		if id.id >= 1<<29 {
			return fmt.Errorf("bus id %s 0x%x exceeds 29 bits", id.name, id.id)
		}
		if other, ok := seen[id.id]; ok {
			return fmt.Errorf("bus id 0x%x used by both %s and %s", id.id, other, id.name)
		}
		seen[id.id] = id.name
	}
	return nil
}

// ErrShortFrame is returned when a payload is too short to decode.
var ErrShortFrame = errors.New("short frame")

// Uint8Frame builds a frame carrying one byte.
func Uint8Frame(id uint32, v uint8) Frame {
	return Frame{ID: id, Data: []byte{v}}
}

// Uint16Frame builds a frame carrying a little-endian uint16.
func Uint16Frame(id uint32, v uint16) Frame {
	return Frame{ID: id, Data: binary.LittleEndian.AppendUint16(nil, v)}
}

// Float32Frame builds a frame carrying a little-endian float32.
func Float32Frame(id uint32, v float32) Frame {
	return Frame{ID: id, Data: binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))}
}

// TriadFrame builds a frame carrying three little-endian int16.
func TriadFrame(id uint32, v [3]int16) Frame {
	data := make([]byte, 0, 6)
	for _, n := range v {
		data = binary.LittleEndian.AppendUint16(data, uint16(n))
	}
	return Frame{ID: id, Data: data}
}

func (f Frame) need(n int) error {
	if len(f.Data) < n {
		return fmt.Errorf("%w: id 0x%x has %d bytes, want %d", ErrShortFrame, f.ID, len(f.Data), n)
	}
	return nil
}

// Uint8 decodes the first byte.
func (f Frame) Uint8() (uint8, error) {
	if err := f.need(1); err != nil {
		return 0, err
	}
	return f.Data[0], nil
}

// Uint16 decodes a little-endian uint16.
func (f Frame) Uint16() (uint16, error) {
	if err := f.need(2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(f.Data), nil
}

// Float32 decodes a little-endian float32.
func (f Frame) Float32() (float32, error) {
	if err := f.need(4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(f.Data)), nil
}

// Triad decodes three little-endian int16.
func (f Frame) Triad() (v [3]int16, err error) {
	if err = f.need(6); err != nil {
		return
	}
	for i := range v {
		v[i] = int16(binary.LittleEndian.Uint16(f.Data[i*2:]))
	}
	return
}
