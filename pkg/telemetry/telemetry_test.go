package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePacket() Packet {
	var p Packet
	for n := range p.IMU {
		p.IMU[n] = IMUSample{
			Accel: [3]int16{int16(n), -1, 0x0102},
			Gyro:  [3]int16{-2, int16(10 * n), 0x7fff},
		}
	}
	p.Records = RecordPair{
		{RPM: 0x1234, Speed: 40, Flags: FlagRun},
		{RPM: 0xabcd, Speed: 41, Flags: FlagRun | FlagFuelLow},
	}
	p.Temp.Motor = 1.5
	return p
}

func TestPacketLayout(t *testing.T) {
	p := samplePacket()
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, PacketSize)
	require.Equal(t, 62, PacketSize)

	// first IMU sample
	require.Equal(t, []byte{0, 0, 0xff, 0xff, 0x02, 0x01, 0xfe, 0xff, 0, 0, 0xff, 0x7f}, b[:IMUSampleSize])
	// records follow the 4 IMU samples
	off := IMUSlots * IMUSampleSize
	require.Equal(t, []byte{0x34, 0x12, 40, 0, 0x01, 0xcd, 0xab, 41, 0, 0x09}, b[off:off+2*RecordSize])
	// float32 1.5 little-endian
	require.Equal(t, []byte{0, 0, 0xc0, 0x3f}, b[PacketSize-TemperatureSize:])

	var decoded Packet
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.Equal(t, p, decoded)
}

func TestPacketShort(t *testing.T) {
	var p Packet
	err := p.UnmarshalBinary(make([]byte, PacketSize-1))
	require.ErrorIs(t, err, ErrShortPacket)
}

func TestFlagString(t *testing.T) {
	require.Equal(t, "-", FlagString(0))
	require.Equal(t, "run|fuel", FlagString(FlagRun|FlagFuelLow))
	require.Equal(t, "choke|servo-err|0x80", FlagString(FlagChoke|FlagServoError|0x80))
}
