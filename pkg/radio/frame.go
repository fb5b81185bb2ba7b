package radio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Framing bytes.
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Control bits.
const (
	CtlAckRequest byte = 0x01
	CtlModem      byte = 0x40
	CtlAck        byte = 0x80
)

// Broadcast addresses every node of a network.
const Broadcast uint8 = 0xFF

const (
	headerSize = 6 // net, dst, src, seq, ctl, len
	crcSize    = 2

	// MaxPayload is the largest payload of a frame.
	MaxPayload = 0xFF

	maxBody = headerSize + MaxPayload + crcSize
)

var (
	// ErrMalformed indicates a frame failed to decode.
	ErrMalformed = errors.New("malformed frame")
	// ErrCRC indicates a frame checksum mismatch.
	ErrCRC = errors.New("crc mismatch")
)

// Seq is a frame sequence number, valid values are 1..0xEF.
type Seq byte

// NewSeq creates a random sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame is a unit of transmission on the link.
type Frame struct {
	Network uint8
	Dst     uint8
	Src     uint8
	Seq     Seq
	Ctl     byte
	Payload []byte
}

// IsAck tells if f acknowledges a data frame.
func (f *Frame) IsAck() bool {
	return f.Ctl&CtlAck != 0
}

// WantsAck tells if the sender waits for an acknowledgment.
func (f *Frame) WantsAck() bool {
	return f.Ctl&(CtlAck|CtlAckRequest) == CtlAckRequest
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("net=%d %d->%d seq=%d ctl=0x%02x len=%d", f.Network, f.Src, f.Dst, f.Seq, f.Ctl, len(f.Payload))
}

// AppendBinary appends the framed, stuffed encoding of f.
func (f *Frame) AppendBinary(b []byte) ([]byte, error) {
	if len(f.Payload) > MaxPayload {
		return b, fmt.Errorf("%w: payload %d bytes exceeds %d", ErrMalformed, len(f.Payload), MaxPayload)
	}
	body := make([]byte, 0, headerSize+len(f.Payload)+crcSize)
	body = append(body, f.Network, f.Dst, f.Src, byte(f.Seq), f.Ctl, byte(len(f.Payload)))
	body = append(body, f.Payload...)
	body = binary.BigEndian.AppendUint16(body, CRC16(body))

	b = append(b, StartByte)
	for _, c := range body {
		if c == StartByte || c == EndByte || c == EscByte {
			b = append(b, EscByte, c^EscXor)
		} else {
			b = append(b, c)
		}
	}
	return append(b, EndByte), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Frame) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(nil)
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

func decodeBody(body []byte) (*Frame, error) {
	if len(body) < headerSize+crcSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(body))
	}
	size := int(body[5])
	if len(body) != headerSize+size+crcSize {
		return nil, fmt.Errorf("%w: length %d, got %d payload bytes", ErrMalformed, size, len(body)-headerSize-crcSize)
	}
	data, sum := body[:headerSize+size], binary.BigEndian.Uint16(body[headerSize+size:])
	if crc := CRC16(data); crc != sum {
		return nil, fmt.Errorf("%w: expect 0x%04x, got 0x%04x", ErrCRC, crc, sum)
	}
	f := &Frame{
		Network: body[0],
		Dst:     body[1],
		Src:     body[2],
		Seq:     Seq(body[3]),
		Ctl:     body[4],
	}
	if size > 0 {
		f.Payload = append([]byte(nil), body[headerSize:headerSize+size]...)
	}
	return f, nil
}

// CRC16 computes CRC-16-CCITT (0x1021, initial 0xFFFF).
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
