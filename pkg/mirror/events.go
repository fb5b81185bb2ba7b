// Package mirror publishes copies of what the unit transmits, bus
// frames and radio packets, as CBOR events over MQTT.
package mirror

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/robotalks/rear.go/pkg/telemetry"
)

// BusEvent mirrors one transmitted bus frame.
type BusEvent struct {
	At   int64  `cbor:"1,keyasint"` // unix milliseconds
	ID   uint32 `cbor:"2,keyasint"`
	Data []byte `cbor:"3,keyasint"`
	Err  string `cbor:"4,keyasint,omitempty"`
}

// PacketEvent mirrors one radio packet and its delivery outcome.
type PacketEvent struct {
	At     int64  `cbor:"1,keyasint"`
	Peer   uint8  `cbor:"2,keyasint"`
	Packet []byte `cbor:"3,keyasint"` // packed telemetry.Packet
	Acked  bool   `cbor:"4,keyasint"`
	Err    string `cbor:"5,keyasint,omitempty"`
}

// Decode unpacks the telemetry packet.
func (e *PacketEvent) Decode() (p telemetry.Packet, err error) {
	err = p.UnmarshalBinary(e.Packet)
	return
}

// Meta describes a unit, published retained while it runs.
type Meta struct {
	Unit    string `cbor:"1,keyasint"`
	Network uint8  `cbor:"2,keyasint"`
	Node    uint8  `cbor:"3,keyasint"`
	Peer    uint8  `cbor:"4,keyasint"`
	Started int64  `cbor:"5,keyasint"`
}

// Encode marshals an event.
func Encode(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

// Decode unmarshals an event.
func Decode(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

// BusTopic is where frames of id are mirrored. Topics are relative to
// the queue prefix.
func BusTopic(unit string, id uint32) string {
	return fmt.Sprintf("%s/bus/%03x", unit, id)
}

// PacketTopic is where radio packets are mirrored.
func PacketTopic(unit string) string {
	return unit + "/radio"
}

// MetaTopic is where Meta is retained.
func MetaTopic(unit string) string {
	return unit + "/meta"
}

// Kind of a mirrored topic.
type Kind int

// Topic kinds.
const (
	KindUnknown Kind = iota
	KindBus
	KindPacket
	KindMeta
)

// ParseTopic splits a mirrored topic. For bus topics id is the frame
// identifier.
func ParseTopic(topic string) (unit string, kind Kind, id uint32) {
	items := strings.Split(topic, "/")
	switch {
	case len(items) == 3 && items[1] == "bus":
		n, err := strconv.ParseUint(items[2], 16, 32)
		if err != nil {
			return items[0], KindUnknown, 0
		}
		return items[0], KindBus, uint32(n)
	case len(items) == 2 && items[1] == "radio":
		return items[0], KindPacket, 0
	case len(items) == 2 && items[1] == "meta":
		return items[0], KindMeta, 0
	}
	return "", KindUnknown, 0
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
