package mirror

import (
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/rear.go/pkg/telemetry"
)

// Format decodes a mirrored message into one display line.
func Format(topic string, payload []byte) (string, error) {
	unit, kind, id := ParseTopic(topic)
	switch kind {
	case KindBus:
		var e BusEvent
		if err := Decode(payload, &e); err != nil {
			return "", err
		}
		line := fmt.Sprintf("%s %s bus 0x%03x % x", stamp(e.At), unit, id, e.Data)
		if e.Err != "" {
			line += " error: " + e.Err
		}
		return line, nil
	case KindPacket:
		var e PacketEvent
		if err := Decode(payload, &e); err != nil {
			return "", err
		}
		p, err := e.Decode()
		if err != nil {
			return "", err
		}
		status := "acked"
		if !e.Acked {
			status = "lost: " + e.Err
		}
		return fmt.Sprintf("%s %s radio to %d %s %s", stamp(e.At), unit, e.Peer, FormatPacket(p), status), nil
	case KindMeta:
		if len(payload) == 0 {
			return fmt.Sprintf("%s gone", unit), nil
		}
		var m Meta
		if err := Decode(payload, &m); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s up since %s, network %d node %d peer %d",
			m.Unit, stamp(m.Started), m.Network, m.Node, m.Peer), nil
	}
	return "", fmt.Errorf("unknown topic %q", topic)
}

// FormatPacket renders a telemetry packet on one line.
func FormatPacket(p telemetry.Packet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "temp=%.1fC", p.Temp.Motor)
	for _, r := range p.Records {
		fmt.Fprintf(&sb, " [rpm=%d speed=%d %s]", r.RPM, r.Speed, telemetry.FlagString(r.Flags))
	}
	for n, s := range p.IMU {
		fmt.Fprintf(&sb, " imu%d=%v/%v", n, s.Accel, s.Gyro)
	}
	return sb.String()
}

func stamp(ms int64) string {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC().Format("15:04:05.000")
}
