package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic, payload})
	return nil
}

type fakeTx struct{ err error }

func (t fakeTx) Transmit(context.Context, telemetry.Packet) error { return t.err }

func newMirror(pub Publisher) *Mirror {
	m := New(pub, "unit-1", 3)
	m.Now = func() time.Time { return time.Unix(10, 5e8) }
	return m
}

func TestBusWriterMirrors(t *testing.T) {
	pub := &fakePublisher{}
	lb := bus.NewLoopback()
	w := newMirror(pub).BusWriter(lb)

	f := bus.Uint16Frame(0x202, 77)
	require.NoError(t, w.WriteFrame(f))
	require.Len(t, lb.Sent(), 1)
	require.Len(t, pub.msgs, 1)
	require.Equal(t, "unit-1/bus/202", pub.msgs[0].topic)

	var ev BusEvent
	require.NoError(t, Decode(pub.msgs[0].payload, &ev))
	require.Equal(t, BusEvent{At: 10500, ID: 0x202, Data: f.Data}, ev)

	lb.Fail(errors.New("bus off"))
	require.Error(t, w.WriteFrame(f))
	require.NoError(t, Decode(pub.msgs[1].payload, &ev))
	require.Equal(t, "bus off", ev.Err)
}

func TestTransmitterMirrors(t *testing.T) {
	pub := &fakePublisher{}
	m := newMirror(pub)
	var p telemetry.Packet
	p.Records[1].Speed = 12
	p.Temp.Motor = 80.5

	require.NoError(t, m.Transmitter(fakeTx{}).Transmit(context.Background(), p))
	require.Equal(t, "unit-1/radio", pub.msgs[0].topic)
	var ev PacketEvent
	require.NoError(t, Decode(pub.msgs[0].payload, &ev))
	require.True(t, ev.Acked)
	require.Equal(t, uint8(3), ev.Peer)
	decoded, err := ev.Decode()
	require.NoError(t, err)
	require.Equal(t, p, decoded)

	require.Error(t, m.Transmitter(fakeTx{err: errors.New("no ack")}).Transmit(context.Background(), p))
	require.NoError(t, Decode(pub.msgs[1].payload, &ev))
	require.False(t, ev.Acked)
	require.Equal(t, "no ack", ev.Err)
}

func TestPublishFailureIsCounted(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	m := newMirror(pub)
	require.NoError(t, m.BusWriter(bus.NewLoopback()).WriteFrame(bus.Uint8Frame(0x201, 1)))
	published, failed := m.Counts()
	require.Zero(t, published)
	require.Equal(t, uint64(1), failed)
}

func TestParseTopic(t *testing.T) {
	unit, kind, id := ParseTopic(BusTopic("u", 0x103))
	require.Equal(t, "u", unit)
	require.Equal(t, KindBus, kind)
	require.Equal(t, uint32(0x103), id)

	_, kind, _ = ParseTopic(PacketTopic("u"))
	require.Equal(t, KindPacket, kind)
	_, kind, _ = ParseTopic(MetaTopic("u"))
	require.Equal(t, KindMeta, kind)
	_, kind, _ = ParseTopic("u/bus/zz")
	require.Equal(t, KindUnknown, kind)
}

func TestFormat(t *testing.T) {
	pub := &fakePublisher{}
	m := newMirror(pub)
	require.NoError(t, m.BusWriter(bus.NewLoopback()).WriteFrame(bus.Uint16Frame(0x202, 77)))
	line, err := Format(pub.msgs[0].topic, pub.msgs[0].payload)
	require.NoError(t, err)
	require.Equal(t, "00:00:10.500 unit-1 bus 0x202 4d 00", line)

	var p telemetry.Packet
	p.Records[0] = telemetry.Record{RPM: 100, Speed: 3, Flags: telemetry.FlagRun}
	require.Error(t, m.Transmitter(fakeTx{err: errors.New("no ack")}).Transmit(context.Background(), p))
	line, err = Format(pub.msgs[1].topic, pub.msgs[1].payload)
	require.NoError(t, err)
	require.Contains(t, line, "unit-1 radio to 3 temp=0.0C [rpm=100 speed=3 run] [rpm=0 speed=0 -]")
	require.Contains(t, line, "lost: no ack")

	meta, err := Encode(&Meta{Unit: "unit-1", Network: 100, Node: 2, Peer: 1})
	require.NoError(t, err)
	line, err = Format(MetaTopic("unit-1"), meta)
	require.NoError(t, err)
	require.Equal(t, "unit-1 up since 00:00:00.000, network 100 node 2 peer 1", line)
	line, err = Format(MetaTopic("unit-1"), nil)
	require.NoError(t, err)
	require.Equal(t, "unit-1 gone", line)

	_, err = Format("unit-1/bogus", nil)
	require.Error(t, err)
}
