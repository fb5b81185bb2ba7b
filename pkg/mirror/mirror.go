package mirror

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

// Publisher publishes a payload without blocking.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Transmitter relays telemetry packets.
type Transmitter interface {
	Transmit(context.Context, telemetry.Packet) error
}

// Mirror publishes events for a unit.
type Mirror struct {
	Publisher Publisher
	Unit      string
	Peer      uint8
	Now       func() time.Time

	published uint64
	failed    uint64
}

// New creates a Mirror.
func New(p Publisher, unit string, peer uint8) *Mirror {
	return &Mirror{Publisher: p, Unit: unit, Peer: peer, Now: time.Now}
}

// Counts returns published and failed publications.
func (m *Mirror) Counts() (published, failed uint64) {
	return atomic.LoadUint64(&m.published), atomic.LoadUint64(&m.failed)
}

func (m *Mirror) publish(topic string, event interface{}) {
	payload, err := Encode(event)
	if err == nil {
		err = m.Publisher.Publish(topic, payload)
	}
	if err != nil {
		atomic.AddUint64(&m.failed, 1)
		glog.V(2).Infof("mirror %s: %v", topic, err)
		return
	}
	atomic.AddUint64(&m.published, 1)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// BusWriter returns a bus.Writer mirroring every frame written to w.
func (m *Mirror) BusWriter(w bus.Writer) bus.Writer {
	return &busWriter{mirror: m, writer: w}
}

type busWriter struct {
	mirror *Mirror
	writer bus.Writer
}

func (w *busWriter) WriteFrame(f bus.Frame) error {
	err := w.writer.WriteFrame(f)
	w.mirror.publish(BusTopic(w.mirror.Unit, f.ID), &BusEvent{
		At:   millis(w.mirror.Now()),
		ID:   f.ID,
		Data: f.Data,
		Err:  errString(err),
	})
	return err
}

// Transmitter returns a Transmitter mirroring every packet sent by t.
func (m *Mirror) Transmitter(t Transmitter) Transmitter {
	return &transmitter{mirror: m, tx: t}
}

type transmitter struct {
	mirror *Mirror
	tx     Transmitter
}

func (t *transmitter) Transmit(ctx context.Context, p telemetry.Packet) error {
	err := t.tx.Transmit(ctx, p)
	b, _ := p.MarshalBinary()
	t.mirror.publish(PacketTopic(t.mirror.Unit), &PacketEvent{
		At:     millis(t.mirror.Now()),
		Peer:   t.mirror.Peer,
		Packet: b,
		Acked:  err == nil,
		Err:    errString(err),
	})
	return err
}
