package radio

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/rear.go/pkg/telemetry"
)

// Sender sends an acknowledged payload to a node.
type Sender interface {
	Send(ctx context.Context, dst uint8, payload []byte) error
}

// Transmitter relays telemetry packets to the base station.
type Transmitter struct {
	Sender Sender
	Peer   uint8

	sent   uint64
	failed uint64
}

// NewTransmitter creates a Transmitter sending to peer.
func NewTransmitter(s Sender, peer uint8) *Transmitter {
	return &Transmitter{Sender: s, Peer: peer}
}

// Transmit sends one packet and blocks until it is acknowledged or
// all tries failed.
func (t *Transmitter) Transmit(ctx context.Context, p telemetry.Packet) error {
	payload, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	if err = t.Sender.Send(ctx, t.Peer, payload); err != nil {
		atomic.AddUint64(&t.failed, 1)
		glog.Warningf("radio: packet to %d: %v", t.Peer, err)
		return err
	}
	atomic.AddUint64(&t.sent, 1)
	glog.V(2).Infof("radio: packet to %d acked", t.Peer)
	return nil
}

// Counts returns the number of packets acknowledged and failed.
func (t *Transmitter) Counts() (sent, failed uint64) {
	return atomic.LoadUint64(&t.sent), atomic.LoadUint64(&t.failed)
}
