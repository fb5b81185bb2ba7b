//go:build linux

package bus

import (
	"context"
	"fmt"

	"github.com/brutella/can"
	"github.com/golang/glog"

	fx "github.com/robotalks/rear.go/pkg/framework"
)

// SocketCAN is a Transport over a Linux CAN interface.
type SocketCAN struct {
	Interface string

	bus *can.Bus
}

// OpenSocketCAN opens the named CAN interface, e.g. can0.
func OpenSocketCAN(name string) (*SocketCAN, error) {
	b, err := can.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &SocketCAN{Interface: name, bus: b}, nil
}

// WriteFrame implements Writer.
func (s *SocketCAN) WriteFrame(f Frame) error {
	if len(f.Data) > MaxDataLength {
		return fmt.Errorf("frame 0x%x: %d bytes exceeds %d", f.ID, len(f.Data), MaxDataLength)
	}
	return s.bus.Publish(packFrame(f))
}

// Listen implements Listener.
func (s *SocketCAN) Listen(ctx context.Context, fn func(Frame)) error {
	s.bus.Subscribe(can.NewHandler(func(cf can.Frame) {
		n := int(cf.Length)
		if n > MaxDataLength {
			n = MaxDataLength
		}
		fn(Frame{ID: cf.ID, Data: append([]byte(nil), cf.Data[:n]...)})
	}))
	glog.Infof("listening on %s", s.Interface)
	return fx.RunWithContextCloser(ctx, disconnector{s.bus}, s.bus.ConnectAndPublish)
}

func packFrame(f Frame) can.Frame {
	var data [MaxDataLength]byte
	copy(data[:], f.Data)
	return can.Frame{
		ID:     f.ID,
		Length: uint8(len(f.Data)),
		Data:   data,
	}
}

type disconnector struct {
	bus *can.Bus
}

func (d disconnector) Close() error {
	return d.bus.Disconnect()
}
