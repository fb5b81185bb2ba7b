//go:build !linux

package bus

import (
	"context"
	"errors"
)

// ErrNoSocketCAN is returned where SocketCAN is unavailable.
var ErrNoSocketCAN = errors.New("socketcan requires linux")

// SocketCAN is unavailable on this platform.
type SocketCAN struct {
	Interface string
}

// OpenSocketCAN always fails on this platform.
func OpenSocketCAN(name string) (*SocketCAN, error) {
	return nil, ErrNoSocketCAN
}

// WriteFrame implements Writer.
func (s *SocketCAN) WriteFrame(Frame) error {
	return ErrNoSocketCAN
}

// Listen implements Listener.
func (s *SocketCAN) Listen(context.Context, func(Frame)) error {
	return ErrNoSocketCAN
}
