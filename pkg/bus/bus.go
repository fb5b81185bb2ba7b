package bus

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/rear.go/pkg/framework"
)

// Writer transmits frames.
type Writer interface {
	WriteFrame(Frame) error
}

// Listener delivers received frames to fn until ctx is done. fn runs
// in the transport's goroutine and must not block.
type Listener interface {
	Listen(ctx context.Context, fn func(Frame)) error
}

// Transport is a bus both ways.
type Transport interface {
	Writer
	Listener
}

// Handler processes a received frame.
type Handler interface {
	HandleFrame(Frame)
}

// HandleFrameFunc is the func form of Handler.
type HandleFrameFunc func(Frame)

// HandleFrame implements Handler.
func (f HandleFrameFunc) HandleFrame(frame Frame) {
	f(frame)
}

// DefaultReceiveDepth is the number of frames buffered between the
// transport and the handler.
const DefaultReceiveDepth = 32

// Receiver moves frames out of the transport goroutine. Deliver only
// enqueues; Run hands frames one at a time to the Handler, so the
// handler never runs concurrently with itself.
type Receiver struct {
	Handler Handler

	frames   chan Frame
	overruns uint64
}

// NewReceiver creates a Receiver buffering depth frames.
func NewReceiver(h Handler, depth int) *Receiver {
	if depth <= 0 {
		depth = DefaultReceiveDepth
	}
	return &Receiver{Handler: h, frames: make(chan Frame, depth)}
}

// Deliver enqueues a frame without blocking. It returns false and
// counts an overrun when the buffer is full.
func (r *Receiver) Deliver(f Frame) bool {
	select {
	case r.frames <- f:
		return true
	default:
		atomic.AddUint64(&r.overruns, 1)
		glog.V(2).Infof("bus receive overrun, dropped %s", f)
		return false
	}
}

// Overruns returns the number of frames dropped by Deliver.
func (r *Receiver) Overruns() uint64 {
	return atomic.LoadUint64(&r.overruns)
}

// Run implements Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-r.frames:
			r.Handler.HandleFrame(f)
		}
	}
}

// Attach creates a Runnable feeding frames from l into the receiver.
func (r *Receiver) Attach(l Listener) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		return l.Listen(ctx, func(f Frame) { r.Deliver(f) })
	})
}
