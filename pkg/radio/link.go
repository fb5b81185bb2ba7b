package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Defaults of a Link.
const (
	DefaultAckTimeout = 40 * time.Millisecond
	DefaultRetries    = 1
)

var (
	// ErrNoAck indicates the peer did not acknowledge after all tries.
	ErrNoAck = errors.New("no ack")
	// ErrBusy indicates a send to the same sequence is outstanding.
	ErrBusy = errors.New("link busy")
)

// FrameHandler is called when a data frame addressed to the node is
// received.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// Settings configures the modem itself.
type Settings struct {
	FrequencyMHz uint16
	PowerLevel   uint8
}

// Stats counts link activity.
type Stats struct {
	Sent      uint64
	Retried   uint64
	Acked     uint64
	NoAck     uint64
	Received  uint64
	Duplicate uint64
	Corrupted uint64
}

// Link sends and receives frames over a modem byte stream.
type Link struct {
	ReadWriter io.ReadWriter
	Network    uint8
	Node       uint8
	AckTimeout time.Duration
	Retries    int
	Handler    FrameHandler

	seq       Seq
	writeLock sync.Mutex

	lock     sync.Mutex
	pending  map[Seq]chan struct{}
	lastSeen map[uint8]Seq
	stats    Stats
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter, network, node uint8) *Link {
	return &Link{
		ReadWriter: rw,
		Network:    network,
		Node:       node,
		AckTimeout: DefaultAckTimeout,
		Retries:    DefaultRetries,
		seq:        NewSeq(),
		pending:    make(map[Seq]chan struct{}),
		lastSeen:   make(map[uint8]Seq),
	}
}

// Stats returns a snapshot of the counters.
func (l *Link) Stats() Stats {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.stats
}

// Configure sends the modem settings. The modem consumes the frame
// and does not put it on the air.
func (l *Link) Configure(s Settings) error {
	f := &Frame{
		Network: l.Network,
		Src:     l.Node,
		Ctl:     CtlModem,
		Payload: []byte{byte(s.FrequencyMHz), byte(s.FrequencyMHz >> 8), s.PowerLevel},
	}
	if err := l.write(f); err != nil {
		return fmt.Errorf("configure modem: %w", err)
	}
	glog.Infof("radio: node %d network %d at %dMHz power %d", l.Node, l.Network, s.FrequencyMHz, s.PowerLevel)
	return nil
}

// Send transmits payload to dst and waits for the acknowledgment,
// retrying up to Retries times. ctx is checked between tries only: a
// try on the air always runs to its ack timeout.
func (l *Link) Send(ctx context.Context, dst uint8, payload []byte) error {
	l.lock.Lock()
	seq := l.seq
	l.seq = l.seq.Next()
	if _, exist := l.pending[seq]; exist {
		l.lock.Unlock()
		return ErrBusy
	}
	ackCh := make(chan struct{}, 1)
	l.pending[seq] = ackCh
	l.lock.Unlock()

	defer func() {
		l.lock.Lock()
		delete(l.pending, seq)
		l.lock.Unlock()
	}()

	f := &Frame{
		Network: l.Network,
		Dst:     dst,
		Src:     l.Node,
		Seq:     seq,
		Ctl:     CtlAckRequest,
		Payload: payload,
	}
	for try := 0; try <= l.Retries; try++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.write(f); err != nil {
			return fmt.Errorf("send to %d: %w", dst, err)
		}
		l.count(func(s *Stats) {
			s.Sent++
			if try > 0 {
				s.Retried++
			}
		})
		timer := time.NewTimer(l.AckTimeout)
		select {
		case <-ackCh:
			timer.Stop()
			l.count(func(s *Stats) { s.Acked++ })
			return nil
		case <-timer.C:
			glog.V(3).Infof("radio: no ack for seq %d try %d", seq, try)
		}
	}
	l.count(func(s *Stats) { s.NoAck++ })
	return fmt.Errorf("%w: seq %d to %d after %d tries", ErrNoAck, seq, dst, l.Retries+1)
}

// Run receives frames until ctx is done or the stream fails.
func (l *Link) Run(ctx context.Context) error {
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)

	var parser Parser
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case chunk := <-byteCh:
			for _, b := range chunk {
				f, err := parser.Parse(b)
				if err != nil {
					l.count(func(s *Stats) { s.Corrupted++ })
					glog.V(2).Infof("radio: %v", err)
					continue
				}
				if f != nil {
					if err := l.receive(ctx, f); err != nil {
						return err
					}
				}
			}
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, 64)
		n, err := l.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[:n]:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) receive(ctx context.Context, f *Frame) error {
	if f.Network != l.Network || (f.Dst != l.Node && f.Dst != Broadcast) {
		return nil
	}
	if f.IsAck() {
		l.lock.Lock()
		ackCh := l.pending[f.Seq]
		l.lock.Unlock()
		if ackCh != nil {
			select {
			case ackCh <- struct{}{}:
			default:
			}
		}
		return nil
	}
	if f.WantsAck() && f.Dst == l.Node {
		ack := &Frame{Network: l.Network, Dst: f.Src, Src: l.Node, Seq: f.Seq, Ctl: CtlAck}
		if err := l.write(ack); err != nil {
			return fmt.Errorf("ack to %d: %w", f.Src, err)
		}
	}
	l.lock.Lock()
	dup := l.lastSeen[f.Src] == f.Seq
	l.lastSeen[f.Src] = f.Seq
	if dup {
		l.stats.Duplicate++
	} else {
		l.stats.Received++
	}
	l.lock.Unlock()
	if !dup && l.Handler != nil {
		l.Handler.HandleFrame(ctx, f)
	}
	return nil
}

func (l *Link) write(f *Frame) error {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	_, err := f.WriteTo(l.ReadWriter)
	return err
}

func (l *Link) count(fn func(*Stats)) {
	l.lock.Lock()
	fn(&l.stats)
	l.lock.Unlock()
}
