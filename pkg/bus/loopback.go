package bus

import (
	"context"
	"sync"
)

// Loopback is an in-memory Transport. Frames written are recorded
// and frames injected are delivered to listeners.
type Loopback struct {
	lock      sync.Mutex
	sent      []Frame
	listeners map[int]func(Frame)
	nextID    int
	err       error
}

// NewLoopback creates a Loopback.
func NewLoopback() *Loopback {
	return &Loopback{listeners: make(map[int]func(Frame))}
}

// WriteFrame implements Writer.
func (l *Loopback) WriteFrame(f Frame) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.err != nil {
		return l.err
	}
	l.sent = append(l.sent, Frame{ID: f.ID, Data: append([]byte(nil), f.Data...)})
	return nil
}

// Fail makes subsequent writes return err, nil restores.
func (l *Loopback) Fail(err error) {
	l.lock.Lock()
	l.err = err
	l.lock.Unlock()
}

// Listen implements Listener.
func (l *Loopback) Listen(ctx context.Context, fn func(Frame)) error {
	l.lock.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.lock.Unlock()
	<-ctx.Done()
	l.lock.Lock()
	delete(l.listeners, id)
	l.lock.Unlock()
	return ctx.Err()
}

// Listening returns the number of attached listeners.
func (l *Loopback) Listening() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.listeners)
}

// Inject delivers f to all listeners as if received from the bus.
func (l *Loopback) Inject(f Frame) {
	l.lock.Lock()
	fns := make([]func(Frame), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.lock.Unlock()
	for _, fn := range fns {
		fn(f)
	}
}

// Sent returns frames written so far.
func (l *Loopback) Sent() []Frame {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]Frame(nil), l.sent...)
}

// Take returns and clears frames written so far.
func (l *Loopback) Take() []Frame {
	l.lock.Lock()
	defer l.lock.Unlock()
	sent := l.sent
	l.sent = nil
	return sent
}
