package radio

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/rear.go/pkg/telemetry"
)

func parseAll(t *testing.T, p *Parser, b []byte) []*Frame {
	var frames []*Frame
	for _, c := range b {
		f, err := p.Parse(c)
		require.NoError(t, err)
		if f != nil {
			frames = append(frames, f)
		}
	}
	return frames
}

func TestCRC16(t *testing.T) {
	require.Equal(t, uint16(0x29B1), CRC16([]byte("123456789")))
}

func TestFrameStuffing(t *testing.T) {
	f := &Frame{Network: 1, Dst: 2, Src: 3, Seq: 4, Ctl: CtlAckRequest, Payload: []byte{StartByte, EndByte, EscByte, 0}}
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, byte(StartByte), b[0])
	require.Equal(t, byte(EndByte), b[len(b)-1])
	for _, c := range b[1 : len(b)-1] {
		require.NotEqual(t, byte(StartByte), c)
		require.NotEqual(t, byte(EndByte), c)
	}
	require.Equal(t, []byte{1, 2, 3, 4, CtlAckRequest, 4, EscByte, StartByte ^ EscXor, EscByte, EndByte ^ EscXor, EscByte, EscByte ^ EscXor, 0}, b[1:14])

	var p Parser
	frames := parseAll(t, &p, append([]byte{0x55, EndByte}, b...))
	require.Len(t, frames, 1)
	require.Equal(t, f, frames[0])
}

func TestParserErrors(t *testing.T) {
	f := &Frame{Network: 1, Dst: 2, Src: 3, Seq: 4, Payload: []byte("hello")}
	b, err := f.MarshalBinary()
	require.NoError(t, err)

	var p Parser
	corrupted := append([]byte(nil), b...)
	corrupted[8] ^= 0x01
	var lastErr error
	for _, c := range corrupted {
		if _, err := p.Parse(c); err != nil {
			lastErr = err
		}
	}
	require.ErrorIs(t, lastErr, ErrCRC)

	_, err = p.Parse(StartByte)
	require.NoError(t, err)
	_, err = p.Parse(1)
	require.NoError(t, err)
	_, err = p.Parse(EndByte)
	require.ErrorIs(t, err, ErrMalformed)

	// a doubled escape aborts the frame, the rest is ignored until the next start
	for _, c := range []byte{StartByte, 1, EscByte} {
		_, err = p.Parse(c)
		require.NoError(t, err)
	}
	_, err = p.Parse(EscByte)
	require.ErrorIs(t, err, ErrMalformed)
	frames := parseAll(t, &p, []byte{2, EndByte})
	require.Empty(t, frames)

	// a start byte in the middle restarts the frame
	frames = parseAll(t, &p, append([]byte{StartByte, 9, 9}, b...))
	require.Len(t, frames, 1)
	require.Equal(t, []byte("hello"), frames[0].Payload)
}

func TestSeq(t *testing.T) {
	require.Equal(t, Seq(1), Seq(0xef).Next())
	require.Equal(t, Seq(1), Seq(0).Next())
	require.False(t, Seq(0).IsValid())
	require.False(t, Seq(0xf0).IsValid())
	require.True(t, NewSeq().IsValid())
}

type linkPair struct {
	a, b     *Link
	received chan *Frame
	cancel   func()
	conns    []net.Conn
}

func newLinkPair(t *testing.T) *linkPair {
	ca, cb := net.Pipe()
	lp := &linkPair{
		a:        NewLink(ca, 7, 1),
		b:        NewLink(cb, 7, 2),
		received: make(chan *Frame, 4),
		conns:    []net.Conn{ca, cb},
	}
	lp.a.AckTimeout, lp.b.AckTimeout = time.Second, time.Second
	lp.b.Handler = HandleFrameFunc(func(ctx context.Context, f *Frame) {
		lp.received <- f
	})
	ctx, cancel := context.WithCancel(context.Background())
	lp.cancel = cancel
	go lp.a.Run(ctx)
	go lp.b.Run(ctx)
	return lp
}

func (lp *linkPair) close() {
	lp.cancel()
	for _, c := range lp.conns {
		c.Close()
	}
}

func TestLinkSendAcked(t *testing.T) {
	lp := newLinkPair(t)
	defer lp.close()

	require.NoError(t, lp.a.Send(context.Background(), 2, []byte{1, 2, 3}))
	select {
	case f := <-lp.received:
		require.Equal(t, []byte{1, 2, 3}, f.Payload)
		require.Equal(t, uint8(1), f.Src)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
	require.Eventually(t, func() bool { return lp.a.Stats().Acked == 1 }, time.Second, time.Millisecond)
	require.Equal(t, uint64(1), lp.b.Stats().Received)
}

func TestLinkIgnoresOtherNodes(t *testing.T) {
	lp := newLinkPair(t)
	defer lp.close()
	lp.a.AckTimeout = 20 * time.Millisecond

	err := lp.a.Send(context.Background(), 9, []byte{1})
	require.ErrorIs(t, err, ErrNoAck)
	select {
	case <-lp.received:
		t.Fatal("unexpected delivery")
	default:
	}
}

type chanStream struct {
	readCh  chan []byte
	lock    sync.Mutex
	written [][]byte
}

func (s *chanStream) Read(p []byte) (int, error) {
	return copy(p, <-s.readCh), nil
}

func (s *chanStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	s.written = append(s.written, append([]byte(nil), p...))
	s.lock.Unlock()
	return len(p), nil
}

func (s *chanStream) writes() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([][]byte(nil), s.written...)
}

func TestLinkRetryThenNoAck(t *testing.T) {
	s := &chanStream{readCh: make(chan []byte)}
	l := NewLink(s, 7, 1)
	l.AckTimeout = 10 * time.Millisecond

	start := time.Now()
	err := l.Send(context.Background(), 2, []byte{0xaa})
	require.ErrorIs(t, err, ErrNoAck)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	writes := s.writes()
	require.Len(t, writes, 2)
	require.Equal(t, writes[0], writes[1])
	stats := l.Stats()
	require.Equal(t, uint64(2), stats.Sent)
	require.Equal(t, uint64(1), stats.Retried)
	require.Equal(t, uint64(1), stats.NoAck)
}

func TestLinkSendCanceledBetweenTries(t *testing.T) {
	s := &chanStream{readCh: make(chan []byte)}
	l := NewLink(s, 7, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, l.Send(ctx, 2, nil), context.Canceled)
	require.Empty(t, s.writes())
}

func TestLinkAcksDuplicatesOnce(t *testing.T) {
	s := &chanStream{readCh: make(chan []byte)}
	l := NewLink(s, 7, 2)
	delivered := make(chan *Frame, 4)
	l.Handler = HandleFrameFunc(func(ctx context.Context, f *Frame) { delivered <- f })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	f := &Frame{Network: 7, Dst: 2, Src: 1, Seq: 5, Ctl: CtlAckRequest, Payload: []byte{1}}
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	s.readCh <- b
	s.readCh <- b

	require.Eventually(t, func() bool { return len(s.writes()) == 2 }, time.Second, time.Millisecond)
	var p Parser
	for _, w := range s.writes() {
		acks := parseAll(t, &p, w)
		require.Len(t, acks, 1)
		require.True(t, acks[0].IsAck())
		require.Equal(t, Seq(5), acks[0].Seq)
		require.Equal(t, uint8(1), acks[0].Dst)
	}
	require.Eventually(t, func() bool { return l.Stats().Duplicate == 1 }, time.Second, time.Millisecond)
	require.Len(t, delivered, 1)
}

type fakeSender struct {
	dst     uint8
	payload []byte
	err     error
}

func (s *fakeSender) Send(ctx context.Context, dst uint8, payload []byte) error {
	s.dst, s.payload = dst, payload
	return s.err
}

func TestTransmitter(t *testing.T) {
	s := &fakeSender{}
	tx := NewTransmitter(s, 3)
	var p telemetry.Packet
	p.Temp.Motor = 42
	require.NoError(t, tx.Transmit(context.Background(), p))
	require.Equal(t, uint8(3), s.dst)
	require.Len(t, s.payload, telemetry.PacketSize)

	s.err = ErrNoAck
	require.ErrorIs(t, tx.Transmit(context.Background(), p), ErrNoAck)
	sent, failed := tx.Counts()
	require.Equal(t, uint64(1), sent)
	require.Equal(t, uint64(1), failed)
}

func TestLinkOverWebSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan []byte, 1)
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		ws.PayloadType = websocket.BinaryFrame
		base := NewLink(ws, 7, 1)
		base.Handler = HandleFrameFunc(func(ctx context.Context, f *Frame) {
			received <- f.Payload
		})
		base.Run(ctx)
	}))
	defer srv.Close()

	conn, err := Open("ws"+strings.TrimPrefix(srv.URL, "http"), 0)
	require.NoError(t, err)
	defer conn.Close()
	l := NewLink(conn, 7, 2)
	l.AckTimeout = time.Second
	go l.Run(ctx)

	require.NoError(t, l.Send(ctx, 1, []byte("hello")))
	require.Equal(t, []byte("hello"), <-received)
	require.Equal(t, uint64(1), l.Stats().Acked)
}

func TestOpenWebSocketBadURL(t *testing.T) {
	_, err := OpenWebSocket("ws://127.0.0.1:1/modem")
	require.Error(t, err)
}
