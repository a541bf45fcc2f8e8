package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/net/packet"
)

// Session is one host connection. Network I/O runs in dedicated goroutines;
// game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // game loop reads frames from here
	OutQueue chan []byte // writer goroutine reads from here

	Addr     string
	HostName string // announced in C_HELLO

	outBuf [][]byte // buffered frames, flushed by OutputSystem (game loop only)

	writeTimeout time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	drainCh    chan struct{}
	drainOnce  sync.Once
	writing    atomic.Bool
	writerDone chan struct{}

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize int, writeTimeout time.Duration, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, inSize),
		OutQueue:     make(chan []byte, outSize),
		Addr:         conn.RemoteAddr().String(),
		writeTimeout: writeTimeout,
		closeCh:      make(chan struct{}),
		drainCh:      make(chan struct{}),
		writerDone:   make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start writes the INIT frame directly and launches the reader and writer
// goroutines.
func (s *Session) Start(init []byte) {
	s.armWriteDeadline()
	if err := WriteFrame(s.conn, init); err != nil {
		s.log.Error("init frame failed", zap.Error(err))
		s.Close()
		return
	}

	s.writing.Store(true)
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a frame. Nothing reaches the socket until FlushOutput is
// called by OutputSystem. Game loop only.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// Buffered returns the number of frames waiting for FlushOutput.
func (s *Session) Buffered() int { return len(s.outBuf) }

// FlushOutput drains the output buffer to OutQueue for the writeLoop
// goroutine. Non-blocking: if OutQueue is full the host is too slow and the
// session is closed.
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow host")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close shuts the session down. Safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Drain closes the session once the writer has sent every frame already in
// OutQueue. If that takes longer than timeout the connection is cut. Returns
// false when frames were left unsent.
func (s *Session) Drain(timeout time.Duration) bool {
	if !s.writing.Load() || s.IsClosed() {
		s.Close()
		return true
	}
	s.drainOnce.Do(func() { close(s.drainCh) })

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.writerDone:
		return len(s.OutQueue) == 0
	case <-t.C:
		s.log.Warn("drain timed out", zap.Int("unsent", len(s.OutQueue)))
		s.Close()
		<-s.writerDone
		return false
	}
}

// readLoop reads frames from the connection and pushes them onto InQueue
// for the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		// Blocking keeps event order intact; only this host's reader waits.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop writes queued frames to the connection. On drain it writes
// whatever is still queued and closes the session.
func (s *Session) writeLoop() {
	defer close(s.writerDone)
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOne(data) {
				return
			}
		case <-s.drainCh:
			for {
				select {
				case data := <-s.OutQueue:
					if !s.writeOne(data) {
						return
					}
				default:
					return
				}
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(data []byte) bool {
	if len(data) > 0 {
		s.log.Debug("TX",
			zap.String("op", packet.OpcodeName(data[0])),
			zap.Int("len", len(data)),
		)
	}

	s.armWriteDeadline()
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}

func (s *Session) armWriteDeadline() {
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
}
